package patterns

import (
	"sort"
	"strings"

	"github.com/dnoice/autoflow/pkg/models"
)

// Actionable thresholds. The display cut (TopN/MinFrequency) decides what is
// shown; these decide what is worth acting on.
const (
	shortcutMinCount   = 5
	suggestionMinCount = 3
)

// shortcutAliases maps well-known high-frequency commands to short aliases.
// Extend by adding rows, not branches.
var shortcutAliases = map[string]string{
	"git":            "g",
	"docker":         "d",
	"docker-compose": "dc",
	"kubectl":        "k",
	"terraform":      "tf",
	"python":         "py",
	"python3":        "py3",
	"vagrant":        "vg",
	"systemctl":      "sc",
}

// suggestionRule matches a bigram shape by the prefixes of its two halves.
type suggestionRule struct {
	firstPrefix  string
	secondPrefix string
	name         string
	description  string
}

// suggestionRules is the fixed bigram rule table. Each match proposes a
// two-step workflow built from the observed pair.
var suggestionRules = []suggestionRule{
	{firstPrefix: "git add", secondPrefix: "git commit", name: "stage-then-commit", description: "Stage changes and commit in one go"},
	{firstPrefix: "git commit", secondPrefix: "git push", name: "commit-then-push", description: "Commit and push in one go"},
	{firstPrefix: "make", secondPrefix: "make test", name: "build-then-test", description: "Build and run the test suite"},
	{firstPrefix: "go build", secondPrefix: "go test", name: "build-then-test", description: "Build and run the test suite"},
	{firstPrefix: "docker build", secondPrefix: "docker run", name: "build-then-run", description: "Build an image and run it"},
	{firstPrefix: "go build", secondPrefix: "./", name: "build-then-run", description: "Build a binary and run it"},
}

// Shortcuts derives alias mappings for tools invoked often enough to be
// worth aliasing. Frequency entries are full command lines, so counts are
// aggregated by leading token before the alias lookup. The result is
// deterministic for identical input.
func (r *Report) Shortcuts() []models.Shortcut {
	totals := make(map[string]int)

	for _, pattern := range r.allCommands {
		fields := strings.Fields(pattern.Command)
		if len(fields) == 0 {
			continue
		}

		totals[fields[0]] += pattern.Count
	}

	tools := make([]string, 0, len(totals))
	for tool := range totals {
		tools = append(tools, tool)
	}

	sort.Strings(tools)

	var shortcuts []models.Shortcut

	for _, tool := range tools {
		if totals[tool] < shortcutMinCount {
			continue
		}

		alias, ok := shortcutAliases[tool]
		if !ok {
			continue
		}

		shortcuts = append(shortcuts, models.Shortcut{
			Alias:   alias,
			Command: tool,
			Count:   totals[tool],
		})
	}

	return shortcuts
}

// Suggestions matches mined bigrams against the fixed rule table and
// proposes workflows for recurring pairs.
func (r *Report) Suggestions() []models.WorkflowSuggestion {
	var suggestions []models.WorkflowSuggestion

	seen := make(map[string]bool)

	for _, sequence := range r.allSequences {
		if sequence.Count < suggestionMinCount {
			continue
		}

		for _, rule := range suggestionRules {
			if !strings.HasPrefix(sequence.First, rule.firstPrefix) ||
				!strings.HasPrefix(sequence.Second, rule.secondPrefix) {
				continue
			}

			if seen[rule.name] {
				continue
			}

			seen[rule.name] = true

			suggestions = append(suggestions, models.WorkflowSuggestion{
				Name:        rule.name,
				Description: rule.description,
				Commands:    []string{sequence.First, sequence.Second},
				Count:       sequence.Count,
			})
		}
	}

	return suggestions
}
