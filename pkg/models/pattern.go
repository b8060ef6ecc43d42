package models

import "fmt"

// CommandPattern is a single-command frequency entry mined from history.
type CommandPattern struct {
	Command string `json:"command"`
	Count   int    `json:"count"`
}

// SequencePattern is a frequency-counted pair of adjacent history lines.
type SequencePattern struct {
	First  string `json:"first"`
	Second string `json:"second"`
	Count  int    `json:"count"`
}

// Key renders the bigram in its canonical "a -> b" form.
func (p SequencePattern) Key() string {
	return fmt.Sprintf("%s -> %s", p.First, p.Second)
}

// Shortcut is a suggested alias for a high-frequency command.
type Shortcut struct {
	Alias   string `json:"alias"`
	Command string `json:"command"`
	Count   int    `json:"count"`
}

// WorkflowSuggestion is a derived workflow proposal matched from a bigram shape.
type WorkflowSuggestion struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Commands    []string `json:"commands"`
	Count       int      `json:"count"`
}
