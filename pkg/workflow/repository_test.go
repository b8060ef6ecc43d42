package workflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dnoice/autoflow/pkg/models"
	"github.com/dnoice/autoflow/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	return NewRepository(file.NewPersistence(t.TempDir()))
}

func TestRepository_CreateThenGet_PreservesStepsAndOrder(t *testing.T) {
	repo := newTestRepository(t)

	commands := []string{"git pull", "make build", "make test", "make deploy"}

	created, err := repo.Create(context.Background(), "deploy", "ship it",
		models.ExecutionPolicy{RetryCount: 1}, models.WorkflowTriggers{Schedule: "0 2 * * *"}, commands)
	require.NoError(t, err)

	loaded, err := repo.Get(context.Background(), "deploy")
	require.NoError(t, err)

	require.Len(t, loaded.Steps, len(commands))

	seen := make(map[string]bool)

	for i, step := range loaded.Steps {
		assert.Equal(t, created.Steps[i].ID, step.ID)
		assert.Equal(t, commands[i], step.Command)
		assert.False(t, seen[step.ID], "step ids must be unique")
		seen[step.ID] = true
	}

	assert.Equal(t, "0 2 * * *", loaded.Triggers.Schedule)
	assert.True(t, loaded.Triggers.Manual)
}

func TestRepository_Create_Duplicate(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Create(context.Background(), "dup", "", models.ExecutionPolicy{}, models.WorkflowTriggers{}, []string{"true"})
	require.NoError(t, err)

	_, err = repo.Create(context.Background(), "dup", "", models.ExecutionPolicy{}, models.WorkflowTriggers{}, []string{"false"})
	assert.ErrorIs(t, err, models.ErrWorkflowExists)
}

func TestRepository_Create_InvalidWorkflow(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Create(context.Background(), "", "", models.ExecutionPolicy{}, models.WorkflowTriggers{}, []string{"true"})
	assert.Error(t, err)
}

func TestRepository_Create_RejectsUnsafeNames(t *testing.T) {
	dataDir := t.TempDir()
	repo := NewRepository(file.NewPersistence(dataDir))

	for _, name := range []string{"../evil", "a/b", `a\b`, "a|b", "a b", ".hidden"} {
		_, err := repo.Create(context.Background(), name, "", models.ExecutionPolicy{}, models.WorkflowTriggers{}, []string{"true"})
		require.ErrorIs(t, err, models.ErrInvalidName, "name %q", name)
	}

	// A traversal name must never materialize a document outside the store.
	_, err := os.Stat(filepath.Join(filepath.Dir(dataDir), "evil.json"))
	assert.True(t, os.IsNotExist(err))

	workflows, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, workflows)
}

func TestRepository_Import_RejectsUnsafeNames(t *testing.T) {
	repo := newTestRepository(t)

	doc := []byte(`{"name": "a|b", "steps": [{"id": "step_1", "command": "true", "enabled": true}]}`)

	_, err := repo.Import(context.Background(), doc, FormatJSON)
	assert.ErrorIs(t, err, models.ErrInvalidName)
}

func TestRepository_ExportImport_JSON(t *testing.T) {
	source := newTestRepository(t)
	target := newTestRepository(t)

	_, err := source.Create(context.Background(), "move", "portable",
		models.ExecutionPolicy{OnFailure: models.FailureModeContinue}, models.WorkflowTriggers{}, []string{"echo one", "echo two"})
	require.NoError(t, err)

	data, err := source.Export(context.Background(), "move", FormatJSON)
	require.NoError(t, err)

	imported, err := target.Import(context.Background(), data, FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, "move", imported.Name)
	require.Len(t, imported.Steps, 2)
	assert.Equal(t, models.FailureModeContinue, imported.Policy.OnFailure)

	// Statistics do not travel between stores.
	assert.Equal(t, 0, imported.Statistics.TotalExecutions)
}

func TestRepository_ExportImport_YAML(t *testing.T) {
	source := newTestRepository(t)
	target := newTestRepository(t)

	_, err := source.Create(context.Background(), "move", "",
		models.ExecutionPolicy{}, models.WorkflowTriggers{}, []string{`echo "quoted"`})
	require.NoError(t, err)

	data, err := source.Export(context.Background(), "move", FormatYAML)
	require.NoError(t, err)

	imported, err := target.Import(context.Background(), data, FormatYAML)
	require.NoError(t, err)

	require.Len(t, imported.Steps, 1)
	assert.Equal(t, `echo "quoted"`, imported.Steps[0].Command)
}

func TestRepository_Import_SchemaInvalid(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Import(context.Background(), []byte(`{"description": "no name or steps"}`), FormatJSON)
	require.Error(t, err)
}

func TestRepository_Import_Duplicate(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Create(context.Background(), "dup", "", models.ExecutionPolicy{}, models.WorkflowTriggers{}, []string{"true"})
	require.NoError(t, err)

	data, err := repo.Export(context.Background(), "dup", FormatJSON)
	require.NoError(t, err)

	_, err = repo.Import(context.Background(), data, FormatJSON)
	assert.ErrorIs(t, err, models.ErrWorkflowExists)
}

func TestRepository_Export_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Export(context.Background(), "missing", FormatJSON)
	assert.ErrorIs(t, err, models.ErrWorkflowNotFound)
}

func TestRepository_HealthCheck(t *testing.T) {
	repo := newTestRepository(t)

	message, healthy := repo.HealthCheck(context.Background())
	assert.True(t, healthy, message)

	message, healthy = (&Repository{}).HealthCheck(context.Background())
	assert.False(t, healthy)
	assert.NotEmpty(t, message)
}
