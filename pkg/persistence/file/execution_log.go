package file

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dnoice/autoflow/pkg/models"
)

func (fp *Persistence) executionLogPath() string {
	return filepath.Join(fp.root, executionsLog)
}

// appendExecutionLocked appends one record to the execution-history log.
// Callers must hold the store lock.
func (fp *Persistence) appendExecutionLocked(record models.ExecutionRecord) error {
	f, err := os.OpenFile(fp.executionLogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, fileMode)
	if err != nil {
		return fmt.Errorf("failed to open execution log: %w", err)
	}

	if _, err := f.WriteString(record.MarshalLine() + "\n"); err != nil {
		_ = f.Close()

		return fmt.Errorf("failed to append execution record: %w", err)
	}

	return f.Close()
}

// ExecutionRecords reads the append-only history log, oldest first,
// optionally filtered by workflow name.
func (fp *Persistence) ExecutionRecords(_ context.Context, workflowName string) ([]models.ExecutionRecord, error) {
	f, err := os.Open(fp.executionLogPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to open execution log: %w", err)
	}
	defer f.Close()

	var records []models.ExecutionRecord

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		record, err := models.ParseExecutionRecord(line)
		if err != nil {
			return nil, err
		}

		if workflowName != "" && record.WorkflowName != workflowName {
			continue
		}

		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read execution log: %w", err)
	}

	return records, nil
}
