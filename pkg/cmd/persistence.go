// Package cmd provides shared constructors for the CLI binaries.
package cmd

import (
	"github.com/dnoice/autoflow/pkg/persistence"
	"github.com/dnoice/autoflow/pkg/persistence/file"
)

// NewPersistence builds the storage backend for the given data directory.
// Only the file backend exists today; the URL-style prefix keeps the door
// open for others.
func NewPersistence(dataDir string) persistence.Persistence {
	return file.NewPersistence(dataDir)
}
