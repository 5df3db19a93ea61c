// Package storage defines read-only access to the notes of one vault.
package storage

import "github.com/starford/wikigraph/internal/models"

// Provider is the interface for vault note access.
type Provider interface {
	// Root returns the absolute vault root.
	Root() string
	// List returns metadata for every visible note, newest first.
	List() ([]models.NoteMeta, error)
	// Stat returns metadata for the note at path (relative to vault root).
	Stat(path string) (models.NoteMeta, error)
	// Read returns the raw bytes of the note at path (relative to vault root).
	Read(path string) ([]byte, error)
}
