// Package storage defines the document directory abstraction.
package storage

import "github.com/starford/blockdoc/internal/models"

// Ext is the file extension of stored documents.
const Ext = ".json"

// Provider is the interface for document file operations. Paths are
// relative to the storage root.
type Provider interface {
	// List returns metadata for every document file under dir.
	List(dir string) ([]models.DocumentMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path with content.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
	// Root returns the absolute storage directory.
	Root() string
}
