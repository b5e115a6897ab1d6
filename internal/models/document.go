// Package models defines the storage-level types shared by storage and index.
package models

import "time"

// DocumentMetadata is what a storage listing reports for each document file.
type DocumentMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}
