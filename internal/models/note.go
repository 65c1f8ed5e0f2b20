// Package models defines the domain types for vaultport.
package models

import "time"

// Document is one unit of converted text content, eventually one output file.
type Document struct {
	Source string `json:"source"`
	Dest   string `json:"dest"`
	Name   string `json:"name"`
	Body   string `json:"body"`
}

// DocumentMetadata is a lightweight representation returned by list operations.
type DocumentMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Link represents a directed edge between a converted note and a wikilink target.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}
