package models

import (
	"strings"
	"time"
)

// Scope categories written by the derived-asset publisher.
const (
	ScopeSized     = "sized"
	ScopeGenerated = "generated"
)

// StoredObject mirrors one object listed from the remote bucket.
type StoredObject struct {
	Key          string    `json:"key"`
	LastModified time.Time `json:"last_modified"`
	Size         int64     `json:"size"`
}

// ImageAsset is the only thing handed back to callers: a public CDN URL.
type ImageAsset struct {
	URL string `json:"url"`
}

// DerivedArtifact holds transformed bytes between the pipeline and the publisher.
// It never leaves memory.
type DerivedArtifact struct {
	Buffer      []byte
	ContentType string
}

// Dims is a target size in pixels.
type Dims struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RetentionTimer describes one armed, in-process cleanup.
type RetentionTimer struct {
	Scope  string    `json:"scope"`
	FireAt time.Time `json:"fire_at"`
}

// JoinScope builds a folder path like "baboons/sized" out of a root folder and a category.
func JoinScope(root, category string) string {
	root = strings.Trim(root, "/")
	category = strings.Trim(category, "/")
	switch {
	case root == "":
		return category
	case category == "":
		return root
	}
	return root + "/" + category
}
