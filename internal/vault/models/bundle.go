package models

import "encoding/json"

// BundleFormatVersion is the wire format version written by this exporter.
// Importers accept any bundle whose metadata version shares the same major.
const BundleFormatVersion = "1.0.0"

// BundleAuthor identifies who produced a bundle.
type BundleAuthor struct {
	DisplayName string `json:"displayName"`
	PublicKey   string `json:"publicKey"`
	FriendCode  string `json:"friendCode"`
}

// BundleMetadata describes a bundle's contents. The field set and JSON names
// are part of the stable wire format.
type BundleMetadata struct {
	Version     string       `json:"version"`
	ContentType string       `json:"contentType"`
	ItemCount   int          `json:"itemCount"`
	Author      BundleAuthor `json:"author"`
	CreatedAt   string       `json:"createdAt"`
	Description string       `json:"description,omitempty"`
	AppVersion  string       `json:"appVersion"`
}

// SignedBundle is the portable container produced by export. The signature
// covers the canonical metadata JSON bytes followed by the payload bytes.
type SignedBundle struct {
	Metadata  BundleMetadata `json:"metadata"`
	Payload   string         `json:"payload"`
	Signature string         `json:"signature"`
}

// BundleItem is one item inside a bundle payload. Ids are the exporter's and
// are remapped on import.
type BundleItem struct {
	Id      string          `json:"id"`
	Type    ItemType        `json:"type"`
	Name    string          `json:"name"`
	Content json.RawMessage `json:"content"`
}

// ImportResolution is a caller-supplied decision for one import conflict.
type ImportResolution string

const (
	ImportSkip     ImportResolution = "skip"
	ImportReplace  ImportResolution = "replace"
	ImportRename   ImportResolution = "rename"
	ImportKeepBoth ImportResolution = "keep_both"
)

// Valid reports whether r is a known import resolution.
func (r ImportResolution) Valid() bool {
	switch r {
	case ImportSkip, ImportReplace, ImportRename, ImportKeepBoth:
		return true
	}
	return false
}

// ImportConflict reports that a bundle item collides with an existing local
// item of the same name and type.
type ImportConflict struct {
	BundleItemId string   `json:"bundleItemId"`
	LocalItemId  string   `json:"localItemId"`
	Name         string   `json:"name"`
	Type         ItemType `json:"type"`
}

// ImportResult summarizes a committed import.
type ImportResult struct {
	ImportedCount int `json:"importedCount"`
	SkippedCount  int `json:"skippedCount"`
	ReplacedCount int `json:"replacedCount"`
}

// ImportPreview is the result of parsing a bundle without committing it.
type ImportPreview struct {
	Valid     bool             `json:"valid"`
	Reason    string           `json:"reason,omitempty"`
	Metadata  *BundleMetadata  `json:"metadata,omitempty"`
	Items     []BundleItem     `json:"items,omitempty"`
	Conflicts []ImportConflict `json:"conflicts,omitempty"`
}
