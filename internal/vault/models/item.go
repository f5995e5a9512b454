// Package models defines the vault's data model: items, folders, version
// snapshots, share links and sync conflicts.
package models

import (
	"encoding/json"
	"time"
)

// ItemType classifies a vault item kind.
type ItemType string

const (
	ItemTypeUnit      ItemType = "unit"
	ItemTypePilot     ItemType = "pilot"
	ItemTypeForce     ItemType = "force"
	ItemTypeEncounter ItemType = "encounter"
)

// ItemTypes lists every valid item type in a stable order.
var ItemTypes = []ItemType{ItemTypeUnit, ItemTypePilot, ItemTypeForce, ItemTypeEncounter}

// Valid reports whether t is one of the closed set of item types.
func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeUnit, ItemTypePilot, ItemTypeForce, ItemTypeEncounter:
		return true
	}
	return false
}

// VaultItem is a user-created item (a unit, pilot, force or encounter).
// Content holds the full serialized state as a JSON object; its schema is
// owned by the item type, the vault treats it as structured but opaque.
type VaultItem struct {
	// Id is a globally unique identifier for the item.
	Id string

	// Type is the item kind.
	Type ItemType

	// Name is the user-visible name. Together with Type it forms the
	// identity used for import conflict detection.
	Name string

	// Content is the current serialized state of the item.
	Content json.RawMessage

	// CreatedAt is the creation time in UTC.
	CreatedAt time.Time

	// UpdatedAt is the last modification time in UTC.
	UpdatedAt time.Time
}
