package models

import "time"

// ScopeType is the target kind of a share link.
type ScopeType string

const (
	ScopeTypeItem     ScopeType = "item"
	ScopeTypeFolder   ScopeType = "folder"
	ScopeTypeCategory ScopeType = "category"
	ScopeTypeAll      ScopeType = "all"
)

// Valid reports whether s is a known scope type.
func (s ScopeType) Valid() bool {
	switch s {
	case ScopeTypeItem, ScopeTypeFolder, ScopeTypeCategory, ScopeTypeAll:
		return true
	}
	return false
}

// AccessLevel is the permission a share link grants. Levels are ordered:
// admin implies write, write implies read.
type AccessLevel string

const (
	AccessLevelRead  AccessLevel = "read"
	AccessLevelWrite AccessLevel = "write"
	AccessLevelAdmin AccessLevel = "admin"
)

// Valid reports whether l is a known access level.
func (l AccessLevel) Valid() bool {
	switch l {
	case AccessLevelRead, AccessLevelWrite, AccessLevelAdmin:
		return true
	}
	return false
}

func (l AccessLevel) rank() int {
	switch l {
	case AccessLevelRead:
		return 1
	case AccessLevelWrite:
		return 2
	case AccessLevelAdmin:
		return 3
	}
	return 0
}

// Grants reports whether level l satisfies the required level.
func (l AccessLevel) Grants(required AccessLevel) bool {
	return l.rank() >= required.rank()
}

// ShareLink is an expiring, usage-limited capability token scoped to an item,
// a folder, a category, or the entire vault.
type ShareLink struct {
	// Id is a globally unique identifier for the link row.
	Id string

	// Token is the random, URL-safe, unguessable capability string.
	Token string

	// ScopeType selects what the link grants access to.
	ScopeType ScopeType

	// ScopeId is the target item or folder id. Set iff ScopeType is item
	// or folder.
	ScopeId *string

	// ScopeCategory is the target item type. Set iff ScopeType is category.
	ScopeCategory *ItemType

	// Level is the granted access level.
	Level AccessLevel

	// ExpiresAt is the expiry instant, nil for links that never expire.
	ExpiresAt *time.Time

	// MaxUses caps successful redemptions, nil for unlimited.
	MaxUses *int64

	// UseCount is the number of successful redemptions so far.
	// Invariant: UseCount <= MaxUses whenever MaxUses is set.
	UseCount int64

	// Label is an optional human note.
	Label string

	// IsActive is false once the link has been deactivated.
	IsActive bool

	// CreatedAt is the creation time in UTC.
	CreatedAt time.Time
}

// Redeemable reports whether the link would currently accept a redemption.
// The authoritative check lives in the atomic conditional update in the
// repository; this helper exists for display and diagnosis only.
func (s *ShareLink) Redeemable(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	if s.ExpiresAt != nil && !now.Before(*s.ExpiresAt) {
		return false
	}
	if s.MaxUses != nil && s.UseCount >= *s.MaxUses {
		return false
	}
	return true
}
