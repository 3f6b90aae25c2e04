package domain

// TagRef identifies a tag within a system. Tags are scoped per system, so
// the pair is the natural key (§3).
type TagRef struct {
	SystemID string
	TagID    string
}

// Tag is a labeled fact attachable to users and/or groups within one
// system, optionally carrying a content string (§3). Content-bearing tags
// are leaves: they may not parent a subtag edge (§4.3, §9).
type Tag struct {
	SystemID       string
	TagID          string
	SupportsUsers  bool
	SupportsGroups bool
	HasContent     bool
	Description    string
}

func (t Tag) Ref() TagRef {
	return TagRef{SystemID: t.SystemID, TagID: t.TagID}
}

// SubtagEdge declares that bearers of Child are to be treated as bearers
// of Parent for listing purposes (§3). Self-edges are forbidden at write
// time; cycles are possible and must be defended per-path (§4.3).
type SubtagEdge struct {
	Parent TagRef
	Child  TagRef
}

// TagAssignment attaches a tag, with optional content, to exactly one of a
// username or a group.
type TagAssignment struct {
	ID      string
	Tag     TagRef
	Content *string
	Username *string
	Group    *GroupRef
}

// EffectiveTagAssignment is one entry of the propagated result returned by
// tags_of/tagged_in (§4.3). For the reflexive case (ancestor == the tag the
// assignment was made on) ID and Content are the original assignment's;
// for a strict ancestor they are both nil, conveying the fact of being
// tagged without the payload.
type EffectiveTagAssignment struct {
	ID       *string
	Content  *string
	Username *string
	Group    *GroupRef
	// GroupName is populated by listing queries that join against the
	// groups table for display purposes; resolver-internal callers can
	// ignore it.
	GroupName string
}
