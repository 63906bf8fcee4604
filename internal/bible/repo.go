package bible

import "context"

// Lookup methods return (nil, nil) when the entity does not exist.
// The assembly engine treats missing entities as "contribute nothing",
// so repositories must not turn absence into an error.

// CharacterRepo provides read access to the cast.
type CharacterRepo interface {
	FindCharacter(ctx context.Context, id string) (*Character, error)
	FindCharacters(ctx context.Context, ids []string) ([]*Character, error)
	AllCharacters(ctx context.Context) ([]*Character, error)
}

// LocationRepo provides read access to locations.
type LocationRepo interface {
	FindLocation(ctx context.Context, id string) (*Location, error)
	FindLocations(ctx context.Context, ids []string) ([]*Location, error)
	AllLocations(ctx context.Context) ([]*Location, error)
}

// ArcRepo provides read access to story arcs.
type ArcRepo interface {
	FindArc(ctx context.Context, id string) (*Arc, error)
	AllArcs(ctx context.Context) ([]*Arc, error)
}

// ChapterRepo provides read access to chapters, including the volume
// ordering used to locate the previous chapter and the arc roster.
type ChapterRepo interface {
	FindChapter(ctx context.Context, id string) (*Chapter, error)
	// ChaptersInVolume returns the volume's chapters ordered by number.
	ChaptersInVolume(ctx context.Context, volumeID string) ([]*Chapter, error)
	// ChaptersInArc returns the arc's chapters ordered by number.
	ChaptersInArc(ctx context.Context, arcID string) ([]*Chapter, error)
}

// RelationRepo is the directional relationship lookup consumed by the
// relationship scoper. At most one relation exists per (source, target).
type RelationRepo interface {
	FindBetween(ctx context.Context, sourceID, targetID string) (*Relation, error)
}

// ForeshadowingRepo provides read access to unresolved threads.
type ForeshadowingRepo interface {
	ActiveForeshadowing(ctx context.Context) ([]*Foreshadowing, error)
}

// HookRepo provides read access to chapter hooks.
type HookRepo interface {
	HooksForChapter(ctx context.Context, chapterID string) ([]*Hook, error)
}

// WorldRepo provides read access to world-building rules.
type WorldRepo interface {
	AllWorldEntries(ctx context.Context) ([]*WorldEntry, error)
}
