package bible

import "context"

// Store is the full read/write surface of the story bible. The assembly
// engine only consumes the narrow *Repo interfaces; the HTTP layer uses
// the whole thing.
type Store interface {
	CharacterRepo
	LocationRepo
	ArcRepo
	ChapterRepo
	RelationRepo
	ForeshadowingRepo
	HookRepo
	WorldRepo

	SaveCharacter(ctx context.Context, c *Character) error
	DeleteCharacter(ctx context.Context, id string) error

	SaveLocation(ctx context.Context, l *Location) error
	DeleteLocation(ctx context.Context, id string) error

	SaveArc(ctx context.Context, a *Arc) error
	DeleteArc(ctx context.Context, id string) error

	SaveChapter(ctx context.Context, ch *Chapter) error
	DeleteChapter(ctx context.Context, id string) error

	SaveRelation(ctx context.Context, r *Relation) error
	DeleteRelation(ctx context.Context, id string) error

	SaveForeshadowing(ctx context.Context, f *Foreshadowing) error
	DeleteForeshadowing(ctx context.Context, id string) error

	SaveHook(ctx context.Context, h *Hook) error
	DeleteHook(ctx context.Context, id string) error

	SaveWorldEntry(ctx context.Context, w *WorldEntry) error
	DeleteWorldEntry(ctx context.Context, id string) error
}
