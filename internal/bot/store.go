package bot

import (
	"context"

	"notesbot/internal/note"
)

// NoteStore is the persistence collaborator the handlers talk to. All calls
// are owner-partitioned; implementations report a missing or foreign note id
// as note.ErrNotFound.
type NoteStore interface {
	Create(ctx context.Context, owner int64, d note.Draft) (*note.Note, error)
	List(ctx context.Context, owner int64, page, size int) ([]note.Note, int64, error)
	Delete(ctx context.Context, owner int64, id uint64) error
	TogglePin(ctx context.Context, owner int64, id uint64) (*note.Note, error)
	SearchByTags(ctx context.Context, owner int64, tags []string) ([]note.Note, error)
	SearchByContent(ctx context.Context, owner int64, term string) ([]note.Note, error)
	TagCounts(ctx context.Context, owner int64) ([]note.TagCount, error)
}

var _ NoteStore = (*note.Service)(nil)
