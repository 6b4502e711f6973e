package note

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// listOrder is the one ordering rule for every listing and search: pinned
// notes float to the top, newest first within each tier.
const listOrder = "pinned desc, created_at desc"

// Service is the persistence layer for notes, one Postgres table partitioned
// by owner.
type Service struct {
	DB *gorm.DB
}

// Create inserts a validated draft and returns the stored note.
func (s *Service) Create(ctx context.Context, owner int64, d Draft) (*Note, error) {
	n := Note{
		OwnerID: owner,
		Title:   d.Title,
		Content: d.Content,
		Tags:    pq.StringArray(NormalizeTags(d.Tags)),
	}
	if err := s.DB.WithContext(ctx).Create(&n).Error; err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return &n, nil
}

// List returns one page of the owner's notes plus the owner's total count.
// page is 1-based; values below 1 mean the first page. A page past the end
// yields an empty slice with the correct total.
func (s *Service) List(ctx context.Context, owner int64, page, size int) ([]Note, int64, error) {
	if page < 1 {
		page = 1
	}

	var total int64
	if err := s.DB.WithContext(ctx).Model(&Note{}).
		Where("owner_id = ?", owner).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count notes: %w", err)
	}

	var notes []Note
	if err := s.DB.WithContext(ctx).
		Where("owner_id = ?", owner).
		Order(listOrder).
		Offset((page - 1) * size).
		Limit(size).
		Find(&notes).Error; err != nil {
		return nil, 0, fmt.Errorf("list notes: %w", err)
	}
	return notes, total, nil
}

// Get fetches one note by id within the owner partition.
func (s *Service) Get(ctx context.Context, owner int64, id uint64) (*Note, error) {
	var n Note
	err := s.DB.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, owner).
		First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get note: %w", err)
	}
	return &n, nil
}

// Delete removes one note. Deleting an id that does not exist, or that
// belongs to another owner, reports ErrNotFound and touches nothing.
func (s *Service) Delete(ctx context.Context, owner int64, id uint64) error {
	res := s.DB.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, owner).
		Delete(&Note{})
	if res.Error != nil {
		return fmt.Errorf("delete note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TogglePin flips the pinned flag. The current value is read immediately
// before the write; concurrent toggles resolve as last write wins.
func (s *Service) TogglePin(ctx context.Context, owner int64, id uint64) (*Note, error) {
	n, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	n.Pinned = !n.Pinned
	if err := s.DB.WithContext(ctx).Model(&Note{}).
		Where("id = ? AND owner_id = ?", id, owner).
		Update("pinned", n.Pinned).Error; err != nil {
		return nil, fmt.Errorf("update pin: %w", err)
	}
	return n, nil
}

// SearchByTags returns the owner's notes whose tag set overlaps the given
// tags. One shared tag is enough. Tags must already be normalized.
func (s *Service) SearchByTags(ctx context.Context, owner int64, tags []string) ([]Note, error) {
	var notes []Note
	err := s.DB.WithContext(ctx).
		Where("owner_id = ?", owner).
		Where("tags && ?", pq.Array(tags)).
		Order(listOrder).
		Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("search by tags: %w", err)
	}
	return notes, nil
}

// likeEscaper neutralizes LIKE metacharacters so user input matches
// literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// SearchByContent matches term case-insensitively against title or content.
// The term is taken literally, not as a pattern.
func (s *Service) SearchByContent(ctx context.Context, owner int64, term string) ([]Note, error) {
	pattern := "%" + escapeLike(term) + "%"
	var notes []Note
	err := s.DB.WithContext(ctx).
		Where("owner_id = ?", owner).
		Where("title ILIKE ? OR content ILIKE ?", pattern, pattern).
		Order(listOrder).
		Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("search by content: %w", err)
	}
	return notes, nil
}

// TagCounts lists the owner's distinct tags with usage counts, most used
// first.
func (s *Service) TagCounts(ctx context.Context, owner int64) ([]TagCount, error) {
	var out []TagCount
	err := s.DB.WithContext(ctx).Raw(`
		select tag, count(*) as count
		from (
			select unnest(tags) as tag
			from notes
			where owner_id = ?
		) t
		group by tag
		order by count desc, tag asc
	`, owner).Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("tag counts: %w", err)
	}
	return out, nil
}
