package note

import (
	"time"

	"github.com/lib/pq"
)

// Note is one saved note. OwnerID is the chat platform user id and is the
// partition key for every query: a note is never visible outside its owner.
type Note struct {
	ID      uint64  `gorm:"primaryKey"`
	OwnerID int64   `gorm:"index;not null"`
	Title   *string `gorm:"type:text"`
	Content string  `gorm:"type:text;not null"`

	Tags pq.StringArray `gorm:"type:text[];not null;default:'{}'"`

	Pinned    bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
}

// Draft is a parsed but not yet validated or persisted note.
type Draft struct {
	Title   *string
	Content string
	Tags    []string
}

// TagCount is one row of the per-owner tag frequency listing.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}
