package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"notesbot/internal/note"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&note.Note{}); err != nil {
		return err
	}

	// Tag overlap filter (GIN for text[]).
	if err := gdb.Exec(`create index if not exists idx_notes_tags on notes using gin (tags);`).Error; err != nil {
		return err
	}

	// Listing order within an owner partition.
	stmts := []string{
		`create index if not exists idx_notes_owner_order on notes(owner_id, pinned desc, created_at desc);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
