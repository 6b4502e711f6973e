package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"notesbot/internal/note"
)

func TestFormatNote(t *testing.T) {
	title := "Groceries"
	n := note.Note{
		ID:        7,
		Title:     &title,
		Content:   "milk and bread",
		Tags:      []string{"shopping", "food"},
		Pinned:    true,
		CreatedAt: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
	}

	got := formatNote(n)

	assert.Contains(t, got, "📌 ")
	assert.Contains(t, got, "ID: 7")
	assert.Contains(t, got, "*Groceries*")
	assert.Contains(t, got, "milk and bread")
	assert.Contains(t, got, "Tags: #shopping #food")
	assert.Contains(t, got, "14/03/2025 09:30")
}

func TestFormatNote_Minimal(t *testing.T) {
	n := note.Note{ID: 1, Content: "bare", CreatedAt: time.Now()}

	got := formatNote(n)

	assert.NotContains(t, got, "📌")
	assert.NotContains(t, got, "*")
	assert.NotContains(t, got, "Tags:")
	assert.Contains(t, got, "bare")
}

func TestListKeyboard_MiddlePage(t *testing.T) {
	kb := listKeyboard(2, 3, []uint64{10, 11})

	assert.True(t, kb.Inline)
	// One action row per note plus navigation.
	assert.Len(t, kb.Rows, 3)
	assert.Equal(t, "pin_10", kb.Rows[0][0].Data)
	assert.Equal(t, "delete_10", kb.Rows[0][1].Data)

	nav := kb.Rows[2]
	assert.Equal(t, "page_1", nav[0].Data)
	assert.Equal(t, "2/3", nav[1].Label)
	assert.Equal(t, "page_3", nav[2].Data)
}

func TestListKeyboard_SinglePageHasNoArrows(t *testing.T) {
	kb := listKeyboard(1, 1, nil)

	nav := kb.Rows[len(kb.Rows)-1]
	assert.Len(t, nav, 1)
	assert.Equal(t, "current_page", nav[0].Data)
}

func TestMainKeyboard(t *testing.T) {
	kb := mainKeyboard()

	assert.False(t, kb.Inline)
	assert.Equal(t, BtnNewNote, kb.Rows[0][0].Label)
	assert.Empty(t, kb.Rows[0][0].Data)
}
