package bot

import "fmt"

// Button labels. The dispatcher matches on these exact strings, so they live
// in one place.
const (
	BtnNewNote  = "📝 New Note"
	BtnList     = "📋 List Notes"
	BtnSearch   = "🔍 Search Notes"
	BtnViewTags = "🏷️ View Tags"
	BtnHelp     = "❔ Help"

	BtnSearchTags    = "🏷️ Search by Tags"
	BtnSearchContent = "📝 Search by Content"
	BtnBack          = "⬅️ Back to Main Menu"

	BtnPrev = "⬅️ Previous"
	BtnNext = "➡️ Next"

	BtnSortDate      = "📅 Sort by Date"
	BtnSortRelevance = "🎯 Sort by Relevance"
	BtnRefine        = "🔁 Refine Search"

	BtnAddTitle = "📌 Add Title"
	BtnAddTags  = "🏷️ Add Tags"
	BtnSave     = "💾 Save Note"
	BtnCancel   = "❌ Cancel"
)

// Button is one labeled action. Data is set for inline callback buttons and
// empty for plain reply-keyboard buttons.
type Button struct {
	Label string
	Data  string
}

// Keyboard is an opaque descriptor of rows of actions; the transport layer
// decides how to render it.
type Keyboard struct {
	Rows   [][]Button
	Inline bool
}

func row(labels ...string) []Button {
	r := make([]Button, len(labels))
	for i, l := range labels {
		r[i] = Button{Label: l}
	}
	return r
}

func mainKeyboard() *Keyboard {
	return &Keyboard{Rows: [][]Button{
		row(BtnNewNote, BtnList),
		row(BtnSearch, BtnViewTags),
		row(BtnHelp),
	}}
}

func searchKeyboard() *Keyboard {
	return &Keyboard{Rows: [][]Button{
		row(BtnSearchTags, BtnSearchContent),
		row(BtnBack),
	}}
}

func backKeyboard() *Keyboard {
	return &Keyboard{Rows: [][]Button{row(BtnBack)}}
}

func draftKeyboard() *Keyboard {
	return &Keyboard{Rows: [][]Button{
		row(BtnAddTitle, BtnAddTags),
		row(BtnSave, BtnCancel),
	}}
}

func searchResultsKeyboard() *Keyboard {
	return &Keyboard{Rows: [][]Button{
		row(BtnSortDate, BtnSortRelevance),
		row(BtnRefine),
		row(BtnBack),
	}}
}

// listKeyboard builds the inline pager for one list page: a pin and delete
// action per visible note, then a navigation row. Boundary arrows are
// omitted rather than disabled.
func listKeyboard(page, totalPages int, noteIDs []uint64) *Keyboard {
	kb := &Keyboard{Inline: true}
	for _, id := range noteIDs {
		kb.Rows = append(kb.Rows, []Button{
			{Label: fmt.Sprintf("📌 Pin %d", id), Data: fmt.Sprintf("pin_%d", id)},
			{Label: fmt.Sprintf("🗑️ Delete %d", id), Data: fmt.Sprintf("delete_%d", id)},
		})
	}

	var nav []Button
	if page > 1 {
		nav = append(nav, Button{Label: BtnPrev, Data: fmt.Sprintf("page_%d", page-1)})
	}
	nav = append(nav, Button{Label: fmt.Sprintf("%d/%d", page, totalPages), Data: "current_page"})
	if page < totalPages {
		nav = append(nav, Button{Label: BtnNext, Data: fmt.Sprintf("page_%d", page+1)})
	}
	kb.Rows = append(kb.Rows, nav)

	return kb
}
