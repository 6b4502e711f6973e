// Package bot implements the conversational core: it turns inbound chat
// events into note operations and renders replies. It never sees transport
// framing; delivery is the caller's concern.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"notesbot/internal/note"
	"notesbot/internal/session"
)

// Event is one inbound chat interaction. Callback carries an inline button
// payload and is empty for plain messages.
type Event struct {
	Sender   int64
	Text     string
	Callback string
}

// Reply is the single user-visible outcome of handling one event.
type Reply struct {
	Text     string
	Keyboard *Keyboard
	Markdown bool

	// Edit asks the transport to replace the message the callback came
	// from instead of sending a new one.
	Edit bool
	// Toast is a short callback acknowledgement.
	Toast string
}

// Bot wires the note store, session store, and configured limits together.
type Bot struct {
	store    NoteStore
	sessions *session.Store
	limits   note.Limits
	pageSize int
	log      *slog.Logger
}

func New(store NoteStore, sessions *session.Store, limits note.Limits, pageSize int, log *slog.Logger) *Bot {
	if log == nil {
		log = slog.Default()
	}
	return &Bot{store: store, sessions: sessions, limits: limits, pageSize: pageSize, log: log}
}

// Handle processes one event and always produces exactly one reply.
// Events may be handled concurrently, including for the same owner; the
// owner's session is locked for the duration.
func (b *Bot) Handle(ctx context.Context, ev Event) Reply {
	sess := b.sessions.Get(ev.Sender)
	sess.Lock()
	defer sess.Unlock()

	if ev.Callback != "" {
		return b.handleCallback(ctx, ev.Sender, sess, ev.Callback)
	}

	text := strings.TrimSpace(ev.Text)
	if strings.HasPrefix(text, "/") {
		return b.handleCommand(ctx, ev.Sender, sess, text)
	}
	if r, ok := b.handleButton(ctx, ev.Sender, sess, text); ok {
		return r
	}

	if d, ok := sess.Draft(); ok {
		return b.handleDraftInput(sess, d, text)
	}
	if mode, ok := sess.ConsumeSearch(); ok {
		return b.handleSearchQuery(ctx, ev.Sender, sess, mode, text)
	}

	return Reply{
		Text:     "To create a note, use this format:\nTitle | Content #tags\n\nOr use the command: /new <title> | <content>",
		Keyboard: mainKeyboard(),
	}
}

func (b *Bot) handleCommand(ctx context.Context, owner int64, sess *session.Session, text string) Reply {
	cmd, args, _ := strings.Cut(text, " ")
	args = strings.TrimSpace(args)

	switch cmd {
	case "/start":
		sess.Reset()
		return Reply{Text: welcomeMessage, Keyboard: mainKeyboard()}

	case "/help":
		return Reply{Text: helpMessage, Keyboard: mainKeyboard()}

	case "/new":
		if args == "" {
			return Reply{Text: "Please provide content for your note.\nFormat: /new [title] | content #tags"}
		}
		r, _ := b.createNote(ctx, owner, note.ParseInput(args))
		return r

	case "/list":
		return b.renderList(ctx, owner, sess, 1, false)

	case "/delete":
		id, err := note.ParseID(args)
		if err != nil {
			return Reply{Text: err.Error()}
		}
		if err := b.store.Delete(ctx, owner, id); err != nil {
			if errors.Is(err, note.ErrNotFound) {
				return Reply{Text: "Note not found."}
			}
			return b.fail("delete", owner, err)
		}
		return Reply{Text: "🗑️ Note deleted!", Keyboard: mainKeyboard()}

	case "/pin":
		id, err := note.ParseID(args)
		if err != nil {
			return Reply{Text: err.Error()}
		}
		n, err := b.store.TogglePin(ctx, owner, id)
		if err != nil {
			if errors.Is(err, note.ErrNotFound) {
				return Reply{Text: "Note not found."}
			}
			return b.fail("pin", owner, err)
		}
		if n.Pinned {
			return Reply{Text: "📌 Note pinned!", Keyboard: mainKeyboard()}
		}
		return Reply{Text: "Note unpinned.", Keyboard: mainKeyboard()}

	case "/search":
		if args == "" {
			return Reply{Text: "Usage: /search <tags>\nExample: /search #work #urgent"}
		}
		if err := note.ValidateSearchQuery(args); err != nil {
			return Reply{Text: err.Error()}
		}
		return b.searchTags(ctx, owner, sess, args)

	default:
		return Reply{Text: "Unknown command. Try /help.", Keyboard: mainKeyboard()}
	}
}

func (b *Bot) handleButton(ctx context.Context, owner int64, sess *session.Session, text string) (Reply, bool) {
	switch text {
	case BtnNewNote:
		sess.StartDraft()
		return Reply{
			Text:     "Enter your note content.\n\nYou can then add a title, add tags, and save or cancel.",
			Keyboard: draftKeyboard(),
		}, true

	case BtnList:
		return b.renderList(ctx, owner, sess, 1, false), true

	case BtnSearch:
		sess.Reset()
		return Reply{Text: "Choose search type:", Keyboard: searchKeyboard()}, true

	case BtnSearchTags:
		sess.StartSearch(session.SearchTags)
		return Reply{
			Text:     "Enter tags to search for (e.g., work urgent).\nSeparate multiple tags with spaces.",
			Keyboard: backKeyboard(),
		}, true

	case BtnSearchContent:
		sess.StartSearch(session.SearchContent)
		return Reply{Text: "Enter text to search for in your notes.", Keyboard: backKeyboard()}, true

	case BtnViewTags:
		tags, err := b.store.TagCounts(ctx, owner)
		if err != nil {
			return b.fail("tags", owner, err), true
		}
		if len(tags) == 0 {
			return Reply{Text: "No tags found. Add tags to your notes using #tag format.", Keyboard: mainKeyboard()}, true
		}
		return Reply{Text: formatTagCounts(tags), Keyboard: mainKeyboard()}, true

	case BtnHelp:
		return Reply{Text: helpMessage, Keyboard: mainKeyboard()}, true

	case BtnBack:
		sess.Reset()
		return Reply{Text: "Main Menu:", Keyboard: mainKeyboard()}, true

	case BtnPrev:
		return b.turnPage(ctx, owner, sess, -1), true

	case BtnNext:
		return b.turnPage(ctx, owner, sess, +1), true

	case BtnSortDate:
		return b.sortResults(sess, "date"), true

	case BtnSortRelevance:
		return b.sortResults(sess, "relevance"), true

	case BtnRefine:
		last, ok := sess.LastSearch()
		if !ok {
			return Reply{Text: "No previous search found. Please start a new search.", Keyboard: searchKeyboard()}, true
		}
		sess.StartSearch(last.Mode)
		return Reply{Text: "Enter new search terms to refine your previous search:", Keyboard: backKeyboard()}, true

	case BtnAddTitle:
		d, ok := sess.Draft()
		if !ok {
			return Reply{Text: "First start creating a new note!", Keyboard: mainKeyboard()}, true
		}
		d.Next = session.DraftTitle
		return Reply{Text: "Please enter the title for your note:"}, true

	case BtnAddTags:
		d, ok := sess.Draft()
		if !ok {
			return Reply{Text: "First start creating a new note!", Keyboard: mainKeyboard()}, true
		}
		d.Next = session.DraftTags
		return Reply{Text: "Enter tags for your note (separate with spaces):\nExample: #work #important #todo"}, true

	case BtnSave:
		d, ok := sess.Draft()
		if !ok {
			return Reply{Text: "First start creating a new note!", Keyboard: mainKeyboard()}, true
		}
		if strings.TrimSpace(d.Content) == "" {
			return Reply{Text: "No note content to save!", Keyboard: draftKeyboard()}, true
		}
		draft := note.Draft{Content: d.Content, Tags: d.Tags}
		if t := strings.TrimSpace(d.Title); t != "" {
			draft.Title = &t
		}
		r, saved := b.createNote(ctx, owner, draft)
		if saved {
			sess.EndDraft()
		}
		return r, true

	case BtnCancel:
		if _, ok := sess.Draft(); !ok {
			return Reply{Text: "Nothing to cancel.", Keyboard: mainKeyboard()}, true
		}
		sess.EndDraft()
		return Reply{Text: "Note discarded.", Keyboard: mainKeyboard()}, true
	}

	return Reply{}, false
}

// createNote validates and stores a draft. saved reports whether the note
// was actually persisted; validation failures name the violated rule and
// keep the current keyboard off so the client leaves the user where they
// were.
func (b *Bot) createNote(ctx context.Context, owner int64, d note.Draft) (r Reply, saved bool) {
	if err := note.ValidateNote(d, b.limits); err != nil {
		return Reply{Text: err.Error()}, false
	}
	if _, err := b.store.Create(ctx, owner, d); err != nil {
		return b.fail("create", owner, err), false
	}
	return Reply{Text: "✅ Note saved successfully!", Keyboard: mainKeyboard()}, true
}

func (b *Bot) handleDraftInput(sess *session.Session, d *session.Draft, text string) Reply {
	switch d.Next {
	case session.DraftTitle:
		d.Title = text
		d.Next = session.DraftContent
		return Reply{Text: "✅ Title added! You can now add tags or save the note.", Keyboard: draftKeyboard()}

	case session.DraftTags:
		tags := note.NormalizeTags(strings.Fields(text))
		if len(tags) == 0 {
			return Reply{Text: "Please provide at least one valid tag starting with #", Keyboard: draftKeyboard()}
		}
		d.Tags = tags
		d.Next = session.DraftContent
		return Reply{Text: "✅ Tags added! You can now save the note.", Keyboard: draftKeyboard()}

	default:
		d.Content = text
		return Reply{Text: "Content saved! You can now add a title, add tags, or save the note.", Keyboard: draftKeyboard()}
	}
}

func (b *Bot) handleSearchQuery(ctx context.Context, owner int64, sess *session.Session, mode session.SearchMode, text string) Reply {
	if err := note.ValidateSearchQuery(text); err != nil {
		return Reply{Text: err.Error(), Keyboard: searchKeyboard()}
	}

	if mode == session.SearchTags {
		return b.searchTags(ctx, owner, sess, text)
	}

	notes, err := b.store.SearchByContent(ctx, owner, text)
	if err != nil {
		return b.fail("search", owner, err)
	}
	return b.renderSearchResults(sess, session.Search{Mode: session.SearchContent, Term: text}, notes)
}

func (b *Bot) searchTags(ctx context.Context, owner int64, sess *session.Session, text string) Reply {
	tags := note.NormalizeTags(strings.Fields(text))
	if len(tags) == 0 {
		return Reply{Text: "Please enter valid tags to search for.", Keyboard: searchKeyboard()}
	}
	notes, err := b.store.SearchByTags(ctx, owner, tags)
	if err != nil {
		return b.fail("search", owner, err)
	}
	return b.renderSearchResults(sess, session.Search{Mode: session.SearchTags, Term: text}, notes)
}

func (b *Bot) renderSearchResults(sess *session.Session, q session.Search, notes []note.Note) Reply {
	sess.SetResults(q, notes)
	if len(notes) == 0 {
		return Reply{Text: "No notes found matching your search.", Keyboard: searchKeyboard()}
	}
	kind := "tags"
	if q.Mode == session.SearchContent {
		kind = "content"
	}
	return Reply{
		Text:     fmt.Sprintf("Found %d notes matching your %s search:\n\n%s", len(notes), kind, formatNoteList(notes)),
		Keyboard: searchResultsKeyboard(),
		Markdown: true,
	}
}

func (b *Bot) sortResults(sess *session.Session, by string) Reply {
	notes, ok := sess.Results()
	if !ok || len(notes) == 0 {
		return Reply{Text: "No search results to sort. Please perform a search first.", Keyboard: searchKeyboard()}
	}
	last, _ := sess.LastSearch()

	if by == "date" {
		notes = note.SortByDate(notes)
	} else {
		notes = note.RankByRelevance(notes, last.Term)
	}
	sess.SetResults(last, notes)

	return Reply{
		Text:     fmt.Sprintf("Search results sorted by %s:\n\n%s", by, formatNoteList(notes)),
		Keyboard: searchResultsKeyboard(),
		Markdown: true,
	}
}

// renderList shows one page of the owner's notes and records it as the
// session's current page.
func (b *Bot) renderList(ctx context.Context, owner int64, sess *session.Session, page int, edit bool) Reply {
	if page < 1 {
		page = 1
	}
	notes, total, err := b.store.List(ctx, owner, page, b.pageSize)
	if err != nil {
		return b.fail("list", owner, err)
	}
	if total == 0 {
		return Reply{
			Text:     "You don't have any notes yet. Create one using \"New Note\"!",
			Keyboard: mainKeyboard(),
		}
	}

	totalPages := int((total + int64(b.pageSize) - 1) / int64(b.pageSize))
	if len(notes) == 0 {
		// Past the last page: not an error, just nothing there.
		if edit {
			return Reply{Toast: "No more notes!"}
		}
		return Reply{Text: "No more notes!"}
	}
	sess.Page = page

	ids := make([]uint64, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
	}
	return Reply{
		Text:     fmt.Sprintf("📋 Your Notes (Page %d/%d):\n\n%s", page, totalPages, formatNoteList(notes)),
		Keyboard: listKeyboard(page, totalPages, ids),
		Markdown: true,
		Edit:     edit,
	}
}

// turnPage moves the session page by delta, staying within bounds. A step
// past either end answers with an explicit boundary message instead of
// silently doing nothing.
func (b *Bot) turnPage(ctx context.Context, owner int64, sess *session.Session, delta int) Reply {
	_, total, err := b.store.List(ctx, owner, 1, b.pageSize)
	if err != nil {
		return b.fail("list", owner, err)
	}
	if total == 0 {
		return Reply{Text: "You don't have any notes yet. Create one using \"New Note\"!", Keyboard: mainKeyboard()}
	}
	totalPages := int((total + int64(b.pageSize) - 1) / int64(b.pageSize))

	target := sess.Page + delta
	if target < 1 {
		return Reply{Text: "Already on the first page."}
	}
	if target > totalPages {
		return Reply{Text: "Already on the last page."}
	}
	return b.renderList(ctx, owner, sess, target, false)
}

func (b *Bot) handleCallback(ctx context.Context, owner int64, sess *session.Session, data string) Reply {
	switch {
	case data == "current_page":
		return Reply{Toast: fmt.Sprintf("Page %d", sess.Page)}

	case strings.HasPrefix(data, "page_"):
		page, err := strconv.Atoi(strings.TrimPrefix(data, "page_"))
		if err != nil || page < 1 {
			return Reply{Toast: "❌ Error changing page"}
		}
		r := b.renderList(ctx, owner, sess, page, true)
		return r

	case strings.HasPrefix(data, "pin_"):
		id, err := note.ParseID(strings.TrimPrefix(data, "pin_"))
		if err != nil {
			return Reply{Toast: "❌ Error updating note"}
		}
		if _, err := b.store.TogglePin(ctx, owner, id); err != nil {
			if errors.Is(err, note.ErrNotFound) {
				return Reply{Toast: "Note not found"}
			}
			b.log.Error("toggle pin failed", slog.Int64("owner", owner), slog.Uint64("note_id", id), slog.String("error", err.Error()))
			return Reply{Toast: "❌ Error updating note"}
		}
		r := b.renderList(ctx, owner, sess, sess.Page, true)
		r.Toast = "📌 Note pin status toggled!"
		return r

	case strings.HasPrefix(data, "delete_"):
		id, err := note.ParseID(strings.TrimPrefix(data, "delete_"))
		if err != nil {
			return Reply{Toast: "❌ Error deleting note"}
		}
		if err := b.store.Delete(ctx, owner, id); err != nil {
			if errors.Is(err, note.ErrNotFound) {
				return Reply{Toast: "Note not found"}
			}
			b.log.Error("delete failed", slog.Int64("owner", owner), slog.Uint64("note_id", id), slog.String("error", err.Error()))
			return Reply{Toast: "❌ Error deleting note"}
		}
		// The removed note may have emptied the current page.
		page := sess.Page
		if _, total, err := b.store.List(ctx, owner, 1, b.pageSize); err == nil {
			totalPages := int((total + int64(b.pageSize) - 1) / int64(b.pageSize))
			if page > totalPages && totalPages > 0 {
				page = totalPages
			}
		}
		r := b.renderList(ctx, owner, sess, page, true)
		r.Toast = "🗑️ Note deleted!"
		return r
	}

	return Reply{Toast: "Unknown action"}
}

func (b *Bot) fail(op string, owner int64, err error) Reply {
	b.log.Error("store operation failed",
		slog.String("op", op),
		slog.Int64("owner", owner),
		slog.String("error", err.Error()))
	return Reply{Text: genericErrMsg}
}
