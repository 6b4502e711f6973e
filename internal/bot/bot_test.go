package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesbot/internal/note"
	"notesbot/internal/session"
)

// fakeStore is an in-memory NoteStore with the same ordering and ownership
// semantics as the Postgres-backed service.
type fakeStore struct {
	mu     sync.Mutex
	nextID uint64
	notes  []note.Note

	// failWith, when set, makes every call fail.
	failWith error
}

func (f *fakeStore) seed(n note.Note) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	n.ID = f.nextID
	f.notes = append(f.notes, n)
	return n.ID
}

func (f *fakeStore) owned(owner int64) []note.Note {
	var out []note.Note
	for _, n := range f.notes {
		if n.OwnerID == owner {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (f *fakeStore) Create(_ context.Context, owner int64, d note.Draft) (*note.Note, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	n := note.Note{
		ID:        f.nextID,
		OwnerID:   owner,
		Title:     d.Title,
		Content:   d.Content,
		Tags:      note.NormalizeTags(d.Tags),
		CreatedAt: time.Now(),
	}
	f.notes = append(f.notes, n)
	return &n, nil
}

func (f *fakeStore) List(_ context.Context, owner int64, page, size int) ([]note.Note, int64, error) {
	if f.failWith != nil {
		return nil, 0, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if page < 1 {
		page = 1
	}
	all := f.owned(owner)
	total := int64(len(all))
	start := (page - 1) * size
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (f *fakeStore) Delete(_ context.Context, owner int64, id uint64) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.notes {
		if n.ID == id && n.OwnerID == owner {
			f.notes = append(f.notes[:i], f.notes[i+1:]...)
			return nil
		}
	}
	return note.ErrNotFound
}

func (f *fakeStore) TogglePin(_ context.Context, owner int64, id uint64) (*note.Note, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notes {
		if f.notes[i].ID == id && f.notes[i].OwnerID == owner {
			f.notes[i].Pinned = !f.notes[i].Pinned
			n := f.notes[i]
			return &n, nil
		}
	}
	return nil, note.ErrNotFound
}

func (f *fakeStore) SearchByTags(_ context.Context, owner int64, tags []string) ([]note.Note, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	want := map[string]struct{}{}
	for _, t := range tags {
		want[t] = struct{}{}
	}
	var out []note.Note
	for _, n := range f.owned(owner) {
		for _, t := range n.Tags {
			if _, ok := want[t]; ok {
				out = append(out, n)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) SearchByContent(_ context.Context, owner int64, term string) ([]note.Note, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	term = strings.ToLower(term)
	var out []note.Note
	for _, n := range f.owned(owner) {
		title := ""
		if n.Title != nil {
			title = strings.ToLower(*n.Title)
		}
		if strings.Contains(title, term) || strings.Contains(strings.ToLower(n.Content), term) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeStore) TagCounts(_ context.Context, owner int64) ([]note.TagCount, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[string]int64{}
	for _, n := range f.notes {
		if n.OwnerID != owner {
			continue
		}
		for _, t := range n.Tags {
			counts[t]++
		}
	}
	out := make([]note.TagCount, 0, len(counts))
	for t, c := range counts {
		out = append(out, note.TagCount{Tag: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out, nil
}

var _ NoteStore = (*fakeStore)(nil)

const owner = int64(1001)

func newTestBot() (*Bot, *fakeStore) {
	st := &fakeStore{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	limits := note.Limits{MaxTitleLen: 100, MaxContentLen: 4000, MaxTags: 10}
	return New(st, session.NewStore(), limits, 5, log), st
}

func msg(text string) Event {
	return Event{Sender: owner, Text: text}
}

func cb(data string) Event {
	return Event{Sender: owner, Callback: data}
}

func seedNotes(st *fakeStore, n int) {
	base := time.Now().Add(-time.Hour)
	for i := 0; i < n; i++ {
		st.seed(note.Note{
			OwnerID:   owner,
			Content:   fmt.Sprintf("note %d", i+1),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
}

func TestStart(t *testing.T) {
	b, _ := newTestBot()

	r := b.Handle(context.Background(), msg("/start"))

	assert.Contains(t, r.Text, "Welcome to Notes Bot")
	require.NotNil(t, r.Keyboard)
	assert.False(t, r.Keyboard.Inline)
}

func TestNewCommand_CreatesNote(t *testing.T) {
	b, st := newTestBot()

	r := b.Handle(context.Background(), msg("/new Shopping | Milk and bread #Shopping #errands"))

	assert.Contains(t, r.Text, "saved successfully")
	require.Len(t, st.notes, 1)
	n := st.notes[0]
	require.NotNil(t, n.Title)
	assert.Equal(t, "Shopping", *n.Title)
	assert.Equal(t, "Milk and bread", n.Content)
	assert.ElementsMatch(t, []string{"shopping", "errands"}, []string(n.Tags))
	assert.Equal(t, owner, n.OwnerID)
	assert.False(t, n.Pinned)
}

func TestNewCommand_EmptyContentRejected(t *testing.T) {
	b, st := newTestBot()

	r := b.Handle(context.Background(), msg("/new #only #tags"))

	assert.Contains(t, r.Text, "empty")
	assert.Empty(t, st.notes)
}

func TestNewCommand_NoArgs(t *testing.T) {
	b, _ := newTestBot()

	r := b.Handle(context.Background(), msg("/new"))

	assert.Contains(t, r.Text, "provide content")
}

func TestList_Empty(t *testing.T) {
	b, _ := newTestBot()

	r := b.Handle(context.Background(), msg("/list"))

	assert.Contains(t, r.Text, "don't have any notes")
}

func TestList_PaginationAndOrdering(t *testing.T) {
	b, st := newTestBot()
	seedNotes(st, 7)
	// Pin the oldest one; it must float to the top.
	_, err := st.TogglePin(context.Background(), owner, 1)
	require.NoError(t, err)

	r := b.Handle(context.Background(), msg("/list"))

	assert.Contains(t, r.Text, "Page 1/2")
	assert.Contains(t, r.Text, "📌")
	require.NotNil(t, r.Keyboard)
	assert.True(t, r.Keyboard.Inline)

	// Pinned note leads despite being the oldest; the rest newest-first.
	first := strings.Index(r.Text, "note 1")
	second := strings.Index(r.Text, "note 7")
	third := strings.Index(r.Text, "note 6")
	require.True(t, first >= 0 && second >= 0 && third >= 0)
	assert.Less(t, first, second)
	assert.Less(t, second, third)

	// Last row is navigation; no Previous on page one.
	nav := r.Keyboard.Rows[len(r.Keyboard.Rows)-1]
	require.Len(t, nav, 2)
	assert.Equal(t, "1/2", nav[0].Label)
	assert.Equal(t, "page_2", nav[1].Data)
}

func TestNextPrev_Boundaries(t *testing.T) {
	b, st := newTestBot()
	seedNotes(st, 7)
	ctx := context.Background()

	b.Handle(ctx, msg("/list"))

	r := b.Handle(ctx, msg(BtnPrev))
	assert.Equal(t, "Already on the first page.", r.Text)

	r = b.Handle(ctx, msg(BtnNext))
	assert.Contains(t, r.Text, "Page 2/2")

	r = b.Handle(ctx, msg(BtnNext))
	assert.Equal(t, "Already on the last page.", r.Text)

	r = b.Handle(ctx, msg(BtnPrev))
	assert.Contains(t, r.Text, "Page 1/2")
}

func TestPageCallback_PastTheEnd(t *testing.T) {
	b, st := newTestBot()
	seedNotes(st, 3)

	r := b.Handle(context.Background(), cb("page_9"))

	assert.Equal(t, "No more notes!", r.Toast)
}

func TestPinToggle_IdempotentUnderDoubleApplication(t *testing.T) {
	b, st := newTestBot()
	id := st.seed(note.Note{OwnerID: owner, Content: "x", CreatedAt: time.Now()})

	r := b.Handle(context.Background(), msg(fmt.Sprintf("/pin %d", id)))
	assert.Contains(t, r.Text, "pinned")
	assert.True(t, st.notes[0].Pinned)

	r = b.Handle(context.Background(), msg(fmt.Sprintf("/pin %d", id)))
	assert.Contains(t, r.Text, "unpinned")
	assert.False(t, st.notes[0].Pinned)
}

func TestPin_InvalidID(t *testing.T) {
	b, _ := newTestBot()

	r := b.Handle(context.Background(), msg("/pin abc"))

	assert.Equal(t, "invalid note id", r.Text)
}

func TestDelete_CrossOwnerIsNotFound(t *testing.T) {
	b, st := newTestBot()
	id := st.seed(note.Note{OwnerID: owner, Content: "mine", CreatedAt: time.Now()})

	stranger := Event{Sender: owner + 1, Text: fmt.Sprintf("/delete %d", id)}
	r := b.Handle(context.Background(), stranger)

	assert.Equal(t, "Note not found.", r.Text)
	require.Len(t, st.notes, 1)
	assert.Equal(t, "mine", st.notes[0].Content)
}

func TestDeleteCallback_RefreshesList(t *testing.T) {
	b, st := newTestBot()
	seedNotes(st, 6)
	ctx := context.Background()

	b.Handle(ctx, msg("/list"))
	b.Handle(ctx, cb("page_2"))

	// Deleting the only note on page two steps the view back.
	r := b.Handle(ctx, cb("delete_1"))

	assert.Equal(t, "🗑️ Note deleted!", r.Toast)
	assert.Contains(t, r.Text, "Page 1/1")
	assert.True(t, r.Edit)
	assert.Len(t, st.notes, 5)
}

func TestSearchByTags_Flow(t *testing.T) {
	b, st := newTestBot()
	st.seed(note.Note{OwnerID: owner, Content: "standup", Tags: []string{"work"}, CreatedAt: time.Now()})
	st.seed(note.Note{OwnerID: owner, Content: "recipe", Tags: []string{"food"}, CreatedAt: time.Now()})
	ctx := context.Background()

	r := b.Handle(ctx, msg(BtnSearch))
	assert.Contains(t, r.Text, "Choose search type")

	r = b.Handle(ctx, msg(BtnSearchTags))
	assert.Contains(t, r.Text, "Enter tags")

	r = b.Handle(ctx, msg("#Work"))
	assert.Contains(t, r.Text, "Found 1 notes")
	assert.Contains(t, r.Text, "standup")
	assert.NotContains(t, r.Text, "recipe")

	// The query was consumed: the next message is not a search.
	r = b.Handle(ctx, msg("anything"))
	assert.Contains(t, r.Text, "To create a note")
}

func TestSearchByTags_NoValidTags(t *testing.T) {
	b, _ := newTestBot()
	ctx := context.Background()

	b.Handle(ctx, msg(BtnSearchTags))
	r := b.Handle(ctx, msg("# # #"))

	assert.Contains(t, r.Text, "valid tags")
}

func TestSearchByContent_CaseInsensitive(t *testing.T) {
	b, st := newTestBot()
	title := "Meeting Notes"
	st.seed(note.Note{OwnerID: owner, Title: &title, Content: "agenda", CreatedAt: time.Now()})
	ctx := context.Background()

	b.Handle(ctx, msg(BtnSearchContent))
	r := b.Handle(ctx, msg("meeting"))

	assert.Contains(t, r.Text, "Found 1 notes")
}

func TestSearch_EmptyQueryRejected(t *testing.T) {
	b, _ := newTestBot()
	ctx := context.Background()

	b.Handle(ctx, msg(BtnSearchContent))
	r := b.Handle(ctx, msg("   "))

	assert.Contains(t, r.Text, "cannot be empty")
}

func TestSearch_NoMatches(t *testing.T) {
	b, _ := newTestBot()
	ctx := context.Background()

	b.Handle(ctx, msg(BtnSearchContent))
	r := b.Handle(ctx, msg("nothing here"))

	assert.Contains(t, r.Text, "No notes found")
}

func TestSortRelevance_WithoutSearch(t *testing.T) {
	b, _ := newTestBot()

	r := b.Handle(context.Background(), msg(BtnSortRelevance))

	assert.Contains(t, r.Text, "No search results to sort")
}

func TestSortRelevance_TitleHitFirst(t *testing.T) {
	b, st := newTestBot()
	title := "Urgent"
	// Content hit is newer, so a date-ordered result set lists it first.
	st.seed(note.Note{OwnerID: owner, Title: &title, Content: "later", CreatedAt: time.Now().Add(-time.Hour)})
	st.seed(note.Note{OwnerID: owner, Content: "urgent things", CreatedAt: time.Now()})
	ctx := context.Background()

	b.Handle(ctx, msg(BtnSearchContent))
	r := b.Handle(ctx, msg("urgent"))
	require.Contains(t, r.Text, "Found 2 notes")

	r = b.Handle(ctx, msg(BtnSortRelevance))
	assert.Contains(t, r.Text, "sorted by relevance")
	assert.Less(t, strings.Index(r.Text, "Urgent"), strings.Index(r.Text, "urgent things"))
}

func TestSortDate_AfterSearch(t *testing.T) {
	b, st := newTestBot()
	st.seed(note.Note{OwnerID: owner, Content: "urgent old", CreatedAt: time.Now().Add(-time.Hour)})
	st.seed(note.Note{OwnerID: owner, Content: "urgent new", CreatedAt: time.Now()})
	ctx := context.Background()

	b.Handle(ctx, msg(BtnSearchContent))
	b.Handle(ctx, msg("urgent"))

	r := b.Handle(ctx, msg(BtnSortDate))
	assert.Contains(t, r.Text, "sorted by date")
	assert.Less(t, strings.Index(r.Text, "urgent new"), strings.Index(r.Text, "urgent old"))
}

func TestRefine_WithoutPrevious(t *testing.T) {
	b, _ := newTestBot()

	r := b.Handle(context.Background(), msg(BtnRefine))

	assert.Contains(t, r.Text, "No previous search")
}

func TestRefine_ReusesMode(t *testing.T) {
	b, st := newTestBot()
	st.seed(note.Note{OwnerID: owner, Content: "x", Tags: []string{"work"}, CreatedAt: time.Now()})
	st.seed(note.Note{OwnerID: owner, Content: "y", Tags: []string{"home"}, CreatedAt: time.Now()})
	ctx := context.Background()

	b.Handle(ctx, msg(BtnSearchTags))
	b.Handle(ctx, msg("work"))

	r := b.Handle(ctx, msg(BtnRefine))
	assert.Contains(t, r.Text, "refine")

	// The refined term still runs in tag mode.
	r = b.Handle(ctx, msg("home"))
	assert.Contains(t, r.Text, "Found 1 notes")
	assert.Contains(t, r.Text, "y")
}

func TestDraftFlow_SaveWithTitleAndTags(t *testing.T) {
	b, st := newTestBot()
	ctx := context.Background()

	r := b.Handle(ctx, msg(BtnNewNote))
	assert.Contains(t, r.Text, "Enter your note content")

	r = b.Handle(ctx, msg("buy milk"))
	assert.Contains(t, r.Text, "Content saved")

	b.Handle(ctx, msg(BtnAddTitle))
	r = b.Handle(ctx, msg("Groceries"))
	assert.Contains(t, r.Text, "Title added")

	b.Handle(ctx, msg(BtnAddTags))
	r = b.Handle(ctx, msg("#shopping #food"))
	assert.Contains(t, r.Text, "Tags added")

	r = b.Handle(ctx, msg(BtnSave))
	assert.Contains(t, r.Text, "saved successfully")

	require.Len(t, st.notes, 1)
	n := st.notes[0]
	require.NotNil(t, n.Title)
	assert.Equal(t, "Groceries", *n.Title)
	assert.Equal(t, "buy milk", n.Content)
	assert.ElementsMatch(t, []string{"shopping", "food"}, []string(n.Tags))

	// Flow ended: the next message is plain text again.
	r = b.Handle(ctx, msg("hello"))
	assert.Contains(t, r.Text, "To create a note")
}

func TestDraftFlow_SaveWithoutContent(t *testing.T) {
	b, st := newTestBot()
	ctx := context.Background()

	b.Handle(ctx, msg(BtnNewNote))
	r := b.Handle(ctx, msg(BtnSave))

	assert.Contains(t, r.Text, "No note content")
	assert.Empty(t, st.notes)
}

func TestDraftFlow_Cancel(t *testing.T) {
	b, st := newTestBot()
	ctx := context.Background()

	b.Handle(ctx, msg(BtnNewNote))
	b.Handle(ctx, msg("something"))
	r := b.Handle(ctx, msg(BtnCancel))

	assert.Contains(t, r.Text, "discarded")
	assert.Empty(t, st.notes)
}

func TestDraftButtons_WithoutDraft(t *testing.T) {
	b, _ := newTestBot()

	r := b.Handle(context.Background(), msg(BtnAddTitle))

	assert.Contains(t, r.Text, "First start creating")
}

func TestViewTags(t *testing.T) {
	b, st := newTestBot()
	st.seed(note.Note{OwnerID: owner, Content: "a", Tags: []string{"work", "urgent"}, CreatedAt: time.Now()})
	st.seed(note.Note{OwnerID: owner, Content: "b", Tags: []string{"work"}, CreatedAt: time.Now()})

	r := b.Handle(context.Background(), msg(BtnViewTags))

	assert.Contains(t, r.Text, "#work (2)")
	assert.Contains(t, r.Text, "#urgent (1)")
}

func TestViewTags_Empty(t *testing.T) {
	b, _ := newTestBot()

	r := b.Handle(context.Background(), msg(BtnViewTags))

	assert.Contains(t, r.Text, "No tags found")
}

func TestStoreFailure_GenericMessage(t *testing.T) {
	b, st := newTestBot()
	st.failWith = errors.New("connection refused")

	r := b.Handle(context.Background(), msg("/list"))

	assert.Equal(t, genericErrMsg, r.Text)
	assert.NotContains(t, r.Text, "connection refused")
}

func TestSessionIsolationAcrossOwners(t *testing.T) {
	b, _ := newTestBot()
	ctx := context.Background()

	b.Handle(ctx, msg(BtnSearchContent))

	// A different owner's next message must not be consumed as a query.
	other := Event{Sender: owner + 1, Text: "hello"}
	r := b.Handle(ctx, other)
	assert.Contains(t, r.Text, "To create a note")

	// The original owner's pending search is still armed.
	r = b.Handle(ctx, msg("hello"))
	assert.Contains(t, r.Text, "No notes found")
}

func TestHandle_ConcurrentSameOwner(t *testing.T) {
	b, _ := newTestBot()
	ctx := context.Background()

	// Interleave draft-flow button presses and plain text from one owner,
	// as a single getUpdates batch dispatched in parallel would.
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			b.Handle(ctx, msg(BtnNewNote))
		}()
		go func() {
			defer wg.Done()
			b.Handle(ctx, msg("some content"))
		}()
	}
	wg.Wait()
}

func TestSearchCommand_QueryTooLong(t *testing.T) {
	b, st := newTestBot()
	st.seed(note.Note{OwnerID: owner, Content: "x", Tags: []string{"work"}, CreatedAt: time.Now()})

	r := b.Handle(context.Background(), msg("/search "+strings.Repeat("q", 101)))

	assert.Contains(t, r.Text, "too long")
}

func TestDraftFlow_SaveFailureKeepsDraft(t *testing.T) {
	b, st := newTestBot()
	ctx := context.Background()

	b.Handle(ctx, msg(BtnNewNote))
	b.Handle(ctx, msg("keep me"))

	st.failWith = errors.New("connection refused")
	r := b.Handle(ctx, msg(BtnSave))
	assert.Equal(t, genericErrMsg, r.Text)
	assert.Empty(t, st.notes)

	// The draft survived the failed save and can be retried.
	st.failWith = nil
	r = b.Handle(ctx, msg(BtnSave))
	assert.Contains(t, r.Text, "saved successfully")
	require.Len(t, st.notes, 1)
	assert.Equal(t, "keep me", st.notes[0].Content)
}

func TestUnknownCommand(t *testing.T) {
	b, _ := newTestBot()

	r := b.Handle(context.Background(), msg("/frobnicate"))

	assert.Contains(t, r.Text, "Unknown command")
}

func TestUnknownCallback(t *testing.T) {
	b, _ := newTestBot()

	r := b.Handle(context.Background(), cb("bogus_action"))

	assert.Equal(t, "Unknown action", r.Toast)
}
