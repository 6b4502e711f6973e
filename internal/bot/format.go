package bot

import (
	"fmt"
	"strings"

	"notesbot/internal/note"
)

const timeLayout = "02/01/2006 15:04"

func formatNote(n note.Note) string {
	var b strings.Builder
	if n.Pinned {
		b.WriteString("📌 ")
	}
	fmt.Fprintf(&b, "ID: %d\n", n.ID)
	if n.Title != nil && *n.Title != "" {
		fmt.Fprintf(&b, "*%s*\n", *n.Title)
	}
	b.WriteString(n.Content)
	if len(n.Tags) > 0 {
		tags := make([]string, len(n.Tags))
		for i, t := range n.Tags {
			tags[i] = "#" + t
		}
		fmt.Fprintf(&b, "\nTags: %s", strings.Join(tags, " "))
	}
	fmt.Fprintf(&b, "\n📅 %s", n.CreatedAt.Format(timeLayout))
	return b.String()
}

func formatNoteList(notes []note.Note) string {
	parts := make([]string, len(notes))
	for i, n := range notes {
		parts[i] = formatNote(n)
	}
	return strings.Join(parts, "\n\n")
}

func formatTagCounts(tags []note.TagCount) string {
	parts := make([]string, len(tags))
	for i, tc := range tags {
		parts[i] = fmt.Sprintf("#%s (%d)", tc.Tag, tc.Count)
	}
	return "🏷️ Your Tags:\n\n" + strings.Join(parts, " ")
}

const welcomeMessage = `Welcome to Notes Bot! 📝

Choose an option from the menu below:
• New Note - Create a new note
• List Notes - View all your notes
• Search Notes - Search through your notes
• View Tags - See all your tags
• Help - Show help message`

const helpMessage = `📝 Notes Bot Commands:

• Use the keyboard buttons below for easy navigation
• Or use these commands:

/new <title> | <content> - Create new note
/list - View all notes
/delete <note_id> - Delete note
/pin <note_id> - Pin/unpin note
/search <tags> - Search by tags
/help - Show this message

Tips:
- Add tags using # (e.g., #work #urgent)
- Separate title and content with |
- Pin important notes for quick access`

// genericErrMsg is the only thing the user sees for store failures; the
// detail goes to the log.
const genericErrMsg = "Sorry, something went wrong. Please try again."
