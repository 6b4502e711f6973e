package note

import (
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// maxSearchQueryLen bounds free-form search input.
const maxSearchQueryLen = 100

// Limits holds the configured note bounds.
type Limits struct {
	MaxTitleLen   int
	MaxContentLen int
	MaxTags       int
}

// ValidateNote checks a Draft against the configured limits. The first
// violated rule is reported as a ValidationError.
func ValidateNote(d Draft, lim Limits) error {
	if d.Title != nil {
		if err := validation.Validate(*d.Title, validation.RuneLength(0, lim.MaxTitleLen)); err != nil {
			return validationf("title must be %d characters or less", lim.MaxTitleLen)
		}
	}
	if err := validation.Validate(d.Content, validation.RuneLength(0, lim.MaxContentLen)); err != nil {
		return validationf("content must be %d characters or less", lim.MaxContentLen)
	}
	if len(d.Tags) > lim.MaxTags {
		return validationf("maximum %d tags allowed", lim.MaxTags)
	}
	if strings.TrimSpace(d.Content) == "" {
		return validationf("content cannot be empty")
	}
	return nil
}

// ValidateSearchQuery checks free-form search text.
func ValidateSearchQuery(q string) error {
	if strings.TrimSpace(q) == "" {
		return validationf("search query cannot be empty")
	}
	if err := validation.Validate(q, validation.RuneLength(0, maxSearchQueryLen)); err != nil {
		return validationf("search query is too long (max %d characters)", maxSearchQueryLen)
	}
	return nil
}

// ParseID parses user-supplied note id text.
func ParseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, validationf("invalid note id")
	}
	return id, nil
}
