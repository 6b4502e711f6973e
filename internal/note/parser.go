package note

import "strings"

// ParseInput turns one raw message into a Draft. Pure and deterministic:
// hashtag tokens become lowercase deduplicated tags, the remainder is split
// on the first "|" into title and content. Emptiness is not checked here,
// that is the validator's job.
func ParseInput(raw string) Draft {
	var (
		tags []string
		seen = map[string]struct{}{}
		rest []string
	)

	for _, tok := range strings.Fields(raw) {
		if !strings.HasPrefix(tok, "#") {
			rest = append(rest, tok)
			continue
		}
		t := strings.ToLower(tok[1:])
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}

	working := strings.Join(rest, " ")

	var title *string
	content := working
	if left, right, ok := strings.Cut(working, "|"); ok {
		if t := strings.TrimSpace(left); t != "" {
			title = &t
		}
		content = strings.TrimSpace(right)
	}

	return Draft{Title: title, Content: content, Tags: tags}
}

// NormalizeTags strips a leading "#" from each token and lowercases it,
// dropping empties and duplicates. Used for tag-search input.
func NormalizeTags(tokens []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		t := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tok), "#"))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
