package session

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	// snippetContext is how many bytes of surrounding text a snippet keeps
	// on each side of a match.
	snippetContext = 50

	// maxSnippetsPerSession caps how many matching turns are reported for
	// a single session.
	maxSnippetsPerSession = 3
)

// Match is one session with at least one turn containing the query.
type Match struct {
	ID       string
	Date     time.Time
	Snippets []string
}

// Search performs a case-insensitive substring search over the content of
// every turn of every stored session. Each matching session contributes up
// to three snippets, one per matching turn, built around the first match in
// that turn. Sessions that fail to deserialize are skipped so one corrupt
// file cannot abort a search spanning many.
func (st *Store) Search(query string) []Match {
	if query == "" {
		return nil
	}
	needle := strings.ToLower(query)

	var out []Match
	for _, sum := range st.List() {
		s, err := st.Load(sum.ID)
		if err != nil {
			continue
		}
		var snippets []string
		for _, turn := range s.Turns {
			if len(snippets) >= maxSnippetsPerSession {
				break
			}
			if snip, ok := snippet(turn.Content, needle); ok {
				snippets = append(snippets, snip)
			}
		}
		if len(snippets) > 0 {
			out = append(out, Match{ID: s.ID, Date: s.Date, Snippets: snippets})
		}
	}
	return out
}

// snippet extracts the context around the first case-insensitive
// occurrence of needle in content. needle must already be lowercased.
// Truncated sides are marked with an ellipsis.
func snippet(content, needle string) (string, bool) {
	idx, matchLen := foldIndex(content, needle)
	if idx < 0 {
		return "", false
	}
	start := idx - snippetContext
	if start < 0 {
		start = 0
	}
	for start > 0 && !utf8.RuneStart(content[start]) {
		start--
	}
	end := idx + matchLen + snippetContext
	if end > len(content) {
		end = len(content)
	}
	for end < len(content) && !utf8.RuneStart(content[end]) {
		end++
	}
	snip := content[start:end]
	if start > 0 {
		snip = "..." + snip
	}
	if end < len(content) {
		snip = snip + "..."
	}
	return snip, true
}

// foldIndex locates the first position where lowercasing content matches
// needle. It returns the byte offset and byte length of the match in
// content itself. Case mapping can change byte lengths, so an index found
// in a lowercased copy would not be valid for slicing the original.
func foldIndex(content, needle string) (int, int) {
	for i := 0; i < len(content); {
		if n, ok := foldPrefix(content[i:], needle); ok {
			return i, n
		}
		_, size := utf8.DecodeRuneInString(content[i:])
		i += size
	}
	return -1, 0
}

// foldPrefix reports whether lowercasing s starts with needle, and how
// many bytes of s the match consumes.
func foldPrefix(s, needle string) (int, bool) {
	consumed := 0
	for _, nr := range needle {
		sr, size := utf8.DecodeRuneInString(s[consumed:])
		if size == 0 || unicode.ToLower(sr) != nr {
			return 0, false
		}
		consumed += size
	}
	return consumed, true
}
