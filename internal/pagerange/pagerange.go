// Package pagerange parses user-entered page selections such as "1-3, 5, 7-9".
package pagerange

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidRange is returned for any malformed or out-of-bounds token.
var ErrInvalidRange = errors.New("invalid page range")

// Parse resolves spec against a document of totalPages pages.
// The result is deduplicated and strictly ascending. Any bad token fails the
// whole parse; no partial results are returned.
func Parse(spec string, totalPages int) ([]int, error) {
	seen := make(map[int]struct{})
	for _, raw := range strings.Split(spec, ",") {
		token := strings.TrimSpace(raw)
		start, end, err := parseToken(token)
		if err != nil {
			return nil, err
		}
		if start < 1 || end > totalPages {
			return nil, fmt.Errorf("%w: %q is outside pages 1-%d", ErrInvalidRange, token, totalPages)
		}
		for p := start; p <= end; p++ {
			seen[p] = struct{}{}
		}
	}

	pages := make([]int, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages, nil
}

// parseToken turns "n" into (n, n) and "a-b" into (a, b).
func parseToken(token string) (int, int, error) {
	if token == "" {
		return 0, 0, fmt.Errorf("%w: empty entry", ErrInvalidRange)
	}

	left, right, isRange := strings.Cut(token, "-")
	if !isRange {
		n, err := parseInt(token)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %q is not a page number", ErrInvalidRange, token)
		}
		return n, n, nil
	}

	a, err := parseInt(strings.TrimSpace(left))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q is not a valid range", ErrInvalidRange, token)
	}
	b, err := parseInt(strings.TrimSpace(right))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q is not a valid range", ErrInvalidRange, token)
	}
	if a > b {
		return 0, 0, fmt.Errorf("%w: %q starts after it ends", ErrInvalidRange, token)
	}
	return a, b, nil
}

// parseInt accepts optional leading '+' like most integer parsers but
// never a sign of '-', which the range syntax reserves.
func parseInt(s string) (int, error) {
	if s == "" || strings.HasPrefix(s, "-") {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(s)
}

// SplitGroups separates a split request into its comma-separated groups.
// Each group is later parsed on its own against the same page count.
func SplitGroups(spec string) []string {
	parts := strings.Split(spec, ",")
	groups := make([]string, len(parts))
	for i, p := range parts {
		groups[i] = strings.TrimSpace(p)
	}
	return groups
}

// Format renders ascending pages compactly, e.g. [1 2 3 5] -> "1-3,5".
func Format(pages []int) string {
	if len(pages) == 0 {
		return ""
	}
	var b strings.Builder
	start, prev := pages[0], pages[0]
	flush := func() {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		if start == prev {
			b.WriteString(strconv.Itoa(start))
		} else {
			fmt.Fprintf(&b, "%d-%d", start, prev)
		}
	}
	for _, p := range pages[1:] {
		if p == prev+1 {
			prev = p
			continue
		}
		flush()
		start, prev = p, p
	}
	flush()
	return b.String()
}
