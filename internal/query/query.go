// Package query implements the matching and tag aggregation rules shared by
// all storage backends.
//
// A search term is always treated as a literal substring: it is matched
// unanchored and case-insensitively, and never interpreted as pattern syntax.
package query

import (
	"regexp"
	"sort"

	"github.com/patric-chuzhbe/userprofiles/internal/models"
)

// Matcher tests strings for a case-insensitive literal substring.
type Matcher struct {
	term string
	re   *regexp.Regexp
}

// NewMatcher returns a Matcher for term. The empty term matches everything.
func NewMatcher(term string) *Matcher {
	return &Matcher{
		term: term,
		re:   regexp.MustCompile("(?i)" + regexp.QuoteMeta(term)),
	}
}

// Term returns the raw search term.
func (m *Matcher) Term() string {
	return m.term
}

// Pattern returns the term escaped for use inside a regular expression.
func (m *Matcher) Pattern() string {
	return regexp.QuoteMeta(m.term)
}

// MatchAll reports whether the matcher accepts every record.
func (m *Matcher) MatchAll() bool {
	return m.term == ""
}

// MatchString reports whether s contains the term.
func (m *Matcher) MatchString(s string) bool {
	return m.re.MatchString(s)
}

// MatchAny reports whether at least one of values contains the term.
func (m *Matcher) MatchAny(values []string) bool {
	for _, value := range values {
		if m.MatchString(value) {
			return true
		}
	}
	return false
}

// MatchesTag reports whether a user belongs to the tag lookup result.
func (m *Matcher) MatchesTag(usr models.User) bool {
	return m.MatchAll() || m.MatchAny(usr.Tags)
}

// MatchesSearch reports whether a user belongs to the search result:
// the term is found in the name, the headline or any tag.
func (m *Matcher) MatchesSearch(usr models.User) bool {
	return m.MatchAll() ||
		m.MatchString(usr.Name) ||
		m.MatchString(usr.Headline) ||
		m.MatchAny(usr.Tags)
}

// TopTags counts every tag occurrence across users and returns at most limit
// groups ordered by count descending, then by tag in byte order.
// A tag repeated within one record is counted once per occurrence.
func TopTags(users []models.User, limit int) []models.TagCount {
	counts := map[string]int64{}
	for _, usr := range users {
		for _, tag := range usr.Tags {
			counts[tag]++
		}
	}

	result := make([]models.TagCount, 0, len(counts))
	for tag, count := range counts {
		result = append(result, models.TagCount{Tag: tag, Count: count})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Tag < result[j].Tag
	})

	if limit >= 0 && len(result) > limit {
		result = result[:limit]
	}

	return result
}
