package query

import "regexp"

type Matcher struct {
	term string
}

func (m *Matcher) Term() string {
	return m.term
}

func (m *Matcher) Pattern() string {
	return regexp.QuoteMeta(m.term)
}

func Pattern(term string) string {
	return term
}
