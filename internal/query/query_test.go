package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/patric-chuzhbe/userprofiles/internal/models"
)

func TestMatcher(t *testing.T) {
	tests := []struct {
		name  string
		term  string
		value string
		want  bool
	}{
		{name: "exact", term: "go", value: "go", want: true},
		{name: "case insensitive", term: "GO", value: "golang", want: true},
		{name: "unanchored", term: "lan", value: "golang", want: true},
		{name: "no match", term: "rust", value: "golang", want: false},
		{name: "empty term", term: "", value: "", want: true},
		{name: "dot is literal", term: "a.c", value: "abc", want: false},
		{name: "dot matches dot", term: "a.c", value: "xa.cx", want: true},
		{name: "star is literal", term: "c++", value: "C++ developer", want: true},
		{name: "unbalanced group", term: "(", value: "smile :(", want: true},
		{name: "anchors are literal", term: "^go$", value: "go", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewMatcher(tt.term).MatchString(tt.value))
		})
	}
}

func TestMatcherPattern(t *testing.T) {
	m := NewMatcher("a.b*(c)")
	assert.Equal(t, `a\.b\*\(c\)`, m.Pattern())
	assert.Equal(t, "a.b*(c)", m.Term())
	assert.False(t, m.MatchAll())
	assert.True(t, NewMatcher("").MatchAll())
}

func TestMatchesSearch(t *testing.T) {
	alice := models.User{Name: "Alice", Headline: "Backend engineer", Tags: []string{"go", "rust"}}
	bob := models.User{Name: "Bob", Headline: "Frontend", Tags: []string{"js"}}
	empty := models.User{Tags: []string{}}

	assert.True(t, NewMatcher("ali").MatchesSearch(alice))
	assert.False(t, NewMatcher("ali").MatchesSearch(bob))
	assert.True(t, NewMatcher("ENGINEER").MatchesSearch(alice))
	assert.True(t, NewMatcher("JS").MatchesSearch(bob))
	assert.True(t, NewMatcher("").MatchesSearch(empty))
	assert.False(t, NewMatcher("x").MatchesSearch(empty))
}

func TestMatchesTag(t *testing.T) {
	alice := models.User{Name: "Alice", Tags: []string{"golang"}}
	untagged := models.User{Name: "Go Gopher", Tags: []string{}}

	assert.True(t, NewMatcher("GO").MatchesTag(alice))
	assert.True(t, NewMatcher("go").MatchesTag(alice))
	assert.False(t, NewMatcher("go").MatchesTag(untagged))
	assert.True(t, NewMatcher("").MatchesTag(untagged))
}

func TestTopTags(t *testing.T) {
	t.Run("scenario from two users", func(t *testing.T) {
		users := []models.User{
			{Name: "Alice", Tags: []string{"go", "rust"}},
			{Name: "Bob", Tags: []string{"go"}},
		}
		assert.Equal(
			t,
			[]models.TagCount{{Tag: "go", Count: 2}, {Tag: "rust", Count: 1}},
			TopTags(users, models.TopTagsLimit),
		)
	})

	t.Run("limit and tie-break", func(t *testing.T) {
		users := []models.User{
			{Tags: []string{"f", "e", "d", "c", "b", "a"}},
			{Tags: []string{"z"}},
			{Tags: []string{"z"}},
			{Tags: nil},
		}
		got := TopTags(users, 5)
		assert.Equal(
			t,
			[]models.TagCount{
				{Tag: "z", Count: 2},
				{Tag: "a", Count: 1},
				{Tag: "b", Count: 1},
				{Tag: "c", Count: 1},
				{Tag: "d", Count: 1},
			},
			got,
		)
	})

	t.Run("duplicates within one record count per occurrence", func(t *testing.T) {
		users := []models.User{{Tags: []string{"go", "go", "go"}}}
		assert.Equal(t, []models.TagCount{{Tag: "go", Count: 3}}, TopTags(users, 5))
	})

	t.Run("no tags", func(t *testing.T) {
		assert.Empty(t, TopTags([]models.User{{Name: "x"}}, 5))
	})

	t.Run("sum of counts does not exceed occurrences", func(t *testing.T) {
		users := []models.User{
			{Tags: []string{"a", "b", "c"}},
			{Tags: []string{"d", "e", "f", "g"}},
		}
		var sum int64
		for _, tc := range TopTags(users, 5) {
			sum += tc.Count
		}
		assert.LessOrEqual(t, sum, int64(7))
	})
}
