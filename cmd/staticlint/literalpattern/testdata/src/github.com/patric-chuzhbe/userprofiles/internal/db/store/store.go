package store

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/patric-chuzhbe/userprofiles/internal/query"
)

func escaped(term string, matcher *query.Matcher) []primitive.Regex {
	return []primitive.Regex{
		{Pattern: regexp.QuoteMeta(term), Options: "i"},
		{Pattern: (regexp.QuoteMeta(term))},
		{Pattern: matcher.Pattern(), Options: "i"},
		{Pattern: "plain"},
		{Options: "i"},
		{regexp.QuoteMeta(term), "i"},
	}
}

func unescaped(term string, matcher *query.Matcher) []primitive.Regex {
	return []primitive.Regex{
		{Pattern: term, Options: "i"},  // want `primitive.Regex pattern must be escaped with regexp.QuoteMeta`
		{Pattern: matcher.Term()},      // want `primitive.Regex pattern must be escaped with regexp.QuoteMeta`
		{Pattern: query.Pattern(term)}, // want `primitive.Regex pattern must be escaped with regexp.QuoteMeta`
		{Pattern: "^a.*"},              // want `primitive.Regex pattern must be escaped with regexp.QuoteMeta`
		{term, "i"},                    // want `primitive.Regex pattern must be escaped with regexp.QuoteMeta`
	}
}

func pointer(term string) *primitive.Regex {
	return &primitive.Regex{Pattern: "(?i)" + term} // want `primitive.Regex pattern must be escaped with regexp.QuoteMeta`
}
