package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// UserInput is a create request payload. Any subset of the fields may be
// present; missing fields default to empty values.
type UserInput struct {
	Avatar   string
	Name     string
	Headline string
	Tags     []string
	ID       string
}

var (
	errNotScalar = errors.New("expected a string value")
	errNotArray  = errors.New("expected an array of strings")
	errNUL       = errors.New("NUL characters are not allowed")
)

// UnmarshalJSON decodes a payload object, coercing scalar values into strings
// the way a schema-flexible document store would. Unknown fields are ignored.
func (in *UserInput) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	scalars := []struct {
		name string
		dst  *string
	}{
		{"avatar", &in.Avatar},
		{"name", &in.Name},
		{"headline", &in.Headline},
		{"id", &in.ID},
	}
	for _, field := range scalars {
		raw, ok := fields[field.name]
		if !ok {
			continue
		}
		value, err := coerceString(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.dst = value
	}

	if raw, ok := fields["tags"]; ok {
		tags, err := coerceStringList(raw)
		if err != nil {
			return fmt.Errorf("tags: %w", err)
		}
		in.Tags = tags
	}

	return nil
}

// ToUser builds a record from the payload. Tags is never nil.
func (in UserInput) ToUser() User {
	tags := make([]string, len(in.Tags))
	copy(tags, in.Tags)

	return User{
		Avatar:   in.Avatar,
		Name:     in.Name,
		Headline: in.Headline,
		Tags:     tags,
		ID:       in.ID,
	}
}

// DecodeUserInput reads a create payload. An empty body is an empty record.
// Every decoding failure is returned as a *ValidationError.
func DecodeUserInput(r io.Reader) (UserInput, error) {
	var input UserInput

	body, err := io.ReadAll(r)
	if err != nil {
		return input, NewValidationError(err)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return input, nil
	}

	if err := json.Unmarshal(body, &input); err != nil {
		return UserInput{}, NewValidationError(err)
	}

	return input, nil
}

func coerceString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", errNotScalar
	}

	switch raw[0] {
	case 'n':
		return "", nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		// PostgreSQL text cannot hold NUL, so no backend accepts it.
		if strings.ContainsRune(s, 0) {
			return "", errNUL
		}
		return s, nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return "", err
		}
		return fmt.Sprint(b), nil
	case '{', '[':
		return "", errNotScalar
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", errNotScalar
	}

	return n.String(), nil
}

func coerceStringList(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return []string{}, nil
	}
	if len(raw) == 0 || raw[0] != '[' {
		return nil, errNotArray
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	result := make([]string, 0, len(items))
	for i, item := range items {
		if bytes.Equal(bytes.TrimSpace(item), []byte("null")) {
			return nil, fmt.Errorf("element %d: %w", i, errNotScalar)
		}
		value, err := coerceString(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		result = append(result, value)
	}

	return result, nil
}
