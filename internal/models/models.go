// Package models holds the data types shared by the transport, service
// and storage layers of the user profiles service.
package models

// TopTagsLimit is the number of groups returned by the tag-frequency aggregation.
const TopTagsLimit = 5

// User is a stored user profile record.
//
// StoreID is assigned by the storage backend on insert. ID is a free-form
// caller-supplied field and carries no uniqueness guarantee.
type User struct {
	StoreID  string   `json:"_id"`
	Avatar   string   `json:"avatar"`
	Name     string   `json:"name"`
	Headline string   `json:"headline"`
	Tags     []string `json:"tags"`
	ID       string   `json:"id"`
}

// TagCount is one group of the tag-frequency aggregation.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// ErrorResponse is the body of every failed HTTP response.
type ErrorResponse struct {
	Error string `json:"error"`
}

const (
	StorageTypeUnknown = iota
	StorageTypeMongoDB
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)
