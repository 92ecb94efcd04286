// Package pagination implements offset pagination with opaque cursors for
// the list endpoints.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// DefaultLimit is used when no positive limit is requested
const DefaultLimit = 50

// Cursor represents a pagination cursor
type Cursor struct {
	Offset int `json:"off"`
}

// Encode encodes the cursor to a string
func (c *Cursor) Encode() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeCursor decodes a cursor string
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}

	data, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor encoding: %w", err)
	}

	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("invalid cursor format: %w", err)
	}
	if cursor.Offset < 0 {
		return nil, fmt.Errorf("invalid cursor offset %d", cursor.Offset)
	}

	return &cursor, nil
}

// Params contains pagination parameters
type Params struct {
	Limit  int
	Offset int
}

// Normalize applies the default limit, caps it at maxLimit (0 for no
// maximum) and clamps negative offsets.
func Normalize(limit, offset, maxLimit int) Params {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Params{Limit: limit, Offset: offset}
}

// Page is one page of a list response
type Page[T any] struct {
	Data       []T    `json:"data"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// NewPage wraps items fetched with p. A full page gets a cursor to the next one.
func NewPage[T any](items []T, p Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	page := Page[T]{
		Data:   items,
		Limit:  p.Limit,
		Offset: p.Offset,
	}
	if len(items) >= p.Limit {
		next := Cursor{Offset: p.Offset + len(items)}
		page.NextCursor = next.Encode()
	}
	return page
}
