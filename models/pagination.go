package models

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// Composite cursors carry "<created_at>|<id>" base64-encoded, so rows
// sharing a created_at timestamp still page deterministically.
const cursorSeparator = "|"

type PageInfo struct {
	StartCursor string `json:"startCursor"`
	EndCursor   string `json:"endCursor"`
	HasNextPage *bool  `json:"hasNextPage,omitempty"`
}

func EncodeCursor(cursor string) string {
	return base64.StdEncoding.EncodeToString([]byte(cursor))
}

func DecodeCursor(cursor *string) (string, error) {
	if cursor == nil {
		return "", nil
	}
	b, err := base64.StdEncoding.DecodeString(*cursor)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func EncodeCompositeCursor(createdAt string, id int) string {
	return EncodeCursor(createdAt + cursorSeparator + strconv.Itoa(id))
}

// DecodeCompositeCursor returns ("", 0) for anything malformed; callers
// treat that as "no cursor" and serve the first page.
func DecodeCompositeCursor(cursor *string) (string, int) {
	if cursor == nil || *cursor == "" {
		return "", 0
	}
	decoded, err := DecodeCursor(cursor)
	if err != nil {
		return "", 0
	}
	createdAt, rawId, found := strings.Cut(decoded, cursorSeparator)
	if !found {
		return "", 0
	}
	id, err := strconv.Atoi(rawId)
	if err != nil {
		return "", 0
	}
	return createdAt, id
}
