package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	svcErr "github.com/oggyb/fittrack/internal/errors"
)

// Cursor is the opaque pagination state we encode/decode.
// Date (YYYY-MM-DD) + ID establish a stable position in a newest-first list.
type Cursor struct {
	Date string `json:"date"`
	ID   uint64 `json:"id"`
}

// Empty reports whether the cursor points at the first page.
func (c Cursor) Empty() bool { return c.Date == "" && c.ID == 0 }

// Encode converts a Cursor into a Base64 string.
func Encode(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Decode parses a Base64 string into a Cursor.
// Empty token → empty cursor (first page).
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}

	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, svcErr.Invalidf("invalid pagination token")
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return Cursor{}, svcErr.Invalidf("invalid pagination token")
	}
	return c, nil
}
