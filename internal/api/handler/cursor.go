package handler

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// JobCursor marks a keyset position in the newest-first job listing
type JobCursor struct {
	CreatedAt time.Time
	ID        int64
}

// DecodeJobCursor parses an opaque cursor from a list request. An empty
// string is a valid "first page" cursor and decodes to nil.
func DecodeJobCursor(cursorStr string) (*JobCursor, error) {
	if cursorStr == "" {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(cursorStr)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(string(decoded), "|")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid cursor format")
	}

	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp in cursor: %w", err)
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid job id in cursor: %w", err)
	}

	return &JobCursor{
		CreatedAt: time.Unix(0, nanos).UTC(),
		ID:        id,
	}, nil
}

// EncodeJobCursor renders a cursor as an opaque base64 token
func EncodeJobCursor(cursor *JobCursor) string {
	cs := fmt.Sprintf("%d|%d", cursor.CreatedAt.UnixNano(), cursor.ID)
	return base64.StdEncoding.EncodeToString([]byte(cs))
}
