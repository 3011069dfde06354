package booking

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const correlationSep = "_"

// ParseError reports a correlation id that does not have the
// {externalUserId}_{roomId}_{suffix} shape.
type ParseError struct {
	ID     string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed correlation id %q: %s", e.ID, e.Reason)
}

// Correlation is the decoded payment reference.
type Correlation struct {
	UserExternalID string
	RoomID         int64
	Suffix         string
}

// ParseCorrelationID accepts exactly three non-empty underscore-delimited segments.
func ParseCorrelationID(id string) (Correlation, error) {
	parts := strings.Split(id, correlationSep)
	if len(parts) != 3 {
		return Correlation{}, &ParseError{ID: id, Reason: fmt.Sprintf("expected 3 segments, got %d", len(parts))}
	}
	for i, p := range parts {
		if strings.TrimSpace(p) == "" {
			return Correlation{}, &ParseError{ID: id, Reason: fmt.Sprintf("segment %d is empty", i+1)}
		}
	}

	roomID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || roomID <= 0 {
		return Correlation{}, &ParseError{ID: id, Reason: "room id is not a positive integer"}
	}

	return Correlation{
		UserExternalID: parts[0],
		RoomID:         roomID,
		Suffix:         parts[2],
	}, nil
}

// NewCorrelationID builds a fresh payment reference; every call gets a new suffix.
func NewCorrelationID(externalID string, roomID int64) (string, error) {
	if externalID == "" || strings.Contains(externalID, correlationSep) {
		return "", fmt.Errorf("external id %q cannot be used in a correlation id", externalID)
	}
	if roomID <= 0 {
		return "", fmt.Errorf("room id %d cannot be used in a correlation id", roomID)
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return externalID + correlationSep + strconv.FormatInt(roomID, 10) + correlationSep + suffix, nil
}

func (c Correlation) String() string {
	return c.UserExternalID + correlationSep + strconv.FormatInt(c.RoomID, 10) + correlationSep + c.Suffix
}
