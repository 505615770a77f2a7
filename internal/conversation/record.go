package conversation

import (
	"context"
	"errors"
)

// Role tags who authored a record.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ErrUnknownRole is returned when a stored record carries a role the bot never writes.
var ErrUnknownRole = errors.New("unknown role")

// Record is a single message in a channel's history.
type Record struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserRecord builds a record authored by a chat user.
func UserRecord(content string) Record {
	return Record{Role: RoleUser, Content: content}
}

// AssistantRecord builds a record authored by the bot.
func AssistantRecord(content string) Record {
	return Record{Role: RoleAssistant, Content: content}
}

// ParseRole validates a role read back from storage.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAssistant:
		return Role(s), nil
	}
	return "", ErrUnknownRole
}

// Store keeps a length-bounded history per channel.
type Store interface {
	// History returns the channel's records oldest first, empty when absent.
	History(ctx context.Context, channelID string) ([]Record, error)
	// Append adds rec and drops the oldest records beyond the cap.
	Append(ctx context.Context, channelID string, rec Record) error
	// Clear forgets the channel.
	Clear(ctx context.Context, channelID string) error
}

// Trim returns the last limit records. A non-positive limit keeps everything.
func Trim(records []Record, limit int) []Record {
	if limit > 0 && len(records) > limit {
		return records[len(records)-limit:]
	}
	return records
}
