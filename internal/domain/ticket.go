package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for maintenance tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusClosed     TicketStatus = "closed"
)

// ParseTicketStatus validates a raw status value.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	switch TicketStatus(raw) {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return TicketStatus(raw), nil
	default:
		return "", fmt.Errorf("invalid ticket status %q", raw)
	}
}

// Ticket is the aggregate for maintenance requests.
type Ticket struct {
	ID          int64
	UserID      int64
	Description string
	Location    string
	Category    string
	Comments    string
	ImagePaths  []string
	Status      TicketStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TicketWithUser is an admin-listing row joined with the owning account.
type TicketWithUser struct {
	Ticket
	Username string
	Email    string
}

// EncodeImagePaths serializes the stored-file reference list for persistence.
func EncodeImagePaths(paths []string) string {
	if len(paths) == 0 {
		return "[]"
	}
	encoded, err := json.Marshal(paths)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

// DecodeImagePaths parses the stored reference list. Malformed data
// degrades to an empty list instead of failing the read.
func DecodeImagePaths(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var paths []string
	if err := json.Unmarshal([]byte(raw), &paths); err != nil {
		return []string{}
	}
	if paths == nil {
		return []string{}
	}
	return paths
}
