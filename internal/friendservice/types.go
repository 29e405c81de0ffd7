package friendservice

import (
	"database/sql"
	"time"
)

// Status is the lifecycle state of a friend request. pending is the only
// non-terminal state: accepted, rejected, and cancelled requests never
// change again, except that unfriending moves accepted to cancelled.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusAccepted, StatusRejected, StatusCancelled:
		return Status(s), true
	default:
		return "", false
	}
}

func (s Status) Valid() bool {
	_, ok := ParseStatus(string(s))
	return ok
}

type FriendRequest struct {
	ID               int       `json:"id"`
	SenderID         int       `json:"sender_id"`
	ReceiverID       int       `json:"receiver_id"`
	SenderUsername   string    `json:"sender_username,omitempty"`
	ReceiverUsername string    `json:"receiver_username,omitempty"`
	Status           Status    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Friend is the other party of an accepted request.
type Friend struct {
	UserID   int       `json:"user_id"`
	Username string    `json:"username"`
	Since    time.Time `json:"since"`
}

type FriendModel struct {
	db *sql.DB
}

type FriendService struct {
	m *FriendModel
}
