package friendservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

var (
	ErrRequestNotFound    = errors.New("friend request not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateRequest   = errors.New("a pending request already exists between these users")
	ErrAlreadyFriends     = errors.New("users are already friends")
	ErrFriendshipNotFound = errors.New("friendship not found")
	ErrNotPending         = errors.New("request is no longer pending")
	ErrNotPermitted       = errors.New("not permitted")
	ErrSelfRequest        = errors.New("cannot send a friend request to yourself")
)

func newFriendModel(db *sql.DB) *FriendModel {
	return &FriendModel{db: db}
}

func pqErrorConstraint(err error, code pq.ErrorCode, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == code && pqErr.Constraint == name
	}
	return false
}

// insertRequest relies on the partial unique indexes over the normalized
// user pair to close the race between two users sending requests to each
// other at the same time: whichever insert lands second fails.
func (m *FriendModel) insertRequest(ctx context.Context, req *FriendRequest) error {
	query := `
		INSERT INTO user_requests (sender_id, receiver_id)
		VALUES ($1, $2)
		RETURNING id, status, created_at, updated_at`

	err := m.db.QueryRowContext(ctx, query, req.SenderID, req.ReceiverID).Scan(&req.ID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		switch {
		case pqErrorConstraint(err, "23505", "user_requests_pending_pair_idx"):
			return ErrDuplicateRequest
		case pqErrorConstraint(err, "23505", "user_requests_accepted_pair_idx"):
			return ErrAlreadyFriends
		case pqErrorConstraint(err, "23503", "user_requests_sender_id_fkey"),
			pqErrorConstraint(err, "23503", "user_requests_receiver_id_fkey"):
			return ErrUserNotFound
		default:
			return err
		}
	}

	return nil
}

func (m *FriendModel) getRequestByID(ctx context.Context, id int) (*FriendRequest, error) {
	query := `
		SELECT r.id, r.sender_id, r.receiver_id, s.username, rc.username, r.status, r.created_at, r.updated_at
		FROM user_requests r
		JOIN users s ON r.sender_id = s.id
		JOIN users rc ON r.receiver_id = rc.id
		WHERE r.id = $1`

	var req FriendRequest
	err := m.db.QueryRowContext(ctx, query, id).Scan(&req.ID, &req.SenderID, &req.ReceiverID, &req.SenderUsername, &req.ReceiverUsername, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRequestNotFound
		default:
			return nil, err
		}
	}

	return &req, nil
}

// acceptedBetween finds the accepted request joining two users in either
// direction.
func (m *FriendModel) acceptedBetween(ctx context.Context, userA, userB int) (*FriendRequest, error) {
	query := `
		SELECT id, sender_id, receiver_id, status, created_at, updated_at
		FROM user_requests
		WHERE status = 'accepted'
		AND ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))`

	var req FriendRequest
	err := m.db.QueryRowContext(ctx, query, userA, userB).Scan(&req.ID, &req.SenderID, &req.ReceiverID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrFriendshipNotFound
		default:
			return nil, err
		}
	}

	return &req, nil
}

// updateStatus moves a request out of the pending state. The status
// predicate in the WHERE clause makes the transition atomic: a request
// that was resolved concurrently affects zero rows.
func (m *FriendModel) updateStatus(ctx context.Context, id int, from, to Status) error {
	query := `
		UPDATE user_requests
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`

	res, err := m.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		if pqErrorConstraint(err, "23505", "user_requests_accepted_pair_idx") {
			return ErrAlreadyFriends
		}
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotPending
	}

	return nil
}

func (m *FriendModel) listRequests(ctx context.Context, column string, userID int, status Status, limit, offset int) ([]FriendRequest, error) {
	query := `
		SELECT r.id, r.sender_id, r.receiver_id, s.username, rc.username, r.status, r.created_at, r.updated_at
		FROM user_requests r
		JOIN users s ON r.sender_id = s.id
		JOIN users rc ON r.receiver_id = rc.id
		WHERE r.` + column + ` = $1 AND r.status = $2
		ORDER BY r.created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := m.db.QueryContext(ctx, query, userID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []FriendRequest
	for rows.Next() {
		var req FriendRequest
		err := rows.Scan(&req.ID, &req.SenderID, &req.ReceiverID, &req.SenderUsername, &req.ReceiverUsername, &req.Status, &req.CreatedAt, &req.UpdatedAt)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

func (m *FriendModel) listIncoming(ctx context.Context, userID int, status Status, limit, offset int) ([]FriendRequest, error) {
	return m.listRequests(ctx, "receiver_id", userID, status, limit, offset)
}

func (m *FriendModel) listOutgoing(ctx context.Context, userID int, status Status, limit, offset int) ([]FriendRequest, error) {
	return m.listRequests(ctx, "sender_id", userID, status, limit, offset)
}

// listFriends resolves each accepted request to the party that is not
// the given user.
func (m *FriendModel) listFriends(ctx context.Context, userID, limit, offset int) ([]Friend, error) {
	query := `
		SELECT u.id, u.username, r.updated_at
		FROM user_requests r
		JOIN users u ON u.id = CASE WHEN r.sender_id = $1 THEN r.receiver_id ELSE r.sender_id END
		WHERE r.status = 'accepted' AND (r.sender_id = $1 OR r.receiver_id = $1)
		ORDER BY u.username ASC
		LIMIT $2 OFFSET $3`

	rows, err := m.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friends []Friend
	for rows.Next() {
		var f Friend
		if err := rows.Scan(&f.UserID, &f.Username, &f.Since); err != nil {
			return nil, err
		}
		friends = append(friends, f)
	}

	return friends, rows.Err()
}
