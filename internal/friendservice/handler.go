package friendservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sushihentaime/blogmate/internal/common"
	"github.com/sushihentaime/blogmate/internal/userservice"
)

func NewFriendService(db *sql.DB) *FriendService {
	return &FriendService{m: newFriendModel(db)}
}

// SendRequest creates a pending friend request from the actor to the
// given user. At most one pending request may exist between two users in
// either direction, and friends cannot be re-requested.
func (s *FriendService) SendRequest(ctx context.Context, actor *userservice.User, receiverID int) (*FriendRequest, error) {
	if actor == nil {
		return nil, ErrNotPermitted
	}

	v := common.NewValidator()
	validateUserID(v, receiverID, "receiver_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if receiverID == actor.ID {
		return nil, ErrSelfRequest
	}

	if _, err := s.m.acceptedBetween(ctx, actor.ID, receiverID); err == nil {
		return nil, ErrAlreadyFriends
	} else if !errors.Is(err, ErrFriendshipNotFound) {
		return nil, err
	}

	req := &FriendRequest{SenderID: actor.ID, ReceiverID: receiverID, SenderUsername: actor.Username}
	if err := s.m.insertRequest(ctx, req); err != nil {
		return nil, err
	}

	return req, nil
}

type RespondAction string

const (
	ActionAccept RespondAction = "accept"
	ActionReject RespondAction = "reject"
)

// Respond accepts or rejects a pending request. Only the receiver may
// respond; both outcomes are terminal.
func (s *FriendService) Respond(ctx context.Context, actor *userservice.User, requestID int, action RespondAction) (*FriendRequest, error) {
	if actor == nil {
		return nil, ErrNotPermitted
	}

	v := common.NewValidator()
	validateUserID(v, requestID, "request_id")
	v.Check(action == ActionAccept || action == ActionReject, "action", "must be either accept or reject")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	req, err := s.m.getRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.ReceiverID != actor.ID {
		return nil, ErrNotPermitted
	}

	to := StatusRejected
	if action == ActionAccept {
		to = StatusAccepted
	}

	if err := s.m.updateStatus(ctx, req.ID, StatusPending, to); err != nil {
		return nil, err
	}

	req.Status = to
	return req, nil
}

// Cancel withdraws a pending request. Only the sender may cancel.
func (s *FriendService) Cancel(ctx context.Context, actor *userservice.User, requestID int) error {
	if actor == nil {
		return ErrNotPermitted
	}

	v := common.NewValidator()
	validateUserID(v, requestID, "request_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	req, err := s.m.getRequestByID(ctx, requestID)
	if err != nil {
		return err
	}

	if req.SenderID != actor.ID {
		return ErrNotPermitted
	}

	return s.m.updateStatus(ctx, req.ID, StatusPending, StatusCancelled)
}

// Unfriend dissolves an accepted friendship between the actor and the
// given user, regardless of who originally sent the request.
func (s *FriendService) Unfriend(ctx context.Context, actor *userservice.User, userID int) error {
	if actor == nil {
		return ErrNotPermitted
	}

	v := common.NewValidator()
	validateUserID(v, userID, "user_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	req, err := s.m.acceptedBetween(ctx, actor.ID, userID)
	if err != nil {
		return err
	}

	if err := s.m.updateStatus(ctx, req.ID, StatusAccepted, StatusCancelled); err != nil {
		// raced with another unfriend of the same pair
		if errors.Is(err, ErrNotPending) {
			return ErrFriendshipNotFound
		}
		return err
	}

	return nil
}

// ListFriends returns the actor's friends ordered by username.
func (s *FriendService) ListFriends(ctx context.Context, actor *userservice.User, limit, offset int) ([]Friend, error) {
	if actor == nil {
		return nil, ErrNotPermitted
	}

	limit, offset = normalizePage(limit, offset)
	return s.m.listFriends(ctx, actor.ID, limit, offset)
}

// ListIncoming returns requests sent to the actor in the given status,
// newest first. An empty status means pending.
func (s *FriendService) ListIncoming(ctx context.Context, actor *userservice.User, status Status, limit, offset int) ([]FriendRequest, error) {
	if actor == nil {
		return nil, ErrNotPermitted
	}

	status, err := normalizeStatus(status)
	if err != nil {
		return nil, err
	}

	limit, offset = normalizePage(limit, offset)
	return s.m.listIncoming(ctx, actor.ID, status, limit, offset)
}

// ListOutgoing returns requests sent by the actor in the given status,
// newest first. An empty status means pending.
func (s *FriendService) ListOutgoing(ctx context.Context, actor *userservice.User, status Status, limit, offset int) ([]FriendRequest, error) {
	if actor == nil {
		return nil, ErrNotPermitted
	}

	status, err := normalizeStatus(status)
	if err != nil {
		return nil, err
	}

	limit, offset = normalizePage(limit, offset)
	return s.m.listOutgoing(ctx, actor.ID, status, limit, offset)
}

func normalizeStatus(status Status) (Status, error) {
	if status == "" {
		return StatusPending, nil
	}

	v := common.NewValidator()
	v.Check(status.Valid(), "status", "must be one of pending, accepted, rejected, cancelled")
	if !v.Valid() {
		return "", v.ValidationError()
	}

	return status, nil
}

func validateUserID(v *common.Validator, id int, name string) {
	v.Check(id > 0, name, "must be greater than zero")
}

func normalizePage(limit, offset int) (int, int) {
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
