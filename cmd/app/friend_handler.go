package main

import (
	"errors"
	"net/http"

	"github.com/sushihentaime/blogmate/internal/common"
	"github.com/sushihentaime/blogmate/internal/friendservice"
)

type sendFriendRequestRequest struct {
	ReceiverID int `json:"receiver_id"`
}

func (app *application) sendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	var input sendFriendRequestRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	req, err := app.friendService.SendRequest(r.Context(), app.actingUser(r), input.ReceiverID)
	if err != nil {
		app.friendErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"friend_request": req}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type respondFriendRequestRequest struct {
	Action string `json:"action"`
}

func (app *application) respondFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input respondFriendRequestRequest
	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	req, err := app.friendService.Respond(r.Context(), app.actingUser(r), id, friendservice.RespondAction(input.Action))
	if err != nil {
		app.friendErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"friend_request": req}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) cancelFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.friendService.Cancel(r.Context(), app.actingUser(r), id)
	if err != nil {
		app.friendErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "friend request cancelled"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) unfriendHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.friendService.Unfriend(r.Context(), app.actingUser(r), id)
	if err != nil {
		app.friendErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "friend removed"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listFriendsHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := app.readLimitOffsetParams(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	friends, err := app.friendService.ListFriends(r.Context(), app.actingUser(r), limit, offset)
	if err != nil {
		app.friendErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"friends": friends}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listIncomingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := app.readLimitOffsetParams(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	status := friendservice.Status(r.URL.Query().Get("status"))
	requests, err := app.friendService.ListIncoming(r.Context(), app.actingUser(r), status, limit, offset)
	if err != nil {
		app.friendErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"friend_requests": requests}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listOutgoingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := app.readLimitOffsetParams(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	status := friendservice.Status(r.URL.Query().Get("status"))
	requests, err := app.friendService.ListOutgoing(r.Context(), app.actingUser(r), status, limit, offset)
	if err != nil {
		app.friendErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"friend_requests": requests}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// friendErrorResponse maps friendservice errors onto HTTP statuses.
func (app *application) friendErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, friendservice.ErrRequestNotFound),
		errors.Is(err, friendservice.ErrUserNotFound),
		errors.Is(err, friendservice.ErrFriendshipNotFound):
		app.notFoundErrorResponse(w, r)
	case errors.Is(err, friendservice.ErrDuplicateRequest),
		errors.Is(err, friendservice.ErrAlreadyFriends),
		errors.Is(err, friendservice.ErrNotPending):
		app.conflictErrorResponse(w, r, err.Error())
	case errors.Is(err, friendservice.ErrSelfRequest):
		app.badRequestErrorResponse(w, r, err)
	case errors.Is(err, friendservice.ErrNotPermitted):
		app.forbiddenErrorResponse(w, r)
	case errors.As(err, &common.ValidationError{}):
		validationErr := err.(common.ValidationError)
		app.failedValidationErrorResponse(w, r, validationErr.Errors)
	default:
		app.serverErrorResponse(w, r, err)
	}
}
