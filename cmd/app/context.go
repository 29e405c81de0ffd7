package main

import (
	"context"
	"net/http"

	"github.com/sushihentaime/blogmate/internal/userservice"
)

type contextKey string

const userContextKey = contextKey("user")

func (app *application) createUserContext(r *http.Request, user *userservice.User) *http.Request {
	ctx := context.WithValue(r.Context(), userContextKey, user)
	return r.WithContext(ctx)
}

func (app *application) getUserContext(r *http.Request) *userservice.User {
	user, ok := r.Context().Value(userContextKey).(*userservice.User)
	if !ok {
		return nil
	}
	return user
}

// actingUser resolves the context user into what the services expect:
// nil for anonymous requests, the user otherwise.
func (app *application) actingUser(r *http.Request) *userservice.User {
	user := app.getUserContext(r)
	if user == nil || user.IsAnonymous() {
		return nil
	}
	return user
}
