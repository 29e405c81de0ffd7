package main

import (
	"errors"
	"net/http"

	"github.com/sushihentaime/blogmate/internal/common"
	"github.com/sushihentaime/blogmate/internal/userservice"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (app *application) signupHandler(w http.ResponseWriter, r *http.Request) {
	var input signupRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	role := userservice.RoleReader
	if input.Role != "" {
		parsed, ok := userservice.ParseRole(input.Role)
		if !ok {
			app.failedValidationErrorResponse(w, r, map[string]string{"role": "must be one of reader, writer, or admin"})
			return
		}
		role = parsed
	}

	user, err := app.userService.Register(r.Context(), input.Username, input.Email, input.Password, role)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrDuplicateEmail):
			app.conflictErrorResponse(w, r, "a user with this email address already exists")
		case errors.Is(err, userservice.ErrDuplicateUsername):
			app.conflictErrorResponse(w, r, "this username is already taken")
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"user": user}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var input loginRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	tokens, err := app.userService.Login(r.Context(), input.Username, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrAuthenticationFailure):
			app.invalidCredentialsErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"tokens": tokens}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var input refreshTokenRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	token, err := app.userService.Refresh(r.Context(), input.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrAuthenticationFailure):
			app.invalidAuthenticationTokenResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"access_token": token}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) verifyEmailHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	err := app.userService.VerifyEmail(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "email address verified"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type requestPasswordResetRequest struct {
	Email string `json:"email"`
}

func (app *application) requestPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	var input requestPasswordResetRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.userService.RequestPasswordReset(r.Context(), input.Email)
	if err != nil {
		switch {
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	// same response whether or not the email exists
	err = app.writeJSON(w, http.StatusAccepted, envelope{"message": "if the address exists, a reset email has been sent"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (app *application) resetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var input resetPasswordRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.userService.ResetPassword(r.Context(), input.Token, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "password updated"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
