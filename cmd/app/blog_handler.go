package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sushihentaime/blogmate/internal/blogservice"
	"github.com/sushihentaime/blogmate/internal/common"
)

func (app *application) createBlogHandler(w http.ResponseWriter, r *http.Request) {
	var input blogservice.CreateBlogRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	blog, err := app.blogService.CreateBlog(r.Context(), app.actingUser(r), &input)
	if err != nil {
		app.blogErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"blog": blog}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getBlogHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	blog, err := app.blogService.GetBlog(r.Context(), app.actingUser(r), id)
	if err != nil {
		app.blogErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"blog": blog}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getBlogsHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := app.readLimitOffsetParams(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	filter := blogservice.BlogFilter{
		Search: r.URL.Query().Get("search"),
		SortBy: blogservice.SortBy(r.URL.Query().Get("sort")),
		Limit:  limit,
		Offset: offset,
	}

	blogs, err := app.blogService.GetBlogs(r.Context(), app.actingUser(r), filter)
	if err != nil {
		app.blogErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"blogs": blogs}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getBlogsByUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	blogs, err := app.blogService.GetBlogsByUser(r.Context(), app.actingUser(r), userID)
	if err != nil {
		app.blogErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"blogs": blogs}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) updateBlogHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input blogservice.UpdateBlogRequest
	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	blog, err := app.blogService.UpdateBlog(r.Context(), app.actingUser(r), id, &input)
	if err != nil {
		app.blogErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"blog": blog}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteBlogHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.blogService.DeleteBlog(r.Context(), app.actingUser(r), id)
	if err != nil {
		app.blogErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "blog deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) addCommentHandler(w http.ResponseWriter, r *http.Request) {
	blogID, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input blogservice.AddCommentRequest
	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	comment, err := app.blogService.AddComment(r.Context(), app.actingUser(r), blogID, &input)
	if err != nil {
		app.blogErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"comment": comment}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getCommentsHandler(w http.ResponseWriter, r *http.Request) {
	blogID, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	comments, err := app.blogService.GetComments(r.Context(), app.actingUser(r), blogID)
	if err != nil {
		app.blogErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"comments": comments}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	blogID, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	commentID, err := app.readIDParam(r, "comment_id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.blogService.DeleteComment(r.Context(), app.actingUser(r), blogID, commentID)
	if err != nil {
		app.blogErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "comment deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) reactHandler(w http.ResponseWriter, r *http.Request) {
	blogID, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input blogservice.ReactRequest
	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	reaction, err := app.blogService.React(r.Context(), app.actingUser(r), blogID, &input)
	if err != nil {
		app.blogErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"reaction": reaction}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getReactionsHandler(w http.ResponseWriter, r *http.Request) {
	blogID, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	reactions, err := app.blogService.GetReactions(r.Context(), app.actingUser(r), blogID)
	if err != nil {
		app.blogErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"reactions": reactions}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// removeReactionHandler removes the caller's reaction, or with ?user_id=
// someone else's (admins only).
func (app *application) removeReactionHandler(w http.ResponseWriter, r *http.Request) {
	blogID, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var ofUserID *int
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id < 1 {
			app.badRequestErrorResponse(w, r, errors.New("invalid user_id parameter"))
			return
		}
		ofUserID = &id
	}

	err = app.blogService.RemoveReaction(r.Context(), app.actingUser(r), blogID, ofUserID)
	if err != nil {
		app.blogErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "reaction removed"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) bulkCommentsHandler(w http.ResponseWriter, r *http.Request) {
	ids, err := app.readIDListParam(r, "blog_ids")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	comments, err := app.blogService.BulkComments(r.Context(), app.actingUser(r), ids)
	if err != nil {
		app.blogErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"comments": comments}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) bulkReactionsHandler(w http.ResponseWriter, r *http.Request) {
	ids, err := app.readIDListParam(r, "blog_ids")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	reactions, err := app.blogService.BulkReactions(r.Context(), app.actingUser(r), ids)
	if err != nil {
		app.blogErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"reactions": reactions}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// blogErrorResponse maps blogservice errors onto HTTP statuses.
func (app *application) blogErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, blogservice.ErrRecordNotFound):
		app.notFoundErrorResponse(w, r)
	case errors.Is(err, blogservice.ErrNotPermitted):
		app.forbiddenErrorResponse(w, r)
	case errors.Is(err, blogservice.ErrUserForeignKey):
		app.unAuthorizedErrorResponse(w, r)
	case errors.Is(err, blogservice.ErrInvalidReaction):
		app.badRequestErrorResponse(w, r, err)
	case errors.As(err, &common.ValidationError{}):
		validationErr := err.(common.ValidationError)
		app.failedValidationErrorResponse(w, r, validationErr.Errors)
	default:
		app.serverErrorResponse(w, r, err)
	}
}
