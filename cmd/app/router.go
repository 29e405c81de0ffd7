package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)

	// auth
	router.HandlerFunc(http.MethodPost, "/v1/auth/signup", app.signupHandler)
	router.HandlerFunc(http.MethodPost, "/v1/auth/login", app.loginHandler)
	router.HandlerFunc(http.MethodPost, "/v1/auth/refresh", app.refreshTokenHandler)
	router.HandlerFunc(http.MethodGet, "/v1/auth/verify-email", app.verifyEmailHandler)
	router.HandlerFunc(http.MethodPost, "/v1/auth/password-reset", app.requestPasswordResetHandler)
	router.HandlerFunc(http.MethodPut, "/v1/auth/password-reset", app.resetPasswordHandler)

	// blogs
	router.HandlerFunc(http.MethodGet, "/v1/blogs", app.getBlogsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/blogs", app.requireWriterRole(app.createBlogHandler))
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id", app.getBlogHandler)
	router.HandlerFunc(http.MethodPut, "/v1/blogs/:id", app.requireVerifiedUser(app.updateBlogHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/blogs/:id", app.requireVerifiedUser(app.deleteBlogHandler))
	router.HandlerFunc(http.MethodGet, "/v1/users/:id/blogs", app.getBlogsByUserHandler)

	// comments
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id/comments", app.getCommentsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/comments", app.requireVerifiedUser(app.addCommentHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/blogs/:id/comments/:comment_id", app.requireVerifiedUser(app.deleteCommentHandler))

	// reactions
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id/reactions", app.getReactionsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/reactions", app.requireVerifiedUser(app.reactHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/blogs/:id/reactions", app.requireVerifiedUser(app.removeReactionHandler))

	// bulk reads
	router.HandlerFunc(http.MethodGet, "/v1/bulk/comments", app.bulkCommentsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/bulk/reactions", app.bulkReactionsHandler)

	// friends
	router.HandlerFunc(http.MethodPost, "/v1/friend-requests", app.requireVerifiedUser(app.sendFriendRequestHandler))
	router.HandlerFunc(http.MethodPatch, "/v1/friend-requests/:id/response", app.requireVerifiedUser(app.respondFriendRequestHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/friend-requests/:id/cancel", app.requireVerifiedUser(app.cancelFriendRequestHandler))
	router.HandlerFunc(http.MethodGet, "/v1/friends", app.requireAuthUser(app.listFriendsHandler))
	router.HandlerFunc(http.MethodGet, "/v1/friends/incoming", app.requireAuthUser(app.listIncomingRequestsHandler))
	router.HandlerFunc(http.MethodGet, "/v1/friends/outgoing", app.requireAuthUser(app.listOutgoingRequestsHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/friends/:id/unfriend", app.requireVerifiedUser(app.unfriendHandler))

	return app.recoverPanic(app.rateLimit(app.logRequest(app.authenticate(router))))
}
