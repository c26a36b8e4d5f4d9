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

	// user service
	router.HandlerFunc(http.MethodPost, "/v1/auth/register", app.registerUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/auth/login", app.loginUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/auth/refresh", app.refreshTokenHandler)
	router.HandlerFunc(http.MethodPost, "/v1/auth/logout", app.requireAuthUser(app.logoutUserHandler))
	router.HandlerFunc(http.MethodGet, "/v1/auth/me", app.requireAuthUser(app.currentUserHandler))
	router.HandlerFunc(http.MethodPost, "/v1/auth/create_superuser", app.requireSuperuser(app.createSuperuserHandler))

	// blog service
	router.HandlerFunc(http.MethodGet, "/v1/blogs", app.getAllBlogsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/blogs", app.requireAuthUser(app.createBlogHandler))
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id", app.getBlogHandler)
	router.HandlerFunc(http.MethodPatch, "/v1/blogs/:id", app.requireAuthUser(app.updateBlogHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/blogs/:id", app.requireAuthUser(app.deleteBlogHandler))
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/like", app.requireAuthUser(app.likeBlogHandler))
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/unlike", app.requireAuthUser(app.unlikeBlogHandler))
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/comment", app.requireAuthUser(app.addCommentHandler))
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id/comments", app.getCommentsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id/details", app.getBlogDetailHandler)

	// comment service
	router.HandlerFunc(http.MethodPatch, "/v1/comments/:id", app.requireAuthUser(app.updateCommentHandler))

	return app.recoverPanic(app.rateLimit(app.enableCORS(app.logRequest(app.authenticate(router)))))
}
