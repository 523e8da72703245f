package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kiriha/internal/auth"
	"github.com/Nixie-Tech-LLC/kiriha/internal/db"
	"github.com/Nixie-Tech-LLC/kiriha/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
)

type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string { return e.Message }

type HandlerFuncWithAuth func(ctx *gin.Context, user *model.User) (any, *APIError)
type HandlerFunc func(ctx *gin.Context) (any, *APIError)

// Controller is the router group a Module mounts its endpoints on.
type Controller struct {
	Group *gin.RouterGroup
}

func (c *Controller) GET(path string, h HandlerFuncWithAuth) {
	c.Group.GET(path, ResolveEndpointWithAuth(h))
}

func (c *Controller) POST(path string, h HandlerFuncWithAuth) {
	c.Group.POST(path, ResolveEndpointWithAuth(h))
}

func (c *Controller) PUT(path string, h HandlerFuncWithAuth) {
	c.Group.PUT(path, ResolveEndpointWithAuth(h))
}

func (c *Controller) PATCH(path string, h HandlerFuncWithAuth) {
	c.Group.PATCH(path, ResolveEndpointWithAuth(h))
}

func (c *Controller) DELETE(path string, h HandlerFuncWithAuth) {
	c.Group.DELETE(path, ResolveEndpointWithAuth(h))
}

func (c *Controller) PUBLIC_GET(path string, h HandlerFunc) {
	c.Group.GET(path, ResolveEndpoint(h))
}

func (c *Controller) PUBLIC_POST(path string, h HandlerFunc) {
	c.Group.POST(path, ResolveEndpoint(h))
}

// RAW mounts a plain gin handler, for endpoints that own the connection
// (websockets).
func (c *Controller) RAW(method, path string, h gin.HandlerFunc) {
	c.Group.Handle(method, path, h)
}

func ResolveEndpointWithAuth(h HandlerFuncWithAuth) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := middleware.GetCurrentUser(ctx)
		if !ok {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		result, apiErr := h(ctx, user)
		respond(ctx, result, apiErr)
	}
}

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		respond(ctx, result, apiErr)
	}
}

func respond(ctx *gin.Context, result any, apiErr *APIError) {
	if apiErr != nil {
		ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
		return
	}
	// the handler already wrote a non-JSON body
	if ctx.Writer.Written() {
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// StatusFor maps service and storage errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, db.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrConflict), errors.Is(err, db.ErrReference):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FromError turns a service error into an APIError. what names the thing
// being handled, e.g. "room", and is used in the messages.
func FromError(err error, what string) *APIError {
	code := StatusFor(err)
	switch code {
	case http.StatusBadRequest, http.StatusUnauthorized:
		return &APIError{Code: code, Message: err.Error()}
	case http.StatusNotFound:
		return &APIError{Code: code, Message: what + " not found"}
	case http.StatusConflict:
		if errors.Is(err, db.ErrReference) {
			return &APIError{Code: code, Message: what + " is referenced by other records or references a missing one"}
		}
		return &APIError{Code: code, Message: what + " already exists"}
	default:
		log.Error().Err(err).Str("entity", what).Msg("request failed")
		return &APIError{Code: http.StatusInternalServerError, Message: "could not process " + what}
	}
}

func BadRequest(err error) *APIError {
	return &APIError{Code: http.StatusBadRequest, Message: err.Error()}
}
