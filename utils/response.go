package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ErrorBody is the JSON envelope for every failed request
type ErrorBody struct {
	Error *AppError `json:"error"`
}

// JSON writes data as-is; list endpoints return bare arrays
func JSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Success sends a 200 response
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created sends a standardized created response (201)
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// RespondError maps any error onto the error envelope. Validator errors
// become InvalidInput with per-field details; other errors that are not
// AppErrors are logged and reported as 500 without leaking their text.
func RespondError(c *gin.Context, err error) {
	appErr := GetAppError(err)
	var verrs validator.ValidationErrors
	if appErr == nil && errors.As(err, &verrs) {
		appErr = BindingError(verrs)
	}
	if appErr == nil {
		LogError("Unhandled error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		appErr = InternalError("Internal server error", err)
	} else if appErr.Status >= http.StatusInternalServerError {
		LogError("Request %s %s failed: %v", c.Request.Method, c.FullPath(), appErr)
	}
	c.AbortWithStatusJSON(appErr.Status, ErrorBody{Error: appErr})
}

// BadRequest sends a 400 Bad Request response
func BadRequest(c *gin.Context, message string, details interface{}) {
	RespondError(c, BadRequestError(message, nil).WithDetails(details))
}

// Unauthorized sends a 401 Unauthorized response
func Unauthorized(c *gin.Context, message string) {
	RespondError(c, UnauthorizedError(message, nil))
}

// Forbidden sends a 403 Forbidden response
func Forbidden(c *gin.Context, message string) {
	RespondError(c, ForbiddenError(message, nil))
}

// NotFound sends a 404 Not Found response
func NotFound(c *gin.Context, message string) {
	RespondError(c, NotFoundError(message, nil))
}

// ValidationError sends a 422 Unprocessable Entity response
func ValidationError(c *gin.Context, message string, details interface{}) {
	RespondError(c, InvalidInputError(message, nil).WithDetails(details))
}
