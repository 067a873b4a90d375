// Package utils holds the response envelope, JWT helpers, and request
// validation shared by all handlers.
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ResponseData is the envelope every endpoint answers with. Data carries the
// payload on success; Error carries the reason on failure.
type ResponseData struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success answers 200 with a payload.
func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, ResponseData{
		Status:  http.StatusOK,
		Message: message,
		Data:    data,
	})
}

// Created answers 201 after a resource has been stored.
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, ResponseData{
		Status:  http.StatusCreated,
		Message: message,
		Data:    data,
	})
}

// Error answers with the given status code and an error reason.
func Error(c *gin.Context, statusCode int, reason string) {
	c.JSON(statusCode, ResponseData{
		Status:  statusCode,
		Message: "An error occurred",
		Error:   reason,
	})
}

// BadRequest answers 400.
func BadRequest(c *gin.Context, reason string) {
	Error(c, http.StatusBadRequest, reason)
}

// Unauthorized answers 401.
func Unauthorized(c *gin.Context, reason string) {
	Error(c, http.StatusUnauthorized, reason)
}

// Forbidden answers 403.
func Forbidden(c *gin.Context, reason string) {
	Error(c, http.StatusForbidden, reason)
}

// NotFound answers 404.
func NotFound(c *gin.Context, reason string) {
	Error(c, http.StatusNotFound, reason)
}

// InternalServerError answers 500.
func InternalServerError(c *gin.Context, reason string) {
	Error(c, http.StatusInternalServerError, reason)
}
