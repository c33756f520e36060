package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Details string      `json:"details,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Fail sends an error envelope with a machine-readable code and optional details.
func Fail(c *gin.Context, status int, code, msg, details string) {
	c.JSON(status, Body{Success: false, Error: msg, Code: code, Details: details})
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	Fail(c, http.StatusBadRequest, "invalid-input", err, "")
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	Fail(c, http.StatusUnauthorized, "unauthenticated", err, "")
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	Fail(c, http.StatusForbidden, "forbidden", err, "")
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	Fail(c, http.StatusNotFound, "not-found", err, "")
}

// Conflict sends 409.
func Conflict(c *gin.Context, err string) {
	Fail(c, http.StatusConflict, "conflict", err, "")
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, err string) {
	Fail(c, http.StatusServiceUnavailable, "unavailable", err, "")
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	Fail(c, http.StatusInternalServerError, "store-failure", err, "")
}
