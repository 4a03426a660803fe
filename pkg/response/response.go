package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/campus-connect/campus-connect-api/pkg/errors"
)

// Payload carries named resource objects merged into the response body,
// e.g. Payload{"book": book} serialises as {"success":true,"book":{...}}.
type Payload map[string]interface{}

// JSON sends a success envelope with an optional message and resource payload.
func JSON(c *gin.Context, status int, message string, payload Payload) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for key, value := range payload {
		body[key] = value
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(status, body)
}

// OK responds with HTTP 200.
func OK(c *gin.Context, message string, payload Payload) {
	JSON(c, http.StatusOK, message, payload)
}

// Created responds with HTTP 201.
func Created(c *gin.Context, message string, payload Payload) {
	JSON(c, http.StatusCreated, message, payload)
}

// List responds with a collection and its count.
func List(c *gin.Context, key string, items interface{}, count int) {
	JSON(c, http.StatusOK, "", Payload{key: items, "count": count})
}

// Error sends a failure envelope derived from the typed error. Internal
// detail never reaches the body; callers log it separately.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, gin.H{"success": false, "message": appErr.Message})
}
