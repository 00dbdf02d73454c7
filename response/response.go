package response

import (
	"net/http"

	apperrors "attendance/errors"

	"github.com/gin-gonic/gin"
)

// Response is the envelope of read endpoints
type Response struct {
	Code int         `json:"code"`
	Mess string      `json:"mess"`
	Data interface{} `json:"data,omitempty"`
}

// ErrorBody is the body of every failed request
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

const msgInternal = "Internal Server Error"

// Success returns 200 with data in the envelope
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code: 1,
		Mess: "Success",
		Data: data,
	})
}

// Created returns 201 with body as is
func Created(c *gin.Context, body interface{}) {
	c.JSON(http.StatusCreated, body)
}

// Error answers with the status mapped from err. Messages of server side
// failures are not exposed.
func Error(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	body := ErrorBody{Error: msgInternal}
	if appErr := apperrors.GetAppError(err); appErr != nil {
		body.Code = string(appErr.Code)
		if status < http.StatusInternalServerError {
			body.Error = appErr.Message
		}
	}
	c.AbortWithStatusJSON(status, body)
}

// BadRequest answers 400 with message
func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorBody{Error: message})
}

// NotFound answers 404 for unknown routes
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorBody{Error: "Not found"})
}

// ServerError answers 500 without details
func ServerError(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorBody{Error: msgInternal})
}
