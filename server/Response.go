package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type ResponseWriter struct {
	logger zerolog.Logger
}

func NewResponseWriter(logger zerolog.Logger) *ResponseWriter {
	return &ResponseWriter{logger: logger}
}

func (rw *ResponseWriter) Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func (rw *ResponseWriter) Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

func (rw *ResponseWriter) NoContent(c *gin.Context) {
	c.AbortWithStatus(http.StatusNoContent)
}

func (rw *ResponseWriter) Error(c *gin.Context, err error) {
	apiErr := ToApiError(c, err)

	logger := getLoggerFromContext(c, rw.logger)
	logger.Error().
		Err(err).
		Int("code", apiErr.Code).
		Str("message", apiErr.Message).
		Str("trace_id", apiErr.TraceID).
		Msg("api error response")

	c.JSON(apiErr.Code, ErrorResponse{Error: apiErr.Message})
}

// Shorthand helpers
func (rw *ResponseWriter) BadRequest(c *gin.Context, msg string) {
	rw.Error(c, NewError(ErrorBadRequest, msg, nil))
}

func (rw *ResponseWriter) Unauthorized(c *gin.Context) {
	rw.Error(c, NewError(ErrorUnauthorized, "Unauthorized", nil))
}

func (rw *ResponseWriter) NotFound(c *gin.Context) {
	rw.Error(c, NewError(ErrorNotFound, "Not found", nil))
}

func (rw *ResponseWriter) InternalServerError(c *gin.Context, err error) {
	rw.Error(c, NewError(ErrorInternal, "Internal server error", err))
}

// Response JSON structures
type Response struct {
	Data interface{} `json:"data"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
