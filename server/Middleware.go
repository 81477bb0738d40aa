package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Middleware struct {
	logger zerolog.Logger
	config *Config
}

func NewMiddleware(logger zerolog.Logger, config *Config) *Middleware {
	return &Middleware{logger: logger, config: config}
}

// sensitiveQueryParams is a list of query parameter names that should be redacted in logs
var sensitiveQueryParams = []string{
	"token",
	"api_token",
	"apitoken",
	"api_key",
	"apikey",
	"password",
	"passwd",
	"pwd",
	"secret",
	"auth",
	"authorization",
	"access_token",
	"refresh_token",
	"session",
	"session_id",
	"sessionid",
	"api-key",
	"api-token",
}

// redactSensitiveQueryParams redacts sensitive query parameters from the query string
func redactSensitiveQueryParams(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		// If parsing fails, return the original query
		return rawQuery
	}

	for key := range values {
		keyLower := strings.ToLower(key)
		for _, sensitive := range sensitiveQueryParams {
			if keyLower == sensitive || strings.Contains(keyLower, sensitive) {
				values.Set(key, "[REDACTED]")
				break
			}
		}
	}

	return values.Encode()
}

func (m *Middleware) Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		traceID := c.GetHeader("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.New().String()
		}

		redactedQuery := redactSensitiveQueryParams(c.Request.URL.RawQuery)

		reqLogger := m.logger.With().
			Str("trace_id", traceID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("client_ip", c.ClientIP()).
			Str("query", redactedQuery).
			Logger()

		c.Set("logger", reqLogger)
		c.Set("trace_id", traceID)

		c.Writer.Header().Set("X-Trace-ID", traceID)
		c.Writer.Header().Set("X-Version", m.config.Version)

		reqLogger.Debug().Str("user_agent", c.Request.UserAgent()).Msg("incoming request")

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		done := reqLogger.With().
			Int("status", status).
			Float64("latency_ms", float64(latency.Microseconds())/1000.0).
			Int("response_size", c.Writer.Size()).
			Logger()

		for _, e := range c.Errors {
			done.Error().Err(e.Err).Msg("handler error")
		}

		switch {
		case status >= 500:
			done.Error().Msg("request failed")
		case status >= 400:
			done.Warn().Msg("client error")
		default:
			done.Info().Msg("request completed")
		}
	}
}

func (m *Middleware) CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Trace-ID, X-Version")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (m *Middleware) MaxBodySize(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

func (m *Middleware) Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger := getLoggerFromContext(c, m.logger)
				logger.Error().
					Err(fmt.Errorf("%v", err)).
					Msg("recovered panic")
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

func (m *Middleware) Apply(router *gin.Engine) {
	router.Use(m.Logger())
	router.Use(m.CORS())
	router.Use(m.MaxBodySize(m.config.MaxRequestSize))
	router.Use(m.Recovery())
}

func getLoggerFromContext(c *gin.Context, fallback zerolog.Logger) zerolog.Logger {
	if logger, exists := c.Get("logger"); exists {
		if l, ok := logger.(zerolog.Logger); ok {
			return l
		}
	}
	return fallback
}

func getTraceIDFromContext(c *gin.Context) string {
	if val, exists := c.Get("trace_id"); exists {
		if id, ok := val.(string); ok {
			return id
		}
	}
	return c.GetHeader("X-Trace-ID")
}
