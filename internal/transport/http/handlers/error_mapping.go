package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hiveiam/hive/internal/usecase"
)

// ErrorInfo is the body of the error envelope's "info" field (§6/§7).
type ErrorInfo struct {
	Key     string         `json:"key"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorEnvelope is the shape every failed request returns.
type ErrorEnvelope struct {
	Error bool      `json:"error"`
	Info  ErrorInfo `json:"info"`
}

// RespondError writes err as the error envelope, picking the HTTP status
// from the error's dotted key (§7). Anything that isn't a *usecase.Error
// is treated as internal and its message is redacted from the response.
func RespondError(c *gin.Context, err error) {
	var uerr *usecase.Error
	if !errors.As(err, &uerr) {
		uerr = usecase.ErrInternal(err)
	}

	status := statusForKey(uerr.Key)

	details := uerr.Details
	if uerr.Key == usecase.ErrKeyInternal {
		traceID := GetTraceIDFromGin(c)
		details = map[string]any{"id": traceID}
	}

	c.JSON(status, ErrorEnvelope{
		Error: true,
		Info: ErrorInfo{
			Key:     uerr.Key,
			Details: details,
		},
	})
}

func statusForKey(key string) int {
	switch {
	case key == usecase.ErrKeyForbidden:
		return http.StatusForbidden
	case key == usecase.ErrKeyAPIKeyUnknown || key == usecase.ErrKeyAPIKeyExpired:
		return http.StatusUnauthorized
	case strings.HasPrefix(key, usecase.ErrKeyValidation):
		return http.StatusBadRequest
	case strings.HasPrefix(key, "not-found."):
		return http.StatusNotFound
	case key == usecase.ErrKeyConflictDuplicate || key == usecase.ErrKeyConflictCycle:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// GetTraceIDFromGin reads the trace id that middleware.EnrichContext
// stores on the Gin context under the "trace_id" key.
func GetTraceIDFromGin(c *gin.Context) string {
	if v, ok := c.Get("trace_id"); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
