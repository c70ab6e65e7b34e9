package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/lorrc/helpdesk-metrics/internal/core/errors"
	"github.com/lorrc/helpdesk-metrics/internal/core/ports"
)

// TokenQueryParam carries the access token for clients that cannot set
// headers, such as browser WebSocket connections.
const TokenQueryParam = "token"

// TokenValidator checks an access token against the request path.
type TokenValidator interface {
	Validate(token, path string) error
}

// AccessGuard validates the timestamped HMAC token on every request. All
// rejections produce the same 401 response; the reason is only logged.
func AccessGuard(v TokenValidator, recorder ports.Recorder, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if err := v.Validate(token, r.URL.Path); err != nil {
				logger.WarnContext(r.Context(), "access denied",
					"path", r.URL.Path,
					"client_ip", getClientIP(r),
					"reason", err.Error(),
				)
				if recorder != nil {
					recorder.AccessDenied()
				}
				writeUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	appErr := apperrors.NewUnauthorizedError()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": appErr.Message,
		"code":  appErr.Code,
	})
}

// extractToken reads a Bearer Authorization header, falling back to the
// token query parameter.
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get(TokenQueryParam)
}
