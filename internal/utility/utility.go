package utility

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// GetRealIP is a helper function to get the user's real IP address
// It checks proxy headers first.
func GetRealIP(c echo.Context) string {
	// This header can be a list: "client, proxy1, proxy2"
	if xff := c.Request().Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xRealIP := c.Request().Header.Get("X-Real-IP"); xRealIP != "" {
		return xRealIP
	}
	return c.RealIP()
}

// GetUserIDFromContext safely retrieves user ID from Echo context
func GetUserIDFromContext(c echo.Context) (string, error) {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// LoggerFromContext returns the request logger set by the logging middleware,
// or the global logger outside a request.
func LoggerFromContext(c echo.Context) *zerolog.Logger {
	if l, ok := c.Get("logger").(*zerolog.Logger); ok && l != nil {
		return l
	}
	return &log.Logger
}

func PgtypeUUIDToString(pgtypeUUID pgtype.UUID) (string, error) {
	if !pgtypeUUID.Valid {
		return "", fmt.Errorf("invalid UUID")
	}

	UUID, err := uuid.FromBytes(pgtypeUUID.Bytes[:])
	if err != nil {
		return "", fmt.Errorf("failed to parse UUID: %w", err)
	}

	return UUID.String(), nil
}

// StringToPgtypeUUID parses s into a valid pgtype.UUID.
func StringToPgtypeUUID(s string) (pgtype.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("invalid UUID %q: %w", s, err)
	}
	return pgtype.UUID{Bytes: id, Valid: true}, nil
}

// TextOrNull maps a blank string to SQL NULL.
func TextOrNull(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	return pgtype.Text{String: s, Valid: s != ""}
}

// ParseIntParam converts a query value, falling back to def when it is
// missing, malformed or not positive.
func ParseIntParam(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// RateLimiter is a sliding-window counter keyed by caller (user id or IP).
type RateLimiter struct {
	window      time.Duration
	maxAttempts int

	mu       sync.Mutex
	attempts map[string][]time.Time
}

func NewRateLimiter(window time.Duration, maxAttempts int) *RateLimiter {
	return &RateLimiter{window: window, maxAttempts: maxAttempts, attempts: make(map[string][]time.Time)}
}

// Allow records an attempt for key and reports an error once key has used up
// its attempts within the window.
func (r *RateLimiter) Allow(key string) error {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Remove old attempts
	var recent []time.Time
	for _, t := range r.attempts[key] {
		if now.Sub(t) < r.window {
			recent = append(recent, t)
		}
	}

	if len(recent) >= r.maxAttempts {
		r.attempts[key] = recent
		return fmt.Errorf("too many requests, please try again later")
	}

	r.attempts[key] = append(recent, now)
	return nil
}
