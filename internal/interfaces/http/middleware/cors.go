package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CORSConfig holds CORS middleware configuration
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig allows no origin until origins are configured.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Accept", "Origin", RequestIDHeader},
		ExposeHeaders:    []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// corsHeaders are rendered once; only Allow-Origin varies per request.
type corsHeaders struct {
	wildcard    bool
	origins     map[string]struct{}
	credentials bool
	static      map[string]string
}

func newCORSHeaders(cfg CORSConfig) *corsHeaders {
	h := &corsHeaders{
		wildcard:    slices.Contains(cfg.AllowOrigins, "*"),
		origins:     make(map[string]struct{}, len(cfg.AllowOrigins)),
		credentials: cfg.AllowCredentials,
		static: map[string]string{
			"Access-Control-Allow-Headers": strings.Join(cfg.AllowHeaders, ", "),
			"Access-Control-Allow-Methods": strings.Join(cfg.AllowMethods, ", "),
		},
	}
	for _, o := range cfg.AllowOrigins {
		h.origins[o] = struct{}{}
	}
	if len(cfg.ExposeHeaders) > 0 {
		h.static["Access-Control-Expose-Headers"] = strings.Join(cfg.ExposeHeaders, ", ")
	}
	if cfg.MaxAge > 0 {
		h.static["Access-Control-Max-Age"] = strconv.Itoa(int(cfg.MaxAge.Seconds()))
	}
	return h
}

// allowed returns the Allow-Origin value for origin, or "" when it is not allowed.
func (h *corsHeaders) allowed(origin string) string {
	if h.wildcard {
		return "*"
	}
	if _, ok := h.origins[origin]; ok {
		return origin
	}
	return ""
}

func (h *corsHeaders) apply(w http.Header, allowOrigin string) {
	w.Set("Access-Control-Allow-Origin", allowOrigin)
	if h.credentials && allowOrigin != "*" {
		w.Set("Access-Control-Allow-Credentials", "true")
	}
	for k, v := range h.static {
		w.Set(k, v)
	}
}

// CORSWithConfig answers preflight requests with 204 and decorates responses
// for allowed origins. Disallowed origins get no CORS headers at all.
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	headers := newCORSHeaders(cfg)
	return func(c *gin.Context) {
		if allowOrigin := headers.allowed(c.GetHeader("Origin")); allowOrigin != "" {
			headers.apply(c.Writer.Header(), allowOrigin)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
