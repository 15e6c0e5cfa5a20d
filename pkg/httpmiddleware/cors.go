package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures cross-origin access for browser storefront builds
// served from a different origin than the API.
type CORSConfig struct {
	// AllowOrigins lists origins allowed to call the API. Empty or a single
	// "*" allows any origin.
	AllowOrigins []string

	// AllowMethods lists methods permitted in actual requests. Empty means
	// "GET, POST, PUT, DELETE, OPTIONS".
	AllowMethods []string

	// AllowHeaders lists request headers clients may send. Empty echoes the
	// preflight's Access-Control-Request-Headers back.
	AllowHeaders []string

	// ExposeHeaders lists response headers scripts may read.
	ExposeHeaders []string

	// AllowCredentials permits cookies and Authorization headers. The
	// wildcard origin is invalid with credentials, so enabling this forces
	// per-origin echo.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds. Zero omits the
	// header, negative sends "0".
	MaxAge int
}

// cors is the resolved, per-request-free form of CORSConfig.
type cors struct {
	allowAll    bool
	origins     map[string]string // lowercased origin -> configured spelling
	methods     string
	headers     string
	expose      string
	credentials bool
	maxAge      string
}

func newCORS(cfg CORSConfig) *cors {
	c := &cors{
		allowAll:    len(cfg.AllowOrigins) == 0,
		origins:     make(map[string]string, len(cfg.AllowOrigins)),
		methods:     strings.Join(cfg.AllowMethods, ", "),
		headers:     strings.Join(cfg.AllowHeaders, ", "),
		expose:      strings.Join(cfg.ExposeHeaders, ", "),
		credentials: cfg.AllowCredentials,
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			c.allowAll = true
			break
		}
		c.origins[strings.ToLower(o)] = o
	}
	// Wildcard plus credentials is invalid; echo specific origins instead.
	if c.credentials {
		c.allowAll = false
	}
	if c.methods == "" {
		c.methods = "GET, POST, PUT, DELETE, OPTIONS"
	}
	switch {
	case cfg.MaxAge > 0:
		c.maxAge = strconv.Itoa(cfg.MaxAge)
	case cfg.MaxAge < 0:
		c.maxAge = "0"
	}
	return c
}

// allowOrigin resolves the Access-Control-Allow-Origin value for a request
// origin, empty when the origin is not allowed. Matching is case-insensitive
// but the configured spelling is echoed.
func (c *cors) allowOrigin(origin string) string {
	if c.allowAll {
		return "*"
	}
	return c.origins[strings.ToLower(origin)]
}

// CORS returns a middleware handling preflight and actual cross-origin
// requests. Responses vary on Origin (and the preflight request headers)
// whenever the answer depends on them, so shared caches cannot serve one
// origin's response to another.
func CORS(cfg CORSConfig) Middleware {
	c := newCORS(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				if !c.allowAll {
					w.Header().Add("Vary", "Origin")
				}
				next.ServeHTTP(w, r)
				return
			}

			allow := c.allowOrigin(origin)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				c.preflight(w, r, allow)
				return
			}

			if !c.allowAll {
				w.Header().Add("Vary", "Origin")
			}
			if allow != "" {
				w.Header().Set("Access-Control-Allow-Origin", allow)
				if c.credentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				if c.expose != "" {
					w.Header().Set("Access-Control-Expose-Headers", c.expose)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// preflight answers an OPTIONS probe without invoking the next handler.
// Disallowed origins get a bare 204 with no CORS headers.
func (c *cors) preflight(w http.ResponseWriter, r *http.Request, allow string) {
	h := w.Header()
	h.Add("Vary", "Origin")
	h.Add("Vary", "Access-Control-Request-Method")
	h.Add("Vary", "Access-Control-Request-Headers")

	if allow == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.Set("Access-Control-Allow-Origin", allow)
	h.Set("Access-Control-Allow-Methods", c.methods)
	if c.headers != "" {
		h.Set("Access-Control-Allow-Headers", c.headers)
	} else if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
		h.Set("Access-Control-Allow-Headers", req)
	}
	if c.credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	if c.maxAge != "" {
		h.Set("Access-Control-Max-Age", c.maxAge)
	}
	w.WriteHeader(http.StatusNoContent)
}
