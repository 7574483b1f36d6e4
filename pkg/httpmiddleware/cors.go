package httpmiddleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig describes which browser origins may call the API and what they
// may send and read.
type CORSConfig struct {
	// AllowOrigins lists permitted origins. Empty or "*" permits any origin.
	AllowOrigins []string

	// AllowMethods lists the methods served by the API routes. OPTIONS is
	// always added. Preflights for any other method get no CORS headers.
	AllowMethods []string

	// AllowHeaders lists permitted request headers. When empty the headers
	// named in the preflight are echoed back.
	AllowHeaders []string

	// ExposeHeaders lists response headers scripts may read.
	ExposeHeaders []string

	// AllowCredentials lets browsers send cookies, such as the session
	// cookie, on cross-origin requests. Combined with a wildcard origin the
	// request origin is echoed instead of "*".
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds. Zero omits the
	// header; a negative value sends "0".
	MaxAge int
}

// corsPolicy is CORSConfig compiled into header values.
type corsPolicy struct {
	anyOrigin   bool
	echoOrigin  bool
	origins     map[string]string // lowercase -> configured spelling
	methods     []string
	allowHeader string
	exposed     string
	credentials bool
	maxAge      string
}

func newCORSPolicy(cfg CORSConfig) *corsPolicy {
	p := &corsPolicy{
		anyOrigin:   len(cfg.AllowOrigins) == 0,
		origins:     make(map[string]string, len(cfg.AllowOrigins)),
		allowHeader: strings.Join(cfg.AllowHeaders, ", "),
		exposed:     strings.Join(cfg.ExposeHeaders, ", "),
		credentials: cfg.AllowCredentials,
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			p.anyOrigin = true
			continue
		}
		p.origins[strings.ToLower(o)] = o
	}
	// Browsers reject "*" on credentialed responses.
	if p.anyOrigin && p.credentials {
		p.anyOrigin, p.echoOrigin = false, true
	}

	for _, m := range cfg.AllowMethods {
		m = strings.ToUpper(m)
		if !slices.Contains(p.methods, m) {
			p.methods = append(p.methods, m)
		}
	}
	if !slices.Contains(p.methods, http.MethodOptions) {
		p.methods = append(p.methods, http.MethodOptions)
	}

	switch {
	case cfg.MaxAge > 0:
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	case cfg.MaxAge < 0:
		p.maxAge = "0"
	}
	return p
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or ""
// when the origin is not permitted.
func (p *corsPolicy) allowOrigin(origin string) string {
	switch {
	case p.anyOrigin:
		return "*"
	case p.echoOrigin:
		return origin
	}
	return p.origins[strings.ToLower(origin)]
}

func (p *corsPolicy) preflight(w http.ResponseWriter, r *http.Request, allowOrigin string) {
	h := w.Header()
	h.Add("Vary", "Origin")
	h.Add("Vary", "Access-Control-Request-Method")
	h.Add("Vary", "Access-Control-Request-Headers")

	method := strings.ToUpper(r.Header.Get("Access-Control-Request-Method"))
	if allowOrigin == "" || !slices.Contains(p.methods, method) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.Set("Access-Control-Allow-Origin", allowOrigin)
	h.Set("Access-Control-Allow-Methods", strings.Join(p.methods, ", "))
	if p.allowHeader != "" {
		h.Set("Access-Control-Allow-Headers", p.allowHeader)
	} else if rh := r.Header.Get("Access-Control-Request-Headers"); rh != "" {
		h.Set("Access-Control-Allow-Headers", rh)
	}
	if p.credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	if p.maxAge != "" {
		h.Set("Access-Control-Max-Age", p.maxAge)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (p *corsPolicy) actual(w http.ResponseWriter, allowOrigin string) {
	h := w.Header()
	if !p.anyOrigin {
		h.Add("Vary", "Origin")
	}
	if allowOrigin == "" {
		return
	}
	h.Set("Access-Control-Allow-Origin", allowOrigin)
	if p.credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	if p.exposed != "" {
		h.Set("Access-Control-Expose-Headers", p.exposed)
	}
}

// CORS returns a middleware that applies cfg to cross-origin requests.
// Preflights (OPTIONS with Access-Control-Request-Method) are answered with
// 204 and never reach the API handlers.
func CORS(cfg CORSConfig) Middleware {
	p := newCORSPolicy(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Same-origin or non-browser caller; still vary so caches
				// don't replay this response to a cross-origin request.
				if !p.anyOrigin {
					w.Header().Add("Vary", "Origin")
				}
				next.ServeHTTP(w, r)
				return
			}

			allowOrigin := p.allowOrigin(origin)
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				p.preflight(w, r, allowOrigin)
				return
			}

			p.actual(w, allowOrigin)
			next.ServeHTTP(w, r)
		})
	}
}
