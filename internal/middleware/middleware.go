package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/cors"
	"github.com/rs/xid"

	"tweetline/internal/config"
	handlers "tweetline/internal/handler"
	"tweetline/internal/identity"
	"tweetline/internal/service"
)

type Middleware func(http.Handler) http.Handler

const RequestIDHeader = "X-Request-ID"

// credential reads the token from the cookie first, then from a Bearer header.
func credential(r *http.Request, cookieName string) string {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// AuthMiddleware resolves the credential to a principal or answers 401.
func AuthMiddleware(authService service.AuthService, cfg *config.Config) Middleware {
	return authenticate(authService.Authenticate, cfg)
}

// DeletionAuthMiddleware guards account deletion. It also admits principals whose
// deletion failed part way, so they can retry it.
func DeletionAuthMiddleware(authService service.AuthService, cfg *config.Config) Middleware {
	return authenticate(authService.AuthenticateForDeletion, cfg)
}

func authenticate(resolve func(ctx context.Context, token string) (string, error), cfg *config.Config) Middleware {
	cookieName := cfg.Cookie.Name
	if cookieName == "" {
		cookieName = "token"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := resolve(r.Context(), credential(r, cookieName))
			if err != nil {
				handlers.WriteAppError(w, err, cfg.ExposeErrors)
				return
			}

			next.ServeHTTP(w, r.WithContext(identity.WithPrincipal(r.Context(), userID)))
		})
	}
}

// CORSMiddleware allows the frontend origin with credentials, since auth rides on a cookie.
func CORSMiddleware(cfg *config.Config) Middleware {
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURI},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = xid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.Printf("[%s] %s %s %d %s", requestID, r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// Chain wraps h so that the first middleware is the innermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for _, m := range middlewares {
		h = m(h)
	}
	return h
}
