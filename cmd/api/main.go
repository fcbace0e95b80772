package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"tweetline/cmd/app"
	"tweetline/internal/config"
	handlers "tweetline/internal/handler"
	"tweetline/internal/middleware"
	"tweetline/internal/service"
)

func newRouter(handler *handlers.Handlers, services *service.Service, cfg *config.Config) *mux.Router {
	r := mux.NewRouter()
	auth := middleware.AuthMiddleware(services.Auth, cfg)
	protected := func(f http.HandlerFunc) http.Handler {
		return auth(f)
	}
	deletionAuth := middleware.DeletionAuthMiddleware(services.Auth, cfg)

	r.HandleFunc("/health", handler.Health).Methods(http.MethodGet)

	users := r.PathPrefix("/api/v1/users").Subrouter()
	users.HandleFunc("/new", handler.Signup).Methods(http.MethodPost)
	users.HandleFunc("/login", handler.Login).Methods(http.MethodPost)
	users.HandleFunc("/forgot/password", handler.ForgotPassword).Methods(http.MethodPost)
	users.HandleFunc("/reset/password/{token}", handler.ResetPassword).Methods(http.MethodPut)
	users.Handle("/logout", protected(handler.Logout)).Methods(http.MethodGet)
	users.Handle("/follow/{id}", protected(handler.Follow)).Methods(http.MethodGet)
	users.Handle("/tweets", protected(handler.FollowingsTweets)).Methods(http.MethodGet)
	users.Handle("/my/tweets", protected(handler.MyTweets)).Methods(http.MethodGet)
	users.Handle("/user/tweets/{id}", protected(handler.UserTweets)).Methods(http.MethodGet)
	users.Handle("/update/password", protected(handler.UpdatePassword)).Methods(http.MethodPut)
	users.Handle("/update/profile", protected(handler.UpdateProfile)).Methods(http.MethodPut)
	users.Handle("/delete/account", deletionAuth(http.HandlerFunc(handler.DeleteAccount))).Methods(http.MethodDelete)
	// "me" must be registered before the {id} pattern
	users.Handle("/profile/me", protected(handler.MyProfile)).Methods(http.MethodGet)
	users.Handle("/profile/{id}", protected(handler.UserProfile)).Methods(http.MethodGet)
	users.Handle("/users", protected(handler.SearchUsers)).Methods(http.MethodGet)

	tweets := r.PathPrefix("/api/v1/tweets").Subrouter()
	tweets.Handle("/tweet", protected(handler.CreateTweet)).Methods(http.MethodPost)
	tweets.Handle("/tweet/retweet/{id}", protected(handler.Retweet)).Methods(http.MethodPost)
	tweets.Handle("/tweet/{id}", protected(handler.ToggleLike)).Methods(http.MethodPost)
	tweets.Handle("/tweet/{id}", protected(handler.DeleteTweet)).Methods(http.MethodDelete)
	tweets.Handle("/tweet/{id}", protected(handler.UpdateTweet)).Methods(http.MethodPut)
	tweets.Handle("/comment/reply/{id}", protected(handler.AddReply)).Methods(http.MethodPost)
	tweets.Handle("/comment/{id}", protected(handler.UpsertComment)).Methods(http.MethodPut)
	tweets.Handle("/comment/{id}", protected(handler.DeleteComment)).Methods(http.MethodDelete)
	tweets.Handle("/comments/{id}", protected(handler.ListComments)).Methods(http.MethodGet)

	// subrouters resolve their own mismatches, so each one needs the envelopes
	for _, router := range []*mux.Router{r, users, tweets} {
		router.NotFoundHandler = http.HandlerFunc(routeNotFound)
		router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	}

	return r
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	handlers.WriteError(w, "Route not found", http.StatusNotFound)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	handlers.WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
}

func main() {
	cfg := config.LoadConfig()

	repo, services, closer, err := app.App(cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer closer()

	handler := handlers.NewHandlers(repo, services, cfg)

	handlerChain := middleware.Chain(
		newRouter(handler, services, cfg),
		middleware.CORSMiddleware(cfg),
		middleware.LoggingMiddleware,
	)

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           handlerChain,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("server listening on %s (store: %s, env: %s)", addr, cfg.StoreDriver, cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
