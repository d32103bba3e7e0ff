/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package input

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"vailethchat/internal/data"
	"vailethchat/internal/handler"
	"vailethchat/internal/identity"
	"vailethchat/internal/metrics"
	"vailethchat/internal/middleware"
	"vailethchat/internal/nlog"
	"vailethchat/internal/service"
	"vailethchat/internal/view"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
)

const sessionMaxAge = 7 * 24 * 60 * 60

type IptConfig struct {
	ServerPort    uint16
	ReadTimeout   int64 // Seconds
	WriteTimeout  int64 // Seconds
	SecretKey     string
	SecureCookies bool
	LoginURL      string
	RateLimit     float64
	RateBurst     int
}

// Services the handlers are built on
type Services struct {
	Membership service.MembershipService
	Messages   service.MessageService
	Directory  service.DirectoryService
	Accounts   service.AccountService
	Statuses   service.StatusService
}

func (s *Services) complete() bool {
	return s.Membership != nil && s.Messages != nil && s.Directory != nil && s.Accounts != nil && s.Statuses != nil
}

type InputManager struct { // Manages HTTP input
	running atomic.Bool
	paused  atomic.Bool

	logger       nlog.Logger
	accessLogger middleware.FieldLogger
	server       *http.Server

	stopFromOutsideChan chan struct{}
	doneFromInsideChan  chan struct{}
	stopOnce            sync.Once
	doneOnce            sync.Once

	storage  *data.StorageManager
	services Services
	verifier identity.Verifier
	renderer view.Renderer
}

func NewInputManager() *InputManager {
	return &InputManager{
		running:             atomic.Bool{},
		paused:              atomic.Bool{},
		stopFromOutsideChan: make(chan struct{}),
		doneFromInsideChan:  make(chan struct{}),
	}
}

func (i *InputManager) IsReady() bool {
	return i.logger != nil && i.accessLogger != nil && i.storage != nil && i.services.complete() && i.verifier != nil && i.renderer != nil
}

func (i *InputManager) IsRunning() bool {
	return i.running.Load()
}

func (i *InputManager) SetLogger(l nlog.Logger) {
	i.logger = l
}

func (i *InputManager) SetAccessLogger(l middleware.FieldLogger) {
	i.accessLogger = l
}

func (i *InputManager) SetStorage(s *data.StorageManager) {
	i.storage = s
}

func (i *InputManager) SetServices(s Services) {
	i.services = s
}

func (i *InputManager) SetVerifier(v identity.Verifier) {
	i.verifier = v
}

func (i *InputManager) SetRenderer(r view.Renderer) {
	i.renderer = r
}

func (i *InputManager) Logf(format string, a ...any) {
	i.logger.Logf(format, a...)
}

func (i *InputManager) requestStop() {
	i.stopOnce.Do(func() { close(i.stopFromOutsideChan) })
}

func (i *InputManager) markDone() {
	i.doneOnce.Do(func() { close(i.doneFromInsideChan) })
}

func (i *InputManager) SetPause(paused bool) {
	i.paused.Store(paused)
}

func (i *InputManager) IsPaused() bool {
	return i.paused.Load()
}

// PauseMiddleware answers 503 to everything while the manager is paused
func (i *InputManager) PauseMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if i.IsPaused() {
			w.Header().Set("Retry-After", "5")
			http.Error(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// BuildRouter wires handlers and middlewares into the full HTTP handler.
// The returned rate limiter is the one used by the mutating routes.
func (i *InputManager) BuildRouter(cfg *IptConfig) (http.Handler, *middleware.RateLimiter, error) {
	if !i.IsReady() {
		return nil, nil, errors.New("the input manager is not ready, missing components")
	}

	hashKey, blockKey, err := deriveCookieKeys(cfg.SecretKey)
	if err != nil {
		return nil, nil, err
	}
	cookieStore := sessions.NewCookieStore(hashKey, blockKey)
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   sessionMaxAge,
	}

	svc := i.services
	pages := handler.NewPages(cookieStore, i.renderer, i.logger)
	auth := middleware.NewAuth(cookieStore, svc.Accounts, sessionMaxAge, i.logger)
	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, i.logger)

	// Handlers
	authHandler := handler.NewAuthHandler(i.verifier, svc.Accounts, cookieStore, pages, cfg.LoginURL, sessionMaxAge, i.logger)
	homeHandler := handler.NewHomeHandler(svc.Directory, svc.Statuses, svc.Accounts, pages)
	chatHandler := handler.NewChatHandler(svc.Membership, svc.Messages, svc.Directory, svc.Accounts, pages, i.logger)
	groupHandler := handler.NewGroupHandler(svc.Membership, svc.Directory, pages)
	messageHandler := handler.NewMessageHandler(svc.Messages, i.logger)
	contactHandler := handler.NewContactHandler(svc.Directory, svc.Accounts, pages)
	userHandler := handler.NewUserHandler(svc.Accounts, pages)
	searchHandler := handler.NewSearchHandler(svc.Directory, i.logger)
	statusHandler := handler.NewStatusHandler(svc.Statuses, i.logger)

	appChain := middleware.Chain(
		middleware.Transaction(i.storage, i.logger, pages.ServerError),
		auth.Session,
		limiter.Handler,
	)

	// Router
	r := mux.NewRouter()
	r.Use(metrics.InstrumentHandler)
	r.NotFoundHandler = appChain(http.HandlerFunc(pages.NotFound))

	r.Handle("/metrics", metrics.Handler()).Methods("GET")
	r.HandleFunc("/healthz", handler.Healthz(i.storage)).Methods("GET")

	app := r.NewRoute().Subrouter()
	app.Use(mux.MiddlewareFunc(appChain))

	// Authentication routes
	app.HandleFunc("/auth/login", authHandler.Login).Methods("GET")
	app.HandleFunc("/auth/callback", authHandler.Callback).Methods("GET")
	app.HandleFunc("/auth/logout", authHandler.Logout).Methods("GET")

	// Pages
	app.HandleFunc("/", homeHandler.Index).Methods("GET")
	app.HandleFunc("/chat/individual/{userId}", middleware.Required(chatHandler.StartIndividual)).Methods("GET")
	app.HandleFunc("/chat/{chatId}", middleware.Required(chatHandler.ViewChat)).Methods("GET")
	app.HandleFunc("/chat/{chatId}/leave", middleware.Required(groupHandler.Leave)).Methods("POST")
	app.HandleFunc("/create_group", middleware.Required(groupHandler.CreateGroup)).Methods("GET", "POST")
	app.HandleFunc("/contacts", middleware.Required(contactHandler.Contacts)).Methods("GET")
	app.HandleFunc("/add_contact/{userId}", middleware.Required(contactHandler.AddContact)).Methods("GET")
	app.HandleFunc("/profile", middleware.Required(userHandler.Profile)).Methods("GET")
	app.HandleFunc("/update_profile", middleware.Required(userHandler.UpdateProfile)).Methods("POST")

	// Calls made by the page scripts
	app.HandleFunc("/send_message", middleware.RequiredAPI(messageHandler.SendMessage)).Methods("POST")
	app.HandleFunc("/chat/{chatId}/messages", middleware.RequiredAPI(chatHandler.Messages)).Methods("GET")
	app.HandleFunc("/chat/{chatId}/mark_read", middleware.RequiredAPI(chatHandler.MarkRead)).Methods("POST")
	app.HandleFunc("/search", middleware.RequiredAPI(searchHandler.Search)).Methods("GET")
	app.HandleFunc("/status", middleware.RequiredAPI(statusHandler.List)).Methods("GET")
	app.HandleFunc("/status", middleware.RequiredAPI(statusHandler.Post)).Methods("POST")

	root := middleware.Chain(
		middleware.AccessLog(i.accessLogger),
		i.PauseMiddleware,
	)
	return root(r), limiter, nil
}

func (i *InputManager) Run(ctx context.Context, cfg *IptConfig) error {
	i.Logf("Input service started...")

	router, limiter, err := i.BuildRouter(cfg)
	if err != nil {
		return err
	}
	limiter.StartCleanup(ctx, time.Minute)

	i.server = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.ReadTimeout * int64(time.Second)),
		WriteTimeout:   time.Duration(cfg.WriteTimeout * int64(time.Second)),
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		select {
		case <-ctx.Done():
			i.Logf("Received stop signal. Shutting down...")
		case <-i.stopFromOutsideChan:
			i.Logf("Server was asked to stop. Shutting down...")
		}

		// New requests get 503 while the ones in flight drain
		i.SetPause(true)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := i.server.Shutdown(shutdownCtx); err != nil {
			i.Logf("Error during shutdown... %v", err)
		}
		i.markDone()
	}()

	i.running.Store(true)
	i.Logf("Http server starting on port {%d}", cfg.ServerPort)

	if err := i.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		i.Logf("FATAL: HTTP Server error{%v}", err)
		// Release the shutdown goroutine and anyone waiting in Stop
		i.requestStop()
		<-i.doneFromInsideChan
		i.running.Store(false)
		return err
	}

	<-i.doneFromInsideChan
	i.running.Store(false)
	return nil
}

// Stop asks a running server to shut down and waits for it, it returns at once when nothing is running
func (i *InputManager) Stop() {
	if !i.IsRunning() {
		return
	}
	i.requestStop()
	<-i.doneFromInsideChan
	i.running.Store(false)
}
