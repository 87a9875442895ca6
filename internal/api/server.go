package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/moamoa/internal/auth"
	"github.com/Kerhoff/moamoa/internal/metrics"
	"github.com/Kerhoff/moamoa/internal/service"
)

// Options tunes the HTTP surface.
type Options struct {
	CORSOrigins    string
	RateLimitRPS   int
	RateLimitBurst int
}

// Server provides the HTTP API.
type Server struct {
	svc      *service.Service
	tokens   *auth.Manager
	logger   *logrus.Logger
	limiter  *RateLimiter
	validate *Validator
	router   chi.Router
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(svc *service.Service, tokens *auth.Manager, logger *logrus.Logger, opts Options) *Server {
	s := &Server{
		svc:      svc,
		tokens:   tokens,
		logger:   logger,
		limiter:  NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		validate: NewValidator(),
		router:   chi.NewRouter(),
	}
	s.routes(opts)
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Limiter exposes the per-client rate limiter so its sweeper can be started.
func (s *Server) Limiter() *RateLimiter {
	return s.limiter
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, p := range strings.Split(raw, ",") {
		if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes(opts Options) {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(s.recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   splitOrigins(opts.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		s.respondOK(w, map[string]bool{"ok": true})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		s.respondFail(w, http.StatusNotFound, "NOT_FOUND", "요청한 경로를 찾을 수 없습니다", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		s.respondFail(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "허용되지 않은 메서드입니다", nil)
	})

	r.Route("/api", func(r chi.Router) {
		// Invitation links are readable without signing in.
		r.With(s.limiter.Handler(s)).Get("/birthdays/events/shared/{token}", s.handleSharedEvent)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Use(s.limiter.Handler(s))
			s.authenticatedRoutes(r)
		})
	})
}

func (s *Server) authenticatedRoutes(r chi.Router) {
	// Birthdays & events
	r.Get("/birthdays/upcoming", s.handleUpcomingBirthdays)
	r.Get("/birthdays/events/{eventId}", s.handleEventDetail)
	r.Post("/birthdays/events/{eventId}/participation", s.handleParticipate)
	r.Get("/birthdays/events/{eventId}/wishlist/vote", s.handleVoteOptions)
	r.Post("/birthdays/events/{eventId}/wishlist/vote", s.handleCastVotes)
	r.Get("/birthdays/events/{eventId}/wishlist/vote/results", s.handleVoteResults)
	r.Post("/birthdays/events/{eventId}/share", s.handleCreateShareLink)
	r.Post("/birthdays/events/{eventId}/proof", s.handleCreatePurchaseProof)
	r.Get("/birthdays/events/{eventId}/proof", s.handlePurchaseProof)

	// The owner's own event
	r.Route("/birthdays/me/event", func(r chi.Router) {
		r.Get("/", s.handleMyEventResult)
		r.Get("/wishlist", s.handleMyEventWishlist)
		r.Put("/wishlist/select", s.handleSelectWishlist)
		r.Post("/wishlist/confirm", s.handleConfirmBudget)
		r.Get("/status", s.handleEventStatus)
		r.Get("/options", s.handleRemainingOptions)
		r.Get("/convert/preview", s.handleConversionPreview)
		r.Post("/donate", s.handleDonate)
		r.Post("/convert", s.handleConvert)
		r.Get("/letters", s.handleEventLetters)
		r.Get("/settlement", s.handleSettlement)
		r.Post("/complete", s.handleCompleteMyEvent)
	})
	r.Get("/donations/organizations", s.handleOrganizations)

	// Home & moas
	r.Get("/home/letters", s.handleHomeLetters)
	r.Get("/moas", s.handleMoas)

	// Letters
	r.Post("/letters", s.handleCreateLetter)
	r.Get("/letters/{letterId}", s.handleGetLetter)
	r.Put("/letters/{letterId}", s.handleUpdateLetter)
	r.Delete("/letters/{letterId}", s.handleDeleteLetter)

	// Users
	r.Get("/users/search", s.handleSearchUsers)
	r.Get("/users/search/history", s.handleSearchHistory)
	r.Delete("/users/search/history", s.handleClearSearchHistory)
	r.Delete("/users/search/history/{historyId}", s.handleDeleteSearchHistory)
	r.Put("/users/me/telegram", s.handleLinkTelegram)
	r.Post("/users/{userId}/follow", s.handleFollow)
	r.Delete("/users/{userId}/follow", s.handleUnfollow)

	// Wishlists
	r.Get("/wishlists", s.handleMyWishlists)
	r.Post("/wishlists", s.handleCreateWishlist)
	r.Post("/wishlists/analyze-image", s.handleAnalyzeImage)
	r.Put("/wishlists/{wishlistId}", s.handleUpdateWishlist)
	r.Delete("/wishlists/{wishlistId}", s.handleDeleteWishlist)

	// Integrations
	r.Get("/shopping/search", s.handleShoppingSearch)
	r.Post("/uploads/presign", s.handlePresignUpload)
	r.Get("/notifications", s.handleNotifications)
	r.Get("/notifications/unread-status", s.handleUnreadStatus)
	r.Patch("/notifications/read-all", s.handleReadAllNotifications)
	r.Patch("/notifications/{notificationId}/read", s.handleReadNotification)

	// Calendar
	r.Get("/calendar/birthdays", s.handleBirthdayCalendar)
	r.Get("/calendar/birthdays/{date}", s.handleBirthdaysOn)
}
