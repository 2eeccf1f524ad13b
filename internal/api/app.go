package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/navigreat/navigreat-server/internal/config"
	"github.com/navigreat/navigreat-server/internal/database"
	"github.com/navigreat/navigreat-server/internal/mailer"
	"github.com/navigreat/navigreat-server/internal/server"
	"github.com/teris-io/shortid"
)

type NaviGreatApp struct {
	log            *log.Logger
	db             database.NaviGreatRepository
	mux            *http.Server
	cs             *server.ChatServer
	mailer         mailer.Mailer
	cache          *responseCache
	signingKey     []byte
	allowedOrigins []string

	generateShortId func() (string, error)
}

func NewNaviGreatApp(mux *http.ServeMux, logger *log.Logger, cs *server.ChatServer, db database.NaviGreatRepository, ml mailer.Mailer, cfg *config.Config) *NaviGreatApp {
	s := &NaviGreatApp{
		log:            logger,
		db:             db,
		cs:             cs,
		mailer:         ml,
		cache:          newResponseCache(),
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,

		generateShortId: shortid.Generate,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.Handle("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.Handle("/api/account", s.authMiddleware(s.account))
	mux.HandleFunc("GET /api/mentors", s.cacheMiddleware(s.getMentors))
	mux.HandleFunc("GET /api/mentors/{id}", s.getMentor)
	mux.Handle("POST /api/bookings", s.authMiddleware(s.createBooking))
	mux.Handle("GET /api/bookings", s.authMiddleware(s.getBookings))
	mux.Handle("POST /api/lectures", s.authMiddleware(s.createLecture))
	mux.HandleFunc("GET /api/lectures/{mentorId}", s.getLectures)
	mux.Handle("POST /api/reviews", s.authMiddleware(s.createReview))
	mux.HandleFunc("GET /api/reviews/{mentorId}", s.getReviews)
	mux.Handle("GET /api/messages", s.authMiddleware(s.getMessages))
	mux.Handle("GET /api/contacts", s.authMiddleware(s.getContacts))
	mux.Handle("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *NaviGreatApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *NaviGreatApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

func (s *NaviGreatApp) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.log.Println("health check:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
