// Package stubapi is an in-memory implementation of the BarberBook REST API
// for local development and end-to-end exercising of the client. It honors
// the same envelopes the production backend returns: {success, data:{...}}.
package stubapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/barberbook/bookingkit/internal/api"
	"github.com/barberbook/bookingkit/pkg/logging"
)

type account struct {
	user     api.User
	password string
}

// Config tunes the stub's behavior.
type Config struct {
	JWTSecret string
	TokenTTL  time.Duration
	// DayStart/DayEnd bound the generated hourly slots, 24h clock,
	// end exclusive.
	DayStart int
	DayEnd   int
	Now      func() time.Time
}

// Server holds all stub state in memory. Safe for concurrent use.
type Server struct {
	cfg    Config
	logger *logging.Logger

	mu           sync.Mutex
	accounts     map[string]*account // keyed by email
	accountsByID map[string]*account
	barbers      []api.Barber
	booked       map[string]string            // barberID|RFC3339 instant -> user id
	appointments map[string][]api.Appointment // keyed by user id
	chats        map[string]*chatThread       // keyed by chat id
}

type chatThread struct {
	chat     api.Chat
	userID   string
	barberID string
}

// New creates a stub server seeded with a small barber roster.
func New(cfg Config, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.DayEnd <= cfg.DayStart {
		cfg.DayStart, cfg.DayEnd = 9, 18
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Server{
		cfg:          cfg,
		logger:       logger.With("component", "stubapi"),
		accounts:     make(map[string]*account),
		accountsByID: make(map[string]*account),
		barbers:      seedBarbers(),
		booked:       make(map[string]string),
		appointments: make(map[string][]api.Appointment),
		chats:        make(map[string]*chatThread),
	}
}

func seedBarbers() []api.Barber {
	return []api.Barber{
		{
			ID: "b-marco", Name: "Marco Reyes", ShopName: "Fade District",
			Rating: 4.8, TotalReviews: 127, Skills: []string{"fades", "beard design"},
			Services: []api.Service{
				{Name: "Haircut", Price: 25, Duration: 30},
				{Name: "Haircut + Beard", Price: 38, Duration: 50},
				{Name: "Beard Trim", Price: 15, Duration: 20},
			},
		},
		{
			ID: "b-lena", Name: "Lena Okafor", ShopName: "Clippership",
			Rating: 4.9, TotalReviews: 203, Skills: []string{"scissor work", "kids cuts"},
			Services: []api.Service{
				{Name: "Haircut", Price: 30, Duration: 40},
				{Name: "Kids Cut", Price: 18, Duration: 25},
			},
		},
		{
			ID: "b-yusuf", Name: "Yusuf Demir",
			Rating: 0, TotalReviews: 0,
			Services: nil, // new barber, menu not published yet
		},
	}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/users/register", s.handleRegister)
	r.Post("/users/login", s.handleLogin)
	r.Get("/barbers/all", s.handleListBarbers)
	r.Get("/barbers/{id}", s.handleGetBarber)
	r.Get("/appointments/availability", s.handleAvailability)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/appointments", s.handleCreateAppointment)
		r.Get("/appointments/user", s.handleListAppointments)
		r.Get("/chat", s.handleOpenChat)
		r.Get("/chat/user/chats", s.handleListChats)
		r.Get("/chat/{id}/messages", s.handleGetMessages)
		r.Post("/chat/message", s.handleSendMessage)
	})

	return r
}

func (s *Server) issueToken(userID string) (string, error) {
	now := s.cfg.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(s.cfg.TokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
}

type contextKey string

const userIDKey contextKey = "stubapi.userID"

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")
		claims := jwt.MapClaims{}
		_, err := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(s.cfg.Now)).
			ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
				return []byte(s.cfg.JWTSecret), nil
			})
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			respondError(w, http.StatusUnauthorized, "invalid token subject")
			return
		}
		s.mu.Lock()
		_, known := s.accountsByID[sub]
		s.mu.Unlock()
		if !known {
			respondError(w, http.StatusUnauthorized, "unknown account")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), sub)))
	})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   map[string]string{"message": msg},
	})
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
