package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/portwatch/internal/domain"
	apimw "github.com/hamed0406/portwatch/internal/httpapi/middleware"
)

// StatusReader is the engine's read side.
type StatusReader interface {
	CurrentStatus() []domain.StatusEntry
}

type Server struct {
	Logger *zap.Logger
	Status StatusReader
}

func NewServer(l *zap.Logger, status StatusReader) *Server {
	return &Server{Logger: l, Status: status}
}

// RouterOptions tune the outer layer; the zero value allows every origin and
// disables rate limiting.
type RouterOptions struct {
	AllowedOrigins []string
	PublicRPM      int
	PublicBurst    int
	TrustProxy     bool // key rate limits by X-Forwarded-For
}

func (s *Server) Router(opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	if len(opts.AllowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			MaxAge:         300,
		}))
	}
	r.Use(apimw.RateLimit(opts.PublicRPM, opts.PublicBurst, opts.TrustProxy))

	r.Get("/", s.handleStatus)

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	entries := s.Status.CurrentStatus()
	if entries == nil {
		entries = []domain.StatusEntry{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		s.Logger.Warn("status_encode_error", zap.Error(err))
	}
}
