// Package routes wires the HTTP API around the transport client.
package routes

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	appmw "github.com/logic-arts-official/Better-Bahn/internal/http/middleware"
	"github.com/logic-arts-official/Better-Bahn/internal/metrics"
	"github.com/logic-arts-official/Better-Bahn/masterdata"
	"github.com/logic-arts-official/Better-Bahn/transport"
)

type Server struct {
	Router *chi.Mux
	API    *transport.Client
	Master *masterdata.Loader
	Log    zerolog.Logger
}

type ServerOptions struct {
	API     *transport.Client
	Master  *masterdata.Loader
	Metrics *metrics.Collector
	Log     zerolog.Logger
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(appmw.RequestLogger(opts.Log))
	r.Use(chimw.Recoverer)

	s := &Server{Router: r, API: opts.API, Master: opts.Master, Log: opts.Log}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(ar chi.Router) {
		ar.Get("/locations", s.handleLocations)
		ar.Get("/journeys", s.handleJourneys)
		ar.Get("/stops/{stopID}/departures", s.handleDepartures)
		ar.Get("/stats", s.handleStats)
		ar.Get("/masterdata", s.handleMasterdata)
	})

	if reg := opts.Metrics.Registry(); reg != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	return s
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter is required")
		return
	}
	results := intParam(r, "results", 10)
	s.writeResult(w, s.API.FindLocations(r.Context(), query, results))
}

func (s *Server) handleJourneys(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to parameters are required")
		return
	}
	p := transport.JourneyParams{
		From:    from,
		To:      to,
		Results: intParam(r, "results", 0),
	}
	if dep := q.Get("departure"); dep != "" {
		t, err := time.Parse(time.RFC3339, dep)
		if err != nil {
			writeError(w, http.StatusBadRequest, "departure must be RFC3339")
			return
		}
		p.Departure = t
	}
	s.writeResult(w, s.API.GetJourneys(r.Context(), p))
}

func (s *Server) handleDepartures(w http.ResponseWriter, r *http.Request) {
	stopID := chi.URLParam(r, "stopID")
	p := transport.BoardParams{
		Duration: intParam(r, "duration", 0),
		Results:  intParam(r, "results", 0),
	}
	if when := r.URL.Query().Get("when"); when != "" {
		t, err := time.Parse(time.RFC3339, when)
		if err != nil {
			writeError(w, http.StatusBadRequest, "when must be RFC3339")
			return
		}
		p.When = t
	}
	s.writeResult(w, s.API.GetDepartures(r.Context(), stopID, p))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.API.Stats())
}

func (s *Server) handleMasterdata(w http.ResponseWriter, r *http.Request) {
	if s.Master == nil {
		writeError(w, http.StatusNotFound, "no masterdata configured")
		return
	}
	md, err := s.Master.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, md.SchemaSummary())
}

// writeResult maps a client Result onto an HTTP response. Success payloads
// are passed through untouched; they are validated JSON already.
func (s *Server) writeResult(w http.ResponseWriter, res transport.Result) {
	if res.Kind == transport.KindSuccess {
		w.Header().Set("Content-Type", "application/json")
		if res.FromCache {
			w.Header().Set("X-Cache", "hit")
		} else {
			w.Header().Set("X-Cache", "miss")
		}
		_, _ = w.Write(res.Data)
		return
	}
	if res.Kind == transport.KindRateLimited && res.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfter))
	}
	msg := res.Message
	if msg == "" {
		msg = res.Kind.String()
	}
	writeError(w, statusFor(res.Kind), msg)
}

func statusFor(k transport.ResultKind) int {
	switch k {
	case transport.KindNotFound:
		return http.StatusNotFound
	case transport.KindRateLimited:
		return http.StatusTooManyRequests
	case transport.KindUpstreamError:
		return http.StatusBadGateway
	case transport.KindTransientError:
		return http.StatusGatewayTimeout
	case transport.KindPermanentError:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func intParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
