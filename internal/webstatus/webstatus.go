// Package webstatus serves the optional, read-only web status surface:
// a JSON snapshot of session counters, an HTML page holding a go-echarts
// progress chart (served at /progress.svg), and a health check. It never touches the live Session, only the value-typed
// session.Snapshot() it is handed.
package webstatus

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/windyware/boofuzz/internal/logging"
	"github.com/windyware/boofuzz/internal/session"
)

// SnapshotFunc returns the current session snapshot. Supplied by the
// owning Session so this package never imports anything but the
// snapshot type.
type SnapshotFunc func() session.Snapshot

// Server is the status HTTP server. Its failure to start must never
// impede fuzzing; callers should launch ListenAndServe in a goroutine
// and merely log a returned error.
type Server struct {
	router http.Handler
	addr   string
	log    logging.Logger

	mu      sync.Mutex
	history []int // successive GlobalIndex samples, for the progress chart
}

// New builds a Server listening on the given port, reading through snap.
func New(port int, snap SnapshotFunc, log logging.Logger) *Server {
	if log == nil {
		log = logging.Root()
	}
	s := &Server{addr: ":" + strconv.Itoa(port), log: log.New("component", "webstatus")}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{AllowedOrigins: []string{"*"}, AllowedMethods: []string{"GET"}}))
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		sn := snap()
		s.record(sn.GlobalIndex)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sn)
	})
	r.Get("/progress.svg", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		s.renderProgress(w)
	})
	s.router = r
	return s
}

func (s *Server) record(globalIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) > 0 && s.history[len(s.history)-1] == globalIndex {
		return
	}
	s.history = append(s.history, globalIndex)
	if len(s.history) > 500 {
		s.history = s.history[len(s.history)-500:]
	}
}

func (s *Server) renderProgress(w http.ResponseWriter) {
	s.mu.Lock()
	samples := make([]int, len(s.history))
	copy(samples, s.history)
	s.mu.Unlock()

	line := charts.NewLine()
	line.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "mutation progress"}))

	xs := make([]string, len(samples))
	ys := make([]opts.LineData, len(samples))
	for i, v := range samples {
		xs[i] = strconv.Itoa(i)
		ys[i] = opts.LineData{Value: v}
	}
	line.SetXAxis(xs).AddSeries("global index", ys)
	_ = line.Render(w)
}

// ListenAndServe blocks serving the status routes until ctx-independent
// shutdown or an unrecoverable listener error.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
