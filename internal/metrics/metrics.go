// Package metrics defines the Prometheus collectors of the alarm clock daemon
// and the HTTP server exposing them.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oshokin/alarm-clock/internal/logger"
)

// shutdownTimeout bounds the graceful shutdown of the metrics server.
const shutdownTimeout = 5 * time.Second

//nolint:gochecknoglobals // Collectors are process-wide by nature.
var (
	// AlarmsTracked is the number of alarms currently held by the registry.
	AlarmsTracked = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "alarmclock_alarms_tracked",
			Help: "Number of alarms that are scheduled, ringing or being challenged",
		},
	)

	// AlarmTransitions counts alarm state transitions by target state.
	AlarmTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alarmclock_alarm_transitions_total",
			Help: "Alarm state transitions by target state",
		},
		[]string{"state"},
	)

	// ChallengeSubmissions counts challenge answers by result.
	ChallengeSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alarmclock_challenge_submissions_total",
			Help: "Challenge answers by result",
		},
		[]string{"result"},
	)

	// TimerExpirations counts countdown timers that reached zero.
	TimerExpirations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alarmclock_timer_expirations_total",
			Help: "Countdown timers that reached zero",
		},
	)

	// SoundFailures counts sound player errors by source.
	SoundFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alarmclock_sound_failures_total",
			Help: "Sound player errors by source",
		},
		[]string{"source"},
	)
)

func init() { //nolint:gochecknoinits // Collectors must be registered once per process.
	prometheus.MustRegister(
		AlarmsTracked,
		AlarmTransitions,
		ChallengeSubmissions,
		TimerExpirations,
		SoundFailures,
	)
}

// Server exposes /metrics and /health over HTTP.
type Server struct {
	server *http.Server
}

// NewServer creates a metrics server for the provided address.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: shutdownTimeout,
		},
	}
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Run serves on lis until ctx is canceled.
func (s *Server) Run(ctx context.Context, lis net.Listener) error {
	logger.InfoKV(ctx, "Metrics server listening", "listen_address", lis.Addr().String())

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		_ = s.server.Shutdown(shutdownCtx) //nolint:errcheck // Best effort on exit.
	}()

	if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}

	return nil
}
