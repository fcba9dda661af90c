// Package metrics counts fixture generation and standings work.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Computation kinds recorded by the league service.
const (
	KindStandings  = "standings"
	KindRankSeries = "rank_series"
	KindMVPs       = "mvps"
	KindProgress   = "progress"
)

// Metrics is what the league service reports to.
type Metrics interface {
	IncFixturesGenerated()
	AddFixtureMatches(n int)
	IncComputations(kind string)
	ObserveComputeDuration(kind string, seconds float64)
}

var _ Metrics = (*Service)(nil)

// Service holds the Prometheus collectors.
type Service struct {
	FixturesGenerated prometheus.Counter
	FixtureMatches    prometheus.Counter
	Computations      *prometheus.CounterVec
	ComputeDuration   *prometheus.HistogramVec
}

// NewService creates and registers the collectors. If no registerer is
// provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		FixturesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cupleague_fixtures_generated_total",
			Help: "The total number of fixtures generated.",
		}),
		FixtureMatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cupleague_fixture_matches_total",
			Help: "The total number of matches placed by generated fixtures.",
		}),
		Computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cupleague_computations_total",
			Help: "The total number of standings engine calls by kind.",
		}, []string{"kind"}),
		ComputeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cupleague_compute_duration_seconds",
			Help:    "The duration of standings engine calls by kind.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"kind"}),
	}

	reg.MustRegister(
		s.FixturesGenerated,
		s.FixtureMatches,
		s.Computations,
		s.ComputeDuration,
	)
	return s
}

func (s *Service) IncFixturesGenerated() {
	s.FixturesGenerated.Inc()
}

func (s *Service) AddFixtureMatches(n int) {
	s.FixtureMatches.Add(float64(n))
}

func (s *Service) IncComputations(kind string) {
	s.Computations.WithLabelValues(kind).Inc()
}

func (s *Service) ObserveComputeDuration(kind string, seconds float64) {
	s.ComputeDuration.WithLabelValues(kind).Observe(seconds)
}

// WriteTextfile dumps every metric gathered by g in the text exposition
// format, for the node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
