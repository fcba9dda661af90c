package metrics

import "sync"

// Mock records calls in memory. It is safe for concurrent use.
type Mock struct {
	mu                sync.Mutex
	fixturesGenerated int
	fixtureMatches    int
	computations      map[string]int
	durations         map[string][]float64
}

var _ Metrics = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		computations: make(map[string]int),
		durations:    make(map[string][]float64),
	}
}

func (m *Mock) IncFixturesGenerated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixturesGenerated++
}

func (m *Mock) AddFixtureMatches(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixtureMatches += n
}

func (m *Mock) IncComputations(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.computations[kind]++
}

func (m *Mock) ObserveComputeDuration(kind string, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations[kind] = append(m.durations[kind], seconds)
}

func (m *Mock) FixturesGenerated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fixturesGenerated
}

func (m *Mock) FixtureMatches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fixtureMatches
}

func (m *Mock) Computations(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.computations[kind]
}

func (m *Mock) Durations(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.durations[kind])
}
