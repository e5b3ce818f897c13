package cache

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Cleaner is anything holding entries that can expire.
type Cleaner interface {
	CleanExpired() int
}

type registered struct {
	name    string
	cleaner Cleaner
}

// Manager runs CleanExpired on every registered cleaner on a cron schedule.
type Manager struct {
	mu       sync.Mutex
	cleaners []registered
	cron     *cron.Cron
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) Register(name string, c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleaners = append(m.cleaners, registered{name: name, cleaner: c})
}

// Start schedules cleanup. schedule accepts standard five-field cron
// expressions and descriptors such as "@hourly" or "@every 10m".
func (m *Manager) Start(schedule string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cron != nil {
		return fmt.Errorf("cleanup already started")
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { m.RunOnce() }); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}
	c.Start()
	m.cron = c
	slog.Info("Cache cleanup scheduled", "schedule", schedule, "caches", len(m.cleaners))
	return nil
}

// RunOnce cleans every registered cache immediately and returns the number
// of entries removed.
func (m *Manager) RunOnce() int {
	m.mu.Lock()
	cleaners := append([]registered(nil), m.cleaners...)
	m.mu.Unlock()

	total := 0
	for _, r := range cleaners {
		n := r.cleaner.CleanExpired()
		if n > 0 {
			slog.Debug("Expired cache entries removed", "cache", r.name, "count", n)
		}
		total += n
	}
	return total
}

// Stop waits for a running cleanup to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	m.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}
