package session

import (
	"sync"
	"time"
)

// MonitorConfig holds the sweep timings.
type MonitorConfig struct {
	Interval        time.Duration
	ActivityTimeout time.Duration
	IdleTimeout     time.Duration
}

// Monitor periodically expires stuck tool state and computes the global idle
// flag. It mutates the store through the same serialized path as ingestion.
type Monitor struct {
	store *Store

	mu  sync.Mutex
	cfg MonitorConfig

	done    chan struct{}
	stopped sync.Once
}

// NewMonitor creates a monitor for the store. Call Start to begin sweeping.
func NewMonitor(store *Store, cfg MonitorConfig) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.ActivityTimeout <= 0 {
		cfg.ActivityTimeout = 45 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Second
	}
	return &Monitor{
		store: store,
		cfg:   cfg,
		done:  make(chan struct{}),
	}
}

// Start launches the periodic sweep.
func (m *Monitor) Start() {
	go m.run()
}

// Stop halts the sweep. Safe to call more than once.
func (m *Monitor) Stop() {
	m.stopped.Do(func() { close(m.done) })
}

// UpdateConfig applies new timeouts from a settings reload. The interval
// change takes effect on the next tick.
func (m *Monitor) UpdateConfig(cfg MonitorConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cfg.Interval > 0 {
		m.cfg.Interval = cfg.Interval
	}
	if cfg.ActivityTimeout > 0 {
		m.cfg.ActivityTimeout = cfg.ActivityTimeout
	}
	if cfg.IdleTimeout > 0 {
		m.cfg.IdleTimeout = cfg.IdleTimeout
	}
}

func (m *Monitor) run() {
	for {
		m.mu.Lock()
		interval := m.cfg.Interval
		m.mu.Unlock()

		select {
		case <-m.done:
			return
		case <-time.After(interval):
			m.Sweep()
		}
	}
}

// Sweep runs both checks once. Exported so tests drive it without timers.
func (m *Monitor) Sweep() {
	m.mu.Lock()
	activity := m.cfg.ActivityTimeout
	idle := m.cfg.IdleTimeout
	m.mu.Unlock()

	m.store.sweepStuckTools(activity)
	m.store.sweepIdle(idle)
}
