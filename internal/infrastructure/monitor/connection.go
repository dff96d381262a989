package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Probe checks one dependency.
type Probe func(ctx context.Context) error

type check struct {
	name     string
	required bool
	probe    Probe
}

// SizeFunc reports the spool backlog.
type SizeFunc func() int

// Monitor probes dependencies on an interval and serves the last snapshot.
type Monitor struct {
	checks    []check
	spoolSize SizeFunc

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

// AddCheck registers a probe. Required probes decide overall health.
func (m *Monitor) AddCheck(name string, required bool, probe Probe) *Monitor {
	if probe != nil {
		m.checks = append(m.checks, check{name: name, required: required, probe: probe})
	}
	return m
}

// WithPostgres registers the event store as a required dependency.
func (m *Monitor) WithPostgres(pool *pgxpool.Pool) *Monitor {
	if pool == nil {
		return m
	}
	return m.AddCheck("postgresql", true, pool.Ping)
}

// WithRedis registers the rule cache as an optional dependency.
func (m *Monitor) WithRedis(client *redislib.Client) *Monitor {
	if client == nil {
		return m
	}
	return m.AddCheck("redis", false, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

// WithSpool reports the spool backlog in each snapshot.
func (m *Monitor) WithSpool(size SizeFunc) *Monitor {
	m.spoolSize = size
	return m
}

func (m *Monitor) Start() {
	m.Refresh(context.Background())
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether every required dependency answered the last probe.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Healthy
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.status
	out.Components = make(map[string]Component, len(m.status.Components))
	for k, v := range m.status.Components {
		out.Components[k] = v
	}
	return out
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Refresh(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

// Refresh runs every probe once and stores the result.
func (m *Monitor) Refresh(ctx context.Context) {
	status := Status{
		Healthy:    true,
		Components: make(map[string]Component, len(m.checks)),
		LastCheck:  time.Now(),
	}
	for _, c := range m.checks {
		probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := c.probe(probeCtx)
		cancel()

		comp := Component{Up: err == nil, Required: c.required}
		if err != nil {
			comp.Error = err.Error()
			if c.required {
				status.Healthy = false
			}
			m.logger.Warn("dependency check failed", zap.String("component", c.name), zap.Error(err))
		}
		status.Components[c.name] = comp
	}
	if m.spoolSize != nil {
		status.SpoolSize = m.spoolSize()
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}
