package activity

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type HealthCheck func(ctx context.Context) error

// ConnectivityMonitor polls a health check and signals every offline to online
// transition on Online. The first check only sets the initial state.
type ConnectivityMonitor struct {
	healthCheck HealthCheck
	interval    time.Duration
	timeout     time.Duration
	logger      *zap.Logger
	events      chan struct{}

	mu     sync.Mutex
	known  bool
	online bool
}

func NewConnectivityMonitor(check HealthCheck, interval time.Duration, logger *zap.Logger) *ConnectivityMonitor {
	timeout := 5 * time.Second
	if interval < timeout {
		timeout = interval
	}

	return &ConnectivityMonitor{
		healthCheck: check,
		interval:    interval,
		timeout:     timeout,
		logger:      logger,
		events:      make(chan struct{}, 1),
	}
}

func (m *ConnectivityMonitor) Online() <-chan struct{} {
	return m.events
}

func (m *ConnectivityMonitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Run polls until ctx is done.
func (m *ConnectivityMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.check(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *ConnectivityMonitor) check(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.healthCheck(checkCtx)
	cancel()

	online := err == nil

	m.mu.Lock()
	wasKnown, wasOnline := m.known, m.online
	m.known, m.online = true, online
	m.mu.Unlock()

	if !wasKnown || wasOnline == online {
		return
	}

	if !online {
		m.logger.Warn("activity endpoint unreachable", zap.Error(err))
		return
	}

	m.logger.Info("activity endpoint back online")
	select {
	case m.events <- struct{}{}:
	default:
	}
}
