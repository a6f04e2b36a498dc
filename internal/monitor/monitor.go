package monitor

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"vestry/internal/events"

	"github.com/rs/zerolog"
)

// ConnectivityMonitor probes a well-known endpoint on an interval and
// publishes online/offline transitions on the event bus. It starts offline
// until the first successful probe.
type ConnectivityMonitor struct {
	probeURL string
	interval time.Duration
	client   *http.Client
	eventBus *events.EventBus
	logger   *zerolog.Logger

	offline atomic.Bool
}

func New(probeURL string, interval time.Duration, eventBus *events.EventBus, logger *zerolog.Logger) *ConnectivityMonitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	m := &ConnectivityMonitor{
		probeURL: probeURL,
		interval: interval,
		client:   &http.Client{Timeout: 5 * time.Second},
		eventBus: eventBus,
		logger:   logger,
	}
	m.offline.Store(true)
	return m
}

// IsOffline reports the last observed connectivity state.
func (m *ConnectivityMonitor) IsOffline() bool {
	return m.offline.Load()
}

// Start probes immediately, then on every tick until the context is done.
func (m *ConnectivityMonitor) Start(ctx context.Context) {
	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

// SetOffline forces the state, publishing the transition event if it changed.
// Used by tests and by an explicit "work offline" toggle.
func (m *ConnectivityMonitor) SetOffline(offline bool) {
	was := m.offline.Swap(offline)
	if was == offline {
		return
	}

	if offline {
		m.logger.Warn().Msg("connectivity lost")
		m.publish(events.EventWentOffline)
	} else {
		m.logger.Info().Msg("connectivity restored")
		m.publish(events.EventWentOnline)
	}
}

func (m *ConnectivityMonitor) probe(ctx context.Context) {
	reqCtx, cancel := context.WithTimeout(ctx, m.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, m.probeURL, nil)
	if err != nil {
		m.logger.Error().Err(err).Str("url", m.probeURL).Msg("bad probe url")
		return
	}

	resp, err := m.client.Do(req)
	if err != nil {
		m.SetOffline(true)
		return
	}
	resp.Body.Close()

	// Any HTTP response at all proves the network path works.
	m.SetOffline(false)
}

func (m *ConnectivityMonitor) publish(eventType string) {
	if m.eventBus == nil {
		return
	}
	if err := m.eventBus.PublishJSON(eventType, struct{}{}); err != nil {
		m.logger.Error().Err(err).Str("event_type", eventType).Msg("publish connectivity event error")
	}
}
