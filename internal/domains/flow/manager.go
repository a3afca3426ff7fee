package flow

import (
	"concierge/config"
	"concierge/internal/domains/scheduling"
	"concierge/internal/events"
	"concierge/shared/failure"
	"concierge/shared/timezone"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Manager keeps the live booking flows keyed by id. Each flow owns its own
// orchestrator, so nothing here is shared between sessions except the
// collaborators they are built from.
type Manager struct {
	mu    sync.RWMutex
	flows map[string]*Orchestrator

	cfg     *config.Config
	gateway scheduling.Gateway
	leads   LeadRecorder
	bus     events.Bus

	stop chan struct{}
	once sync.Once
}

func NewManager(cfg *config.Config, gateway scheduling.Gateway, leads LeadRecorder, bus events.Bus) *Manager {
	m := &Manager{
		flows:   make(map[string]*Orchestrator),
		cfg:     cfg,
		gateway: gateway,
		leads:   leads,
		bus:     bus,
		stop:    make(chan struct{}),
	}

	go m.sweep()

	return m
}

// Create starts a fresh flow at the date step with an empty cache.
func (m *Manager) Create() *Orchestrator {
	orch := newOrchestrator(uuid.NewString(), m.gateway, m.leads, m.bus)

	m.mu.Lock()
	m.flows[orch.ID()] = orch
	m.mu.Unlock()

	log.Info().Str("flowID", orch.ID()).Msg("booking flow created")

	return orch
}

func (m *Manager) Get(id string) (*Orchestrator, error) {
	m.mu.RLock()
	orch, ok := m.flows[id]
	m.mu.RUnlock()

	if !ok {
		return nil, failure.NotFound("booking flow not found") //nolint:wrapcheck
	}

	return orch, nil
}

// Close marks the flow closed before removing it, so in-flight work holding
// the orchestrator cannot apply results to a session that no longer exists.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	orch, ok := m.flows[id]
	delete(m.flows, id)
	m.mu.Unlock()

	if !ok {
		return failure.NotFound("booking flow not found") //nolint:wrapcheck
	}

	orch.close()

	log.Info().Str("flowID", id).Msg("booking flow closed")

	return nil
}

// Shutdown stops the idle sweeper and closes every remaining flow.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		close(m.stop)
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, orch := range m.flows {
		orch.close()
		delete(m.flows, id)
	}
}

func (m *Manager) sweep() {
	period := time.Duration(m.cfg.Session.SweepPeriodSeconds) * time.Second
	if period <= 0 {
		period = time.Minute
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *Manager) evictIdle() {
	ttl := time.Duration(m.cfg.Session.TTLMinutes) * time.Minute
	if ttl <= 0 {
		return
	}

	deadline := timezone.Now().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, orch := range m.flows {
		if orch.idleSince().Before(deadline) {
			orch.close()
			delete(m.flows, id)
			log.Info().Str("flowID", id).Msg("booking flow evicted after idle timeout")
		}
	}
}
