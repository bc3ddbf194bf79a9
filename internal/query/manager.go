// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package query

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nsa-x/console/internal/config"
	"github.com/nsa-x/console/internal/logging"
	"github.com/nsa-x/console/internal/models"
	"github.com/nsa-x/console/internal/notify"
	"github.com/nsa-x/console/internal/nsax"
)

// ErrEmptyID is returned by the ByID accessors for an empty id. No request
// is dispatched.
var ErrEmptyID = errors.New("query: empty resource id")

// activeFilters tracks the filter set a poller refreshes, with a generation
// counter so responses fetched before a filter change are discarded instead
// of overwriting the newer view.
type activeFilters[F any] struct {
	filters F
	gen     uint64
}

func (a *activeFilters[F]) set(filters F) {
	a.filters = filters
	a.gen++
}

// Manager is the query front for every backend resource the console shows.
// List reads go through the cache; pollers refresh the active filter set on
// a fixed interval; decision and status mutations invalidate what they
// touched.
type Manager struct {
	client *nsax.Client
	probe  *nsax.HealthProbe
	cache  *Cache
	bus    *notify.Bus
	cfg    config.PollingConfig

	// Injectable for deterministic decision tests.
	now   func() time.Time
	newID func() string

	mu     sync.Mutex
	events activeFilters[models.EventFilters]
	alerts activeFilters[models.AlertFilters]
	audit  activeFilters[models.AuditFilters]
}

// NewManager builds a query manager. bus may be nil in tests.
func NewManager(client *nsax.Client, cache *Cache, bus *notify.Bus, cfg config.PollingConfig) *Manager {
	m := &Manager{
		client: client,
		probe:  nsax.NewHealthProbe(client),
		cache:  cache,
		bus:    bus,
		cfg:    cfg,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	m.events.filters = models.EventFilters{Limit: cfg.PageSize}
	m.alerts.filters = models.AlertFilters{Limit: cfg.PageSize}
	m.audit.filters = models.AuditFilters{Limit: cfg.AuditPageSize}
	return m
}

// Events returns the cached events page for filters, fetching on a miss.
// The filter set becomes the active one for the events poller.
func (m *Manager) Events(ctx context.Context, filters models.EventFilters) (Page[models.Event], error) {
	if filters.Limit <= 0 {
		filters.Limit = m.cfg.PageSize
	}

	m.mu.Lock()
	m.events.set(filters)
	m.mu.Unlock()

	key := EventListKey(filters)
	if cached, ok := m.cache.Get(key); ok {
		return cached.(Page[models.Event]), nil
	}

	events, err := m.client.ListEvents(ctx, filters)
	if err != nil {
		return Page[models.Event]{}, err
	}
	page := newPage(events, filters.Limit, filters.Offset)
	m.cache.Set(key, page)
	return page, nil
}

// EventByID returns one event, cached after first fetch.
func (m *Manager) EventByID(ctx context.Context, id string) (*models.Event, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	key := EventDetailKey(id)
	if cached, ok := m.cache.Get(key); ok {
		return cached.(*models.Event), nil
	}
	event, err := m.client.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	m.cache.Set(key, event)
	return event, nil
}

// ProcessedEvent returns the processed form of an event, cached after first
// fetch.
func (m *Manager) ProcessedEvent(ctx context.Context, id string) (*models.ProcessedEvent, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	key := ProcessedEventKey(id)
	if cached, ok := m.cache.Get(key); ok {
		return cached.(*models.ProcessedEvent), nil
	}
	processed, err := m.client.GetProcessedEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	m.cache.Set(key, processed)
	return processed, nil
}

// IngestEvent submits an event through the pipeline and invalidates the
// event lists so the new event shows up on the next read.
func (m *Manager) IngestEvent(ctx context.Context, event models.EventCreate) (*models.PipelineResult, error) {
	result, err := m.client.IngestEvent(ctx, event)
	if err != nil {
		return nil, err
	}
	m.cache.InvalidatePrefix(EventListPrefix)
	return result, nil
}

// Alerts returns the cached alerts page for filters, fetching on a miss.
func (m *Manager) Alerts(ctx context.Context, filters models.AlertFilters) (Page[models.Alert], error) {
	if filters.Limit <= 0 {
		filters.Limit = m.cfg.PageSize
	}

	m.mu.Lock()
	m.alerts.set(filters)
	m.mu.Unlock()

	key := AlertListKey(filters)
	if cached, ok := m.cache.Get(key); ok {
		return cached.(Page[models.Alert]), nil
	}

	alerts, err := m.client.ListAlerts(ctx, filters)
	if err != nil {
		return Page[models.Alert]{}, err
	}
	page := newPage(alerts, filters.Limit, filters.Offset)
	m.cache.Set(key, page)
	return page, nil
}

// AlertByID returns a full alert context, cached after first fetch.
func (m *Manager) AlertByID(ctx context.Context, id string) (*models.AlertDetail, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	key := AlertDetailKey(id)
	if cached, ok := m.cache.Get(key); ok {
		return cached.(*models.AlertDetail), nil
	}
	detail, err := m.client.GetAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	m.cache.Set(key, detail)
	return detail, nil
}

// UpdateAlertStatus transitions an alert's workflow status, patches the
// cached detail and invalidates the alert lists.
func (m *Manager) UpdateAlertStatus(ctx context.Context, id string, status models.AlertStatus) (*models.Alert, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	updated, err := m.client.UpdateAlertStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	m.cache.Update(AlertDetailKey(id), func(old interface{}, exists bool) (interface{}, bool) {
		if !exists {
			return nil, false
		}
		detail := *old.(*models.AlertDetail)
		detail.Status = updated.Status
		detail.UpdatedAt = updated.UpdatedAt
		return &detail, true
	})
	m.cache.InvalidatePrefix(AlertListPrefix)
	return updated, nil
}

// PendingAlertCount returns the number of pending alerts on the first page.
// Like Page.Total this undercounts past one page; the dashboard badge only
// distinguishes zero from nonzero and small counts.
func (m *Manager) PendingAlertCount(ctx context.Context) (int, error) {
	page, err := m.Alerts(ctx, models.AlertFilters{
		Limit:  m.cfg.PageSize,
		Status: models.StatusPending,
	})
	if err != nil {
		return 0, err
	}
	return len(page.Items), nil
}

// Audit returns the cached audit page for filters, fetching on a miss.
func (m *Manager) Audit(ctx context.Context, filters models.AuditFilters) (Page[models.AuditEntry], error) {
	if filters.Limit <= 0 {
		filters.Limit = m.cfg.AuditPageSize
	}

	m.mu.Lock()
	m.audit.set(filters)
	m.mu.Unlock()

	key := AuditListKey(filters)
	if cached, ok := m.cache.Get(key); ok {
		return cached.(Page[models.AuditEntry]), nil
	}

	entries, err := m.client.ListAudit(ctx, filters)
	if err != nil {
		return Page[models.AuditEntry]{}, err
	}
	page := newPage(entries, filters.Limit, filters.Offset)
	m.cache.Set(key, page)
	return page, nil
}

// Rules returns all detection rules. Rules change rarely; they are fetched
// once and refreshed only on explicit invalidation.
func (m *Manager) Rules(ctx context.Context) ([]models.Rule, error) {
	if cached, ok := m.cache.Get(RulesKey); ok {
		return cached.([]models.Rule), nil
	}
	rules, err := m.client.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	m.cache.Set(RulesKey, rules)
	return rules, nil
}

// RuleByID returns one rule, cached after first fetch.
func (m *Manager) RuleByID(ctx context.Context, id string) (*models.Rule, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	key := RuleKey(id)
	if cached, ok := m.cache.Get(key); ok {
		return cached.(*models.Rule), nil
	}
	rule, err := m.client.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}
	m.cache.Set(key, rule)
	return rule, nil
}

// InvalidateRules drops the cached rule set so the next read re-fetches.
func (m *Manager) InvalidateRules() {
	m.cache.Invalidate(RulesKey)
	m.cache.InvalidatePrefix("rules:detail:")
}

// Health returns the last known backend health, fetching through the
// circuit breaker on a miss.
func (m *Manager) Health(ctx context.Context) (*models.Health, error) {
	if cached, ok := m.cache.Get(HealthKey); ok {
		return cached.(*models.Health), nil
	}
	health, err := m.probe.Check(ctx)
	if err != nil {
		return nil, err
	}
	m.cache.Set(HealthKey, health)
	return health, nil
}

// refreshEvents re-fetches the active events page. The response is dropped
// if the active filters changed while the request was in flight.
func (m *Manager) refreshEvents(ctx context.Context) error {
	m.mu.Lock()
	filters, gen := m.events.filters, m.events.gen
	m.mu.Unlock()

	events, err := m.client.ListEvents(ctx, filters)
	if err != nil {
		return err
	}

	m.mu.Lock()
	stale := m.events.gen != gen
	m.mu.Unlock()
	if stale {
		logging.Debug().Msg("Discarding stale events poll response")
		return nil
	}
	m.cache.Set(EventListKey(filters), newPage(events, filters.Limit, filters.Offset))
	return nil
}

func (m *Manager) refreshAlerts(ctx context.Context) error {
	m.mu.Lock()
	filters, gen := m.alerts.filters, m.alerts.gen
	m.mu.Unlock()

	alerts, err := m.client.ListAlerts(ctx, filters)
	if err != nil {
		return err
	}

	m.mu.Lock()
	stale := m.alerts.gen != gen
	m.mu.Unlock()
	if stale {
		logging.Debug().Msg("Discarding stale alerts poll response")
		return nil
	}
	m.cache.Set(AlertListKey(filters), newPage(alerts, filters.Limit, filters.Offset))
	return nil
}

func (m *Manager) refreshAudit(ctx context.Context) error {
	m.mu.Lock()
	filters, gen := m.audit.filters, m.audit.gen
	m.mu.Unlock()

	entries, err := m.client.ListAudit(ctx, filters)
	if err != nil {
		return err
	}

	m.mu.Lock()
	stale := m.audit.gen != gen
	m.mu.Unlock()
	if stale {
		logging.Debug().Msg("Discarding stale audit poll response")
		return nil
	}
	m.cache.Set(AuditListKey(filters), newPage(entries, filters.Limit, filters.Offset))
	return nil
}

func (m *Manager) refreshHealth(ctx context.Context) error {
	health, err := m.probe.Check(ctx)
	if err != nil {
		// Keep the stale entry; the dashboard shows last known state plus
		// the staleness implied by a failing poll.
		return err
	}
	m.cache.Set(HealthKey, health)
	return nil
}

// Pollers returns the repeating refresh tasks for the live resources, ready
// to run under supervision.
func (m *Manager) Pollers() []*Poller {
	interval := m.cfg.Interval
	return []*Poller{
		NewPoller("events", interval, m.refreshEvents),
		NewPoller("alerts", interval, m.refreshAlerts),
		NewPoller("audit", interval, m.refreshAudit),
		NewPoller("health", interval, m.refreshHealth),
	}
}
