// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package query

import (
	"testing"

	"github.com/nsa-x/console/internal/models"
)

func TestCacheSetGetInvalidate(t *testing.T) {
	cache := NewCache(nil)

	key := AlertDetailKey("a1")
	if _, ok := cache.Get(key); ok {
		t.Fatal("hit on empty cache")
	}

	detail := &models.AlertDetail{Alert: models.Alert{ID: "a1"}}
	cache.Set(key, detail)

	got, ok := cache.Get(key)
	if !ok || got.(*models.AlertDetail) != detail {
		t.Fatalf("Get = %v, %v", got, ok)
	}

	cache.Invalidate(key)
	if _, ok := cache.Get(key); ok {
		t.Error("entry survived invalidation")
	}
	// Invalidating an absent key is a no-op.
	cache.Invalidate(key)
}

func TestCacheInvalidatePrefix(t *testing.T) {
	cache := NewCache(nil)

	cache.Set(AlertListKey(models.AlertFilters{Limit: 20}), Page[models.Alert]{})
	cache.Set(AlertListKey(models.AlertFilters{Limit: 20, Status: models.StatusPending}), Page[models.Alert]{})
	cache.Set(AlertDetailKey("a1"), &models.AlertDetail{})
	cache.Set(EventListKey(models.EventFilters{Limit: 20}), Page[models.Event]{})

	cache.InvalidatePrefix(AlertListPrefix)

	if cache.Len() != 2 {
		t.Errorf("Len = %d after prefix invalidation, want 2", cache.Len())
	}
	if _, ok := cache.Get(AlertDetailKey("a1")); !ok {
		t.Error("detail entry swept by list prefix invalidation")
	}
	if _, ok := cache.Get(EventListKey(models.EventFilters{Limit: 20})); !ok {
		t.Error("event list swept by alert prefix invalidation")
	}
}

func TestCacheUpdate(t *testing.T) {
	cache := NewCache(nil)
	key := AlertDetailKey("a1")
	cache.Set(key, &models.AlertDetail{Alert: models.Alert{ID: "a1", Status: models.StatusPending}})

	cache.Update(key, func(old interface{}, exists bool) (interface{}, bool) {
		if !exists {
			return nil, false
		}
		detail := *old.(*models.AlertDetail)
		detail.Status = models.StatusEscalated
		return &detail, true
	})

	got, _ := cache.Get(key)
	if got.(*models.AlertDetail).Status != models.StatusEscalated {
		t.Errorf("status = %q after update", got.(*models.AlertDetail).Status)
	}

	// An absent entry with ok=false leaves the cache unchanged.
	missing := AlertDetailKey("a2")
	cache.Update(missing, func(old interface{}, exists bool) (interface{}, bool) {
		if exists {
			t.Error("exists = true for absent key")
		}
		return nil, false
	})
	if _, ok := cache.Get(missing); ok {
		t.Error("update of absent key created an entry")
	}
}

func TestKeyResource(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{AlertDetailKey("a1"), "alerts"},
		{EventListKey(models.EventFilters{Limit: 20}), "events"},
		{RulesKey, "rules"},
		{HealthKey, "system"},
	}
	for _, tt := range tests {
		if got := tt.key.Resource(); got != tt.want {
			t.Errorf("Resource(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestListKeysDistinguishFilters(t *testing.T) {
	a := AlertListKey(models.AlertFilters{Limit: 20})
	b := AlertListKey(models.AlertFilters{Limit: 20, Status: models.StatusPending})
	if a == b {
		t.Error("distinct filter sets produced the same key")
	}
}
