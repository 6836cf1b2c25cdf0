package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Checker-Finance/basedata-adapter/pkg/model"
)

type memoryItem struct {
	record     model.InstrumentRecord
	expiration time.Time
}

// MemoryStore is an in-process RecordCache with a fixed TTL, used when no
// Redis address is configured. Records are copied in and out.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryItem
	ttl  time.Duration
	now  func() time.Time
}

func NewMemory(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		data: make(map[string]memoryItem),
		ttl:  ttl,
		now:  time.Now,
	}
}

// GetRecord returns the cached record, or nil without error on a miss.
func (m *MemoryStore) GetRecord(_ context.Context, key RecordKey) (*model.InstrumentRecord, error) {
	k := key.String()
	m.mu.RLock()
	item, ok := m.data[k]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if m.now().After(item.expiration) {
		m.mu.Lock()
		// a concurrent PutRecord may have refreshed the entry
		item, ok = m.data[k]
		if ok && m.now().After(item.expiration) {
			delete(m.data, k)
			ok = false
		}
		m.mu.Unlock()
		if !ok {
			return nil, nil
		}
	}
	rec := cloneRecord(item.record)
	return &rec, nil
}

func (m *MemoryStore) PutRecord(_ context.Context, key RecordKey, rec *model.InstrumentRecord) error {
	if rec == nil {
		return errors.New("nil record")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key.String()] = memoryItem{
		record:     cloneRecord(*rec),
		expiration: m.now().Add(m.ttl),
	}
	return nil
}

// Len reports the number of entries, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// StartCleaner periodically removes expired entries until stop is closed.
func (m *MemoryStore) StartCleaner(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.cleanupExpired()
		case <-stop:
			return
		}
	}
}

func (m *MemoryStore) cleanupExpired() {
	now := m.now()
	m.mu.Lock()
	for k, v := range m.data {
		if now.After(v.expiration) {
			delete(m.data, k)
		}
	}
	m.mu.Unlock()
}

func (m *MemoryStore) HealthCheck(context.Context) error { return nil }

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	m.data = make(map[string]memoryItem)
	m.mu.Unlock()
	return nil
}

func cloneRecord(r model.InstrumentRecord) model.InstrumentRecord {
	r.SecondaryIdentifier = cloneString(r.SecondaryIdentifier)
	r.Symbol = cloneString(r.Symbol)
	r.DefaultVenueID = cloneString(r.DefaultVenueID)
	r.PreferredLifeTradingVenueID = cloneString(r.PreferredLifeTradingVenueID)
	r.PreferredExchangeTradingVenueID = cloneString(r.PreferredExchangeTradingVenueID)
	r.LifeTradingVenues = cloneMap(r.LifeTradingVenues)
	r.ExchangeTradingVenues = cloneMap(r.ExchangeTradingVenues)
	return r
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
