package oauthstate

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/loyaltyauth/internal/oauth"
	gocache "github.com/patrickmn/go-cache"
)

// memoryStore guarda registros en go-cache sin expiración nativa: el
// vencimiento sale del Timestamp del registro y CleanupExpired hace el barrido.
type memoryStore struct {
	c   *gocache.Cache
	ttl time.Duration
	now func() time.Time

	takeMu sync.Mutex // serializa Take; go-cache no tiene get-and-delete
}

// NewMemory crea un store en memoria. Útil para desarrollo y un único nodo.
func NewMemory(ttl time.Duration) Store {
	return newMemory(ttl, time.Now)
}

func newMemory(ttl time.Duration, now func() time.Time) *memoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &memoryStore{
		c:   gocache.New(gocache.NoExpiration, 0),
		ttl: ttl,
		now: now,
	}
}

func (m *memoryStore) Create(ctx context.Context, rec Record) (string, error) {
	if err := prepare(&rec, m.now()); err != nil {
		return "", err
	}
	m.c.Set(key(rec.Provider, rec.Token), rec.clone(), gocache.NoExpiration)
	return rec.Token, nil
}

func (m *memoryStore) Get(ctx context.Context, token string, provider oauth.Provider) (*Record, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	k := key(provider, token)
	v, ok := m.c.Get(k)
	if !ok {
		return nil, ErrNotFound
	}
	rec, ok := v.(*Record)
	if !ok || rec.Provider != provider {
		return nil, ErrNotFound
	}
	if expired(rec, m.ttl, m.now()) {
		m.c.Delete(k)
		return nil, ErrNotFound
	}
	return rec.clone(), nil
}

func (m *memoryStore) Take(ctx context.Context, token string, provider oauth.Provider) (*Record, error) {
	m.takeMu.Lock()
	defer m.takeMu.Unlock()
	rec, err := m.Get(ctx, token, provider)
	if err != nil {
		return nil, err
	}
	m.c.Delete(key(provider, token))
	return rec, nil
}

func (m *memoryStore) Delete(ctx context.Context, token string, provider oauth.Provider) error {
	m.c.Delete(key(provider, token))
	return nil
}

func (m *memoryStore) Stats(ctx context.Context) (Stats, error) {
	st := emptyStats("memory")
	now := m.now()
	for _, it := range m.c.Items() {
		rec, ok := it.Object.(*Record)
		if !ok || expired(rec, m.ttl, now) {
			continue
		}
		st.add(rec)
	}
	return st, nil
}

func (m *memoryStore) CleanupExpired(ctx context.Context) (int, error) {
	now := m.now()
	n := 0
	for k, it := range m.c.Items() {
		rec, ok := it.Object.(*Record)
		if ok && !expired(rec, m.ttl, now) {
			continue
		}
		m.c.Delete(k)
		n++
	}
	return n, nil
}

func (m *memoryStore) Ping(ctx context.Context) error { return nil }

func (m *memoryStore) Close() error {
	m.c.Flush()
	return nil
}
