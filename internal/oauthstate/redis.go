package oauthstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/loyaltyauth/internal/oauth"
	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// redisStore guarda cada registro como JSON en oauth_state:{provider}:{token}
// con SET EX; Redis se encarga del desalojo.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
	owned  bool
}

// NewRedis conecta a Redis y verifica la conexión.
func NewRedis(cfg RedisConfig, ttl time.Duration) (Store, error) {
	client, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	s := newRedisStore(client, ttl)
	s.owned = true
	return s, nil
}

// NewRedisClient construye el cliente a partir de URL o Addr y hace ping (5s).
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		o, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("oauthstate: redis url: %w", err)
		}
		opts = o
	} else {
		addr := cfg.Addr
		if addr == "" {
			addr = "localhost:6379"
		}
		if !strings.Contains(addr, ":") {
			addr += ":6379"
		}
		opts = &redis.Options{Addr: addr, Password: cfg.Password, DB: cfg.DB}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: redis ping: %v", ErrUnavailable, err)
	}
	return client, nil
}

// NewRedisFromClient reutiliza un cliente existente (compartido con el rate limiter).
// Close no cierra el cliente.
func NewRedisFromClient(client *redis.Client, ttl time.Duration) Store {
	return newRedisStore(client, ttl)
}

func newRedisStore(client *redis.Client, ttl time.Duration) *redisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisStore{client: client, ttl: ttl, now: time.Now}
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (s *redisStore) Create(ctx context.Context, rec Record) (string, error) {
	if err := prepare(&rec, s.now()); err != nil {
		return "", err
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("oauthstate: encode: %w", err)
	}
	if err := s.client.Set(ctx, key(rec.Provider, rec.Token), b, s.ttl).Err(); err != nil {
		return "", unavailable(err)
	}
	return rec.Token, nil
}

func (s *redisStore) Get(ctx context.Context, token string, provider oauth.Provider) (*Record, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	k := key(provider, token)
	b, err := s.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable(err)
	}
	rec, ok := s.decode(b, provider)
	if !ok {
		_ = s.client.Del(ctx, k).Err()
		return nil, ErrNotFound
	}
	return rec, nil
}

// Take usa GETDEL (Redis >= 6.2): la clave se consume en el mismo comando.
func (s *redisStore) Take(ctx context.Context, token string, provider oauth.Provider) (*Record, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	b, err := s.client.GetDel(ctx, key(provider, token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable(err)
	}
	rec, ok := s.decode(b, provider)
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

// decode descarta JSON roto, provider cruzado y registros vencidos.
func (s *redisStore) decode(b []byte, provider oauth.Provider) (*Record, bool) {
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, false
	}
	if rec.Provider != provider || expired(&rec, s.ttl, s.now()) {
		return nil, false
	}
	return &rec, true
}

func (s *redisStore) Delete(ctx context.Context, token string, provider oauth.Provider) error {
	if err := s.client.Del(ctx, key(provider, token)).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// scan recorre oauth_state:* en lotes y entrega cada clave con su valor.
// Un valor nil significa que la clave desapareció entre SCAN y MGET.
func (s *redisStore) scan(ctx context.Context, fn func(k string, v []byte)) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, keyPrefix+":*", scanBatch).Result()
		if err != nil {
			return unavailable(err)
		}
		if len(keys) > 0 {
			vals, err := s.client.MGet(ctx, keys...).Result()
			if err != nil {
				return unavailable(err)
			}
			for i, v := range vals {
				str, ok := v.(string)
				if !ok {
					fn(keys[i], nil)
					continue
				}
				fn(keys[i], []byte(str))
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (s *redisStore) Stats(ctx context.Context) (Stats, error) {
	st := emptyStats("redis")
	now := s.now()
	err := s.scan(ctx, func(k string, v []byte) {
		if v == nil {
			return
		}
		var rec Record
		if json.Unmarshal(v, &rec) != nil || expired(&rec, s.ttl, now) {
			return
		}
		st.add(&rec)
	})
	if err != nil {
		return Stats{}, err
	}
	return st, nil
}

// CleanupExpired cubre registros sin TTL (escritos a mano o migrados) y
// registros ilegibles.
func (s *redisStore) CleanupExpired(ctx context.Context) (int, error) {
	now := s.now()
	var stale []string
	err := s.scan(ctx, func(k string, v []byte) {
		if v == nil {
			return
		}
		var rec Record
		if json.Unmarshal(v, &rec) != nil || expired(&rec, s.ttl, now) {
			stale = append(stale, k)
		}
	})
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}
	n, err := s.client.Del(ctx, stale...).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	return int(n), nil
}

func (s *redisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *redisStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
