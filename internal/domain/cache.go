package domain

import (
	"context"
	"time"
)

// Quote is a resolved price for one symbol.
type Quote struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	AsOf   time.Time `json:"as_of"`
}

// Profile is optional auxiliary data about an instrument's history.
type Profile struct {
	Symbol     string       `json:"symbol"`
	Return1M   float64      `json:"return_1m"`
	Return3M   float64      `json:"return_3m"`
	WeakMonths []time.Month `json:"weak_months,omitempty"`
}

// PriceProvider resolves current prices and profiles. Symbols it cannot
// resolve are simply absent from the returned maps.
type PriceProvider interface {
	Quotes(ctx context.Context, symbols []string) (map[string]Quote, error)
	Profiles(ctx context.Context, symbols []string) (map[string]Profile, error)
}

// PriceCache is the writable side of the price provider.
type PriceCache interface {
	PriceProvider
	SetQuote(ctx context.Context, q Quote) error
	SetProfile(ctx context.Context, p Profile) error
}

// CandidateStore holds the latest scan results.
type CandidateStore interface {
	Put(ctx context.Context, candidates []Candidate) error
	List(ctx context.Context) ([]Candidate, error)
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// StreamMessage represents a single entry from a Redis stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus provides pub/sub and durable streams.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}
