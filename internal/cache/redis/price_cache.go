package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

// PriceCache implements domain.PriceCache. Quotes live in hashes at
// "quote:{symbol}" with fields "price" and "ts" (Unix nanoseconds); profiles
// are JSON strings at "profile:{symbol}".
type PriceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPriceCache creates a PriceCache. A positive ttl expires quotes and
// profiles that are not refreshed.
func NewPriceCache(c *Client, ttl time.Duration) *PriceCache {
	return &PriceCache{rdb: c.rdb, ttl: ttl}
}

func quoteKey(symbol string) string   { return "quote:" + symbol }
func profileKey(symbol string) string { return "profile:" + symbol }

// SetQuote stores the latest quote for a symbol.
func (pc *PriceCache) SetQuote(ctx context.Context, q domain.Quote) error {
	key := quoteKey(q.Symbol)
	pipe := pc.rdb.TxPipeline()
	pipe.HSet(ctx, key,
		"price", strconv.FormatFloat(q.Price, 'f', -1, 64),
		"ts", strconv.FormatInt(q.AsOf.UnixNano(), 10),
	)
	if pc.ttl > 0 {
		pipe.Expire(ctx, key, pc.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set quote %s: %w", q.Symbol, err)
	}
	return nil
}

// Quotes fetches quotes for symbols in one pipeline. Missing or malformed
// entries are omitted.
func (pc *PriceCache) Quotes(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	out := make(map[string]domain.Quote, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}

	pipe := pc.rdb.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(symbols))
	for _, s := range symbols {
		cmds[s] = pipe.HGetAll(ctx, quoteKey(s))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis: get quotes: %w", err)
	}

	for symbol, cmd := range cmds {
		q, ok := parseQuote(symbol, cmd.Val())
		if ok {
			out[symbol] = q
		}
	}
	return out, nil
}

func parseQuote(symbol string, vals map[string]string) (domain.Quote, bool) {
	price, err := strconv.ParseFloat(vals["price"], 64)
	if err != nil {
		return domain.Quote{}, false
	}
	ts, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return domain.Quote{}, false
	}
	return domain.Quote{Symbol: symbol, Price: price, AsOf: time.Unix(0, ts).UTC()}, true
}

// SetProfile stores the profile of a symbol.
func (pc *PriceCache) SetProfile(ctx context.Context, p domain.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("redis: marshal profile %s: %w", p.Symbol, err)
	}
	if err := pc.rdb.Set(ctx, profileKey(p.Symbol), data, pc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set profile %s: %w", p.Symbol, err)
	}
	return nil
}

// Profiles fetches profiles for symbols with a single MGET.
func (pc *PriceCache) Profiles(ctx context.Context, symbols []string) (map[string]domain.Profile, error) {
	out := make(map[string]domain.Profile, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}

	keys := make([]string, len(symbols))
	for i, s := range symbols {
		keys[i] = profileKey(s)
	}
	vals, err := pc.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get profiles: %w", err)
	}

	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var p domain.Profile
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			continue
		}
		p.Symbol = symbols[i]
		out[symbols[i]] = p
	}
	return out, nil
}

var _ domain.PriceCache = (*PriceCache)(nil)
