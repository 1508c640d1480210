package redisx

import (
	"context"
	"encoding/json"
	"github.com/ariefcatur/go-realtime-store/internal/invoices"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"time"
)

// fillScript writes the cache entry only while the version read before the
// database lookup is still current. A missing version key reads as "".
var fillScript = redis.NewScript(`
local v = redis.call('GET', KEYS[2]) or ''
if v ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// InvoiceCache keeps read-mostly invoice lookups off Postgres. Every
// invalidation bumps a per-invoice version, so a fill that started before a
// committed change is refused instead of writing the old row back.
type InvoiceCache struct {
	RDB redis.Cmdable
	TTL time.Duration
}

func NewInvoiceCache(rdb redis.Cmdable) *InvoiceCache {
	return &InvoiceCache{RDB: rdb, TTL: TTLInvoiceCache}
}

// Get returns nil, nil on a miss.
func (c *InvoiceCache) Get(ctx context.Context, code string) (*invoices.Invoice, error) {
	b, err := c.RDB.Get(ctx, InvoiceKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "invoice cache: get")
	}
	var inv invoices.Invoice
	if err := json.Unmarshal(b, &inv); err != nil {
		return nil, errors.Wrap(err, "invoice cache: decode")
	}
	return &inv, nil
}

// Version must be read before the database lookup whose result is passed
// to SetIfCurrent.
func (c *InvoiceCache) Version(ctx context.Context, code string) (string, error) {
	v, err := c.RDB.Get(ctx, InvoiceVersionKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, errors.Wrap(err, "invoice cache: version")
}

// SetIfCurrent reports false when the invoice was invalidated after version
// was read; the entry is then left empty.
func (c *InvoiceCache) SetIfCurrent(ctx context.Context, inv *invoices.Invoice, version string) (bool, error) {
	b, err := json.Marshal(inv)
	if err != nil {
		return false, errors.Wrap(err, "invoice cache: encode")
	}
	n, err := fillScript.Run(ctx, c.RDB,
		[]string{InvoiceKey(inv.Code), InvoiceVersionKey(inv.Code)},
		version, b, c.TTL.Milliseconds(),
	).Int()
	if err != nil {
		return false, errors.Wrap(err, "invoice cache: fill")
	}
	return n == 1, nil
}

func (c *InvoiceCache) Invalidate(ctx context.Context, codes ...string) error {
	if len(codes) == 0 {
		return nil
	}
	_, err := c.RDB.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, code := range codes {
			pipe.Incr(ctx, InvoiceVersionKey(code))
			pipe.Expire(ctx, InvoiceVersionKey(code), TTLInvoiceVersion)
			pipe.Del(ctx, InvoiceKey(code))
		}
		return nil
	})
	return errors.Wrap(err, "invoice cache: invalidate")
}
