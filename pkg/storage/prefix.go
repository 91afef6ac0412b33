package storage

import "context"

// Prefixed scopes every key of kv under prefix, so several players can
// share one backing store. Close is a no-op; the caller owns kv.
func Prefixed(kv KV, prefix string) KV {
	return &prefixedKV{kv: kv, prefix: prefix}
}

type prefixedKV struct {
	kv     KV
	prefix string
}

func (p *prefixedKV) Ping(ctx context.Context) error { return p.kv.Ping(ctx) }
func (p *prefixedKV) Close() error                   { return nil }

func (p *prefixedKV) Get(ctx context.Context, key string) (string, error) {
	return p.kv.Get(ctx, p.prefix+key)
}

func (p *prefixedKV) Set(ctx context.Context, key, value string) error {
	return p.kv.Set(ctx, p.prefix+key, value)
}
