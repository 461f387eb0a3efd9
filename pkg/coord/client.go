package coord

import (
	"context"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const (
	// DefaultTTL is the lease time-to-live applied when a Registry is
	// built without an explicit TTL.
	DefaultTTL = 10

	// opTimeout bounds individual store round trips (grant, put, list).
	opTimeout = 3 * time.Second
)

// KV is one key/value pair read from the coordination store.
type KV struct {
	Key   string
	Value string
}

// Config selects the coordination store endpoints.
type Config struct {
	Endpoints   []string
	DialTimeout time.Duration
}

// Client is a thin facade over the etcd v3 client exposing only the
// operations the registry and discovery layers need: leased puts, prefix
// listing and prefix watches.
type Client struct {
	cli *clientv3.Client
}

// NewClient connects to the coordination store.
func NewClient(cfg Config) (*Client, error) {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = opTimeout
	}
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, err
	}
	return &Client{cli: cli}, nil
}

// Grant creates a lease of ttl seconds.
func (c *Client) Grant(ctx context.Context, ttl int64) (clientv3.LeaseID, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	resp, err := c.cli.Grant(ctx, ttl)
	if err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// KeepAlive starts refreshing the lease until ctx is cancelled. The returned
// channel must be drained; it closes when the lease can no longer be kept
// alive.
func (c *Client) KeepAlive(ctx context.Context, id clientv3.LeaseID) (<-chan *clientv3.LeaseKeepAliveResponse, error) {
	return c.cli.KeepAlive(ctx, id)
}

// Revoke cancels the lease, deleting every key bound to it.
func (c *Client) Revoke(ctx context.Context, id clientv3.LeaseID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := c.cli.Revoke(ctx, id)
	return err
}

// Put writes key to value under the given lease.
func (c *Client) Put(ctx context.Context, key, value string, id clientv3.LeaseID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := c.cli.Put(ctx, key, value, clientv3.WithLease(id))
	return err
}

// List returns every key under prefix along with the store revision the
// snapshot was taken at.
func (c *Client) List(ctx context.Context, prefix string) ([]KV, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	resp, err := c.cli.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, 0, err
	}

	kvs := make([]KV, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		kvs = append(kvs, KV{Key: string(kv.Key), Value: string(kv.Value)})
	}
	return kvs, resp.Header.Revision, nil
}

// Watch streams changes under prefix starting just after rev. Deleted keys
// carry their previous value.
func (c *Client) Watch(ctx context.Context, prefix string, rev int64) clientv3.WatchChan {
	opts := []clientv3.OpOption{clientv3.WithPrefix(), clientv3.WithPrevKV()}
	if rev > 0 {
		opts = append(opts, clientv3.WithRev(rev+1))
	}
	return c.cli.Watch(ctx, prefix, opts...)
}

// Close releases the underlying store connection.
func (c *Client) Close() error {
	return c.cli.Close()
}
