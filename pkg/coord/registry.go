package coord

import (
	"context"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/breezechat/breeze/pkg/log"
)

// Registry publishes service instances into the coordination store under a
// single lease and keeps that lease alive until closed. When the process
// dies without closing, the lease expires and the store drops the keys,
// firing DELETE events at every watcher.
type Registry struct {
	client  *Client
	leaseID clientv3.LeaseID
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewRegistry grants a lease of ttl seconds and starts refreshing it in the
// background. A ttl of zero selects DefaultTTL.
func NewRegistry(client *Client, ttl int64) (*Registry, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	leaseID, err := client.Grant(context.Background(), ttl)
	if err != nil {
		return nil, fmt.Errorf("grant lease: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := client.KeepAlive(ctx, leaseID)
	if err != nil {
		cancel()
		if rerr := client.Revoke(context.Background(), leaseID); rerr != nil {
			log.Errorf("Failed to revoke lease after keepalive failure", rerr)
		}
		return nil, fmt.Errorf("keep lease alive: %w", err)
	}

	r := &Registry{
		client:  client,
		leaseID: leaseID,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go r.drain(ch)
	return r, nil
}

// Register writes "<service>/<instance>" to addr under the registry lease.
func (r *Registry) Register(ctx context.Context, service, instance, addr string) error {
	key := service + "/" + instance
	if err := r.client.Put(ctx, key, addr, r.leaseID); err != nil {
		return fmt.Errorf("register %s: %w", key, err)
	}
	log.Info(fmt.Sprintf("Registered %s at %s", key, addr))
	return nil
}

// drain consumes keepalive responses until the channel closes. A close
// before Close was called means the lease could not be kept alive and the
// instance keys are gone from the store.
func (r *Registry) drain(ch <-chan *clientv3.LeaseKeepAliveResponse) {
	defer close(r.done)
	for range ch {
	}
	if r.ctx.Err() == nil {
		log.Error("Registry lease lost, instance keys expired")
	}
}

// Close stops the keepalive and revokes the lease so every key registered
// through this Registry is deleted immediately.
func (r *Registry) Close() {
	r.cancel()
	<-r.done
	if err := r.client.Revoke(context.Background(), r.leaseID); err != nil {
		log.Errorf("Failed to revoke registry lease", err)
	}
}
