package coord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/etcd/api/v3/v3rpc/rpctypes"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/breezechat/breeze/pkg/log"
	"github.com/breezechat/breeze/pkg/metrics"
)

// retryInterval paces watch reconnects after a stream failure.
const retryInterval = time.Second

// EventFunc receives one membership change. For deletions the value is the
// address the key held before it was removed.
type EventFunc func(key, value string)

// Discovery tracks the instances registered under one service prefix. On
// construction it replays the current snapshot through onPut, then streams
// PUT and DELETE events from a background watch. Snapshot replay
// happens-before any watch-delivered event.
//
// When the watch stream is lost or compacted away, Discovery re-lists the
// prefix and reconciles: vanished keys are delivered as deletions, new or
// changed keys as puts. Callbacks must therefore tolerate replays.
type Discovery struct {
	client   *Client
	prefix   string
	onPut    EventFunc
	onDelete EventFunc

	// known mirrors the store state already delivered to the callbacks.
	// Only the constructor and the watch goroutine touch it.
	known map[string]string
	rev   int64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDiscovery lists prefix, feeds every existing entry to onPut and starts
// watching for changes. A failed initial list is returned as an error;
// callers treat it as fatal because they cannot serve without a member set.
func NewDiscovery(client *Client, prefix string, onPut, onDelete EventFunc) (*Discovery, error) {
	d := &Discovery{
		client:   client,
		prefix:   prefix,
		onPut:    onPut,
		onDelete: onDelete,
		known:    make(map[string]string),
		done:     make(chan struct{}),
	}

	kvs, rev, err := client.List(context.Background(), prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	d.rev = rev
	for _, kv := range kvs {
		d.known[kv.Key] = kv.Value
		d.onPut(kv.Key, kv.Value)
		metrics.DiscoveryEventsTotal.WithLabelValues("put").Inc()
	}
	log.Info(fmt.Sprintf("Discovered %d instances under %s", len(kvs), prefix))

	d.ctx, d.cancel = context.WithCancel(context.Background())
	go d.watch()
	return d, nil
}

// watch streams events until Close, reconnecting after stream failures.
func (d *Discovery) watch() {
	defer close(d.done)

	for {
		wch := d.client.Watch(d.ctx, d.prefix, d.rev)
		for wresp := range wch {
			if err := wresp.Err(); err != nil {
				if errors.Is(err, rpctypes.ErrCompacted) {
					log.Warn(fmt.Sprintf("Watch on %s compacted, resyncing", d.prefix))
					d.resync()
				} else {
					log.Errorf(fmt.Sprintf("Watch on %s failed", d.prefix), err)
				}
				break
			}
			for _, ev := range wresp.Events {
				d.dispatch(ev)
			}
		}

		select {
		case <-d.ctx.Done():
			return
		case <-time.After(retryInterval):
		}
	}
}

// dispatch applies one watch event to the known set and the callbacks.
func (d *Discovery) dispatch(ev *clientv3.Event) {
	if ev.Kv.ModRevision > d.rev {
		d.rev = ev.Kv.ModRevision
	}

	key := string(ev.Kv.Key)
	switch ev.Type {
	case clientv3.EventTypePut:
		value := string(ev.Kv.Value)
		d.known[key] = value
		d.onPut(key, value)
		metrics.DiscoveryEventsTotal.WithLabelValues("put").Inc()
	case clientv3.EventTypeDelete:
		// The deleted kv carries no value; the address travels in PrevKv.
		value := d.known[key]
		if ev.PrevKv != nil {
			value = string(ev.PrevKv.Value)
		}
		delete(d.known, key)
		d.onDelete(key, value)
		metrics.DiscoveryEventsTotal.WithLabelValues("delete").Inc()
	}
}

// resync reconciles the known set against a fresh snapshot after the watch
// history was compacted away. Events lost in the gap are reconstructed:
// keys missing from the snapshot become deletions, new or changed keys
// become puts.
func (d *Discovery) resync() {
	kvs, rev, err := d.client.List(d.ctx, d.prefix)
	if err != nil {
		log.Errorf(fmt.Sprintf("Failed to resync %s, retrying", d.prefix), err)
		return
	}

	next := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		next[kv.Key] = kv.Value
	}

	for key, value := range d.known {
		if _, ok := next[key]; !ok {
			d.onDelete(key, value)
			metrics.DiscoveryEventsTotal.WithLabelValues("delete").Inc()
		}
	}
	for _, kv := range kvs {
		if old, ok := d.known[kv.Key]; !ok || old != kv.Value {
			d.onPut(kv.Key, kv.Value)
			metrics.DiscoveryEventsTotal.WithLabelValues("put").Inc()
		}
	}

	d.known = next
	d.rev = rev
	metrics.DiscoveryEventsTotal.WithLabelValues("restart").Inc()
	log.Info(fmt.Sprintf("Resynced %s at revision %d (%d instances)", d.prefix, rev, len(kvs)))
}

// Close stops the watch goroutine.
func (d *Discovery) Close() {
	d.cancel()
	<-d.done
}
