package coord

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breezechat/breeze/pkg/ident"
	"github.com/breezechat/breeze/pkg/log"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel, JSONOutput: true})
}

// newTestClient connects to a local etcd, skipping the test when none is
// reachable.
func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(Config{
		Endpoints:   []string{"127.0.0.1:2379"},
		DialTimeout: time.Second,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, _, err := client.List(ctx, "breeze-test-probe"); err != nil {
		client.Close()
		t.Skipf("etcd not available: %v", err)
	}

	t.Cleanup(func() { client.Close() })
	return client
}

// memberLog records discovery callbacks for assertion.
type memberLog struct {
	mu      sync.Mutex
	puts    map[string]string
	deletes map[string]string
}

func newMemberLog() *memberLog {
	return &memberLog{puts: make(map[string]string), deletes: make(map[string]string)}
}

func (m *memberLog) put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts[key] = value
}

func (m *memberLog) del(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes[key] = value
}

func (m *memberLog) putValue(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.puts[key]
	return v, ok
}

func (m *memberLog) deleteValue(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.deletes[key]
	return v, ok
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestRegistryPublishesAndRevokes(t *testing.T) {
	client := newTestClient(t)
	service := "breeze-test/" + ident.New()

	reg, err := NewRegistry(client, 5)
	require.NoError(t, err)

	require.NoError(t, reg.Register(context.Background(), service, "instance-1", "127.0.0.1:7070"))

	kvs, _, err := client.List(context.Background(), service)
	require.NoError(t, err)
	require.Len(t, kvs, 1)
	assert.Equal(t, service+"/instance-1", kvs[0].Key)
	assert.Equal(t, "127.0.0.1:7070", kvs[0].Value)

	reg.Close()

	kvs, _, err = client.List(context.Background(), service)
	require.NoError(t, err)
	assert.Empty(t, kvs, "revoking the lease must delete the instance key")
}

func TestDiscoverySnapshotThenWatch(t *testing.T) {
	client := newTestClient(t)
	service := "breeze-test/" + ident.New()

	reg, err := NewRegistry(client, 5)
	require.NoError(t, err)
	defer reg.Close()

	// Seed one instance before discovery starts.
	require.NoError(t, reg.Register(context.Background(), service, "seed", "127.0.0.1:7070"))

	members := newMemberLog()
	disc, err := NewDiscovery(client, service, members.put, members.del)
	require.NoError(t, err)
	defer disc.Close()

	// The snapshot is replayed synchronously during construction.
	v, ok := members.putValue(service + "/seed")
	require.True(t, ok, "snapshot entry not delivered")
	assert.Equal(t, "127.0.0.1:7070", v)

	// A second registry joins and leaves; both transitions must stream in.
	reg2, err := NewRegistry(client, 5)
	require.NoError(t, err)
	require.NoError(t, reg2.Register(context.Background(), service, "late", "127.0.0.1:7071"))

	waitFor(t, func() bool {
		_, ok := members.putValue(service + "/late")
		return ok
	})

	reg2.Close()

	waitFor(t, func() bool {
		_, ok := members.deleteValue(service + "/late")
		return ok
	})
	v, _ = members.deleteValue(service + "/late")
	assert.Equal(t, "127.0.0.1:7071", v, "deletion must carry the previous address")
}

func TestDiscoveryListFailure(t *testing.T) {
	client, err := NewClient(Config{
		Endpoints:   []string{"127.0.0.1:1"},
		DialTimeout: 200 * time.Millisecond,
	})
	require.NoError(t, err)
	defer client.Close()

	noop := func(key, value string) {}
	_, err = NewDiscovery(client, "breeze-test/none", noop, noop)
	assert.Error(t, err, "discovery must fail when the initial list fails")
}

func TestResyncReconcilesGap(t *testing.T) {
	client := newTestClient(t)
	service := "breeze-test/" + ident.New()

	reg, err := NewRegistry(client, 5)
	require.NoError(t, err)
	defer reg.Close()
	require.NoError(t, reg.Register(context.Background(), service, "a", "127.0.0.1:7070"))

	// A discovery whose watch fell behind: it still believes in an
	// instance that vanished while no events were flowing.
	members := newMemberLog()
	d := &Discovery{
		client:   client,
		prefix:   service,
		onPut:    members.put,
		onDelete: members.del,
		known:    map[string]string{service + "/gone": "127.0.0.1:9999"},
		ctx:      context.Background(),
	}

	d.resync()

	v, ok := members.deleteValue(service + "/gone")
	require.True(t, ok, "vanished key must be reconstructed as a deletion")
	assert.Equal(t, "127.0.0.1:9999", v)

	v, ok = members.putValue(service + "/a")
	require.True(t, ok, "live key must be delivered as a put")
	assert.Equal(t, "127.0.0.1:7070", v)
	assert.Equal(t, "127.0.0.1:7070", d.known[service+"/a"])
}

func ExampleNewDiscovery() {
	client, err := NewClient(Config{Endpoints: []string{"127.0.0.1:2379"}})
	if err != nil {
		fmt.Println(err)
		return
	}
	defer client.Close()

	disc, err := NewDiscovery(client, "message_transmit",
		func(key, addr string) { fmt.Println("online:", key, addr) },
		func(key, addr string) { fmt.Println("offline:", key, addr) },
	)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer disc.Close()
}
