package balancer

import (
	"container/heap"
	"fmt"
	"sync"

	"google.golang.org/grpc"

	"github.com/breezechat/breeze/pkg/log"
)

// Conn is the client-side connection a channel hands out.
type Conn interface {
	grpc.ClientConnInterface
	Close() error
}

// Connector builds a connection to one instance address.
type Connector func(addr string) (Conn, error)

// entry pairs one live connection with its in-flight request count.
type entry struct {
	addr string
	conn Conn
	busy int
}

// entryHeap is a min-heap ordered by busy level.
type entryHeap []*entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].busy < h[j].busy }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x interface{}) { *h = append(*h, x.(*entry)) }

func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// ServiceChannel balances requests across the live instances of one
// downstream service, always dispatching to the least busy connection.
//
// Pools stay small (tens of replicas), so Remove and Complete scan the
// heap linearly.
type ServiceChannel struct {
	mu      sync.Mutex
	name    string
	connect Connector
	entries entryHeap
	byAddr  map[string]*entry
	closed  bool
}

// NewServiceChannel creates an empty channel for the named service.
func NewServiceChannel(name string, connect Connector) *ServiceChannel {
	return &ServiceChannel{
		name:    name,
		connect: connect,
		byAddr:  make(map[string]*entry),
	}
}

// Append dials addr and adds the connection at a zero busy level. Duplicate
// addresses are ignored; dial failures are logged and the address dropped.
func (c *ServiceChannel) Append(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if _, ok := c.byAddr[addr]; ok {
		return
	}

	// Dialing is non-blocking, so holding the lock here is fine.
	conn, err := c.connect(addr)
	if err != nil {
		log.Errorf(fmt.Sprintf("Failed to connect to %s instance at %s", c.name, addr), err)
		return
	}

	e := &entry{addr: addr, conn: conn}
	heap.Push(&c.entries, e)
	c.byAddr[addr] = e

	log.Info(fmt.Sprintf("Added %s instance at %s (%d total)", c.name, addr, len(c.entries)))
}

// Remove drops the connection for addr and closes it.
func (c *ServiceChannel) Remove(addr string) {
	c.mu.Lock()
	e, ok := c.byAddr[addr]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.byAddr, addr)
	for i := range c.entries {
		if c.entries[i] == e {
			heap.Remove(&c.entries, i)
			break
		}
	}
	c.mu.Unlock()

	if err := e.conn.Close(); err != nil {
		log.Errorf(fmt.Sprintf("Failed to close connection to %s", addr), err)
	}
	log.Info(fmt.Sprintf("Removed %s instance at %s", c.name, addr))
}

// Pick returns the least busy connection and counts one request in flight
// on it. It returns nil when no instance is available.
func (c *ServiceChannel) Pick() Conn {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) == 0 {
		return nil
	}
	e := c.entries[0]
	e.busy++
	heap.Fix(&c.entries, 0)
	return e.conn
}

// Complete counts one request on conn as finished. Unknown connections and
// already-zero busy levels are ignored.
func (c *ServiceChannel) Complete(conn Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, e := range c.entries {
		if e.conn == conn {
			if e.busy > 0 {
				e.busy--
				heap.Fix(&c.entries, i)
			}
			return
		}
	}
}

// Size returns the number of live connections.
func (c *ServiceChannel) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the connection count and the summed busy level.
func (c *ServiceChannel) Stats() (int, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var busy int64
	for _, e := range c.entries {
		busy += int64(e.busy)
	}
	return len(c.entries), busy
}

// Close closes every connection and rejects later appends.
func (c *ServiceChannel) Close() {
	c.mu.Lock()
	entries := c.entries
	c.entries = nil
	c.byAddr = make(map[string]*entry)
	c.closed = true
	c.mu.Unlock()

	for _, e := range entries {
		if err := e.conn.Close(); err != nil {
			log.Errorf(fmt.Sprintf("Failed to close connection to %s", e.addr), err)
		}
	}
}
