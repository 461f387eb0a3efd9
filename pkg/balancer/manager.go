package balancer

import (
	"sort"
	"strings"
	"sync"
)

// ChannelStats is a point-in-time sample of one service pool, consumed by
// the metrics collector.
type ChannelStats struct {
	Service     string
	Connections int
	BusyTotal   int64
}

// Manager routes discovery events into per-service channels and hands out
// connections for the services the process has declared interest in.
//
// Events for undeclared services are dropped silently. The manager lock is
// never held across channel operations, so discovery callbacks stay cheap
// even while a pool is dialing.
type Manager struct {
	mu      sync.Mutex
	connect Connector
	focus   map[string]struct{}
	pools   map[string]*ServiceChannel
}

// NewManager creates a manager that dials new instances with connect.
func NewManager(connect Connector) *Manager {
	return &Manager{
		connect: connect,
		focus:   make(map[string]struct{}),
		pools:   make(map[string]*ServiceChannel),
	}
}

// Declare adds a service to the focus set. Only declared services get pools.
func (m *Manager) Declare(service string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focus[service] = struct{}{}
}

// Undeclare removes a service from the focus set and closes its pool.
func (m *Manager) Undeclare(service string) {
	m.mu.Lock()
	delete(m.focus, service)
	ch := m.pools[service]
	delete(m.pools, service)
	m.mu.Unlock()

	if ch != nil {
		ch.Close()
	}
}

// Online handles a discovery PUT: the registration key names the service up
// to the last '/', the value is the instance address.
func (m *Manager) Online(key, addr string) {
	service := serviceNameOf(key)

	m.mu.Lock()
	if _, ok := m.focus[service]; !ok {
		m.mu.Unlock()
		return
	}
	ch, ok := m.pools[service]
	if !ok {
		ch = NewServiceChannel(service, m.connect)
		m.pools[service] = ch
	}
	m.mu.Unlock()

	ch.Append(addr)
}

// Offline handles a discovery DELETE.
func (m *Manager) Offline(key, addr string) {
	service := serviceNameOf(key)

	m.mu.Lock()
	ch := m.pools[service]
	m.mu.Unlock()

	if ch != nil {
		ch.Remove(addr)
	}
}

// Pick returns the least busy connection for service, or nil when no
// instance is known. Callers that need to report completion should use
// Pool and pick on the channel directly.
func (m *Manager) Pick(service string) Conn {
	ch := m.Pool(service)
	if ch == nil {
		return nil
	}
	return ch.Pick()
}

// Pool returns the channel for service, or nil when none exists.
func (m *Manager) Pool(service string) *ServiceChannel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pools[service]
}

// Stats samples every pool, ordered by service name.
func (m *Manager) Stats() []ChannelStats {
	m.mu.Lock()
	pools := make(map[string]*ServiceChannel, len(m.pools))
	for name, ch := range m.pools {
		pools[name] = ch
	}
	m.mu.Unlock()

	stats := make([]ChannelStats, 0, len(pools))
	for name, ch := range pools {
		conns, busy := ch.Stats()
		stats = append(stats, ChannelStats{Service: name, Connections: conns, BusyTotal: busy})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Service < stats[j].Service })
	return stats
}

// Close closes every pool.
func (m *Manager) Close() {
	m.mu.Lock()
	pools := m.pools
	m.pools = make(map[string]*ServiceChannel)
	m.mu.Unlock()

	for _, ch := range pools {
		ch.Close()
	}
}

// serviceNameOf derives the service name from a registration key: everything
// up to the last '/', or the whole key when there is none.
func serviceNameOf(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[:i]
	}
	return key
}
