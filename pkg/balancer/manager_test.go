package balancer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestManagerFocusGating(t *testing.T) {
	d := newFakeDialer()
	m := NewManager(d.connect)
	defer m.Close()

	m.Online("undeclared_service/instance1", "10.0.0.1:9000")

	assert.Nil(t, m.Pool("undeclared_service"), "events for undeclared services are dropped")
	assert.Equal(t, 0, d.dials)
}

func TestManagerOnlineOffline(t *testing.T) {
	d := newFakeDialer()
	m := NewManager(d.connect)
	defer m.Close()

	m.Declare("file_service")
	m.Online("file_service/instance1", "10.0.0.1:9000")

	ch := m.Pool("file_service")
	require.NotNil(t, ch)
	assert.Equal(t, 1, ch.Size())
	assert.NotNil(t, m.Pick("file_service"))

	m.Offline("file_service/instance1", "10.0.0.1:9000")
	assert.Equal(t, 0, ch.Size())
	assert.True(t, d.conns["10.0.0.1:9000"].isClosed())
	assert.Nil(t, m.Pick("file_service"))
}

func TestManagerUndeclareClosesPool(t *testing.T) {
	d := newFakeDialer()
	m := NewManager(d.connect)
	defer m.Close()

	m.Declare("file_service")
	m.Online("file_service/instance1", "10.0.0.1:9000")
	require.NotNil(t, m.Pool("file_service"))

	m.Undeclare("file_service")

	assert.Nil(t, m.Pool("file_service"))
	assert.True(t, d.conns["10.0.0.1:9000"].isClosed())

	m.Online("file_service/instance2", "10.0.0.2:9000")
	assert.Nil(t, m.Pool("file_service"), "undeclared services stay dark")
}

func TestManagerStats(t *testing.T) {
	d := newFakeDialer()
	m := NewManager(d.connect)
	defer m.Close()

	m.Declare("file_service")
	m.Declare("user_service")
	m.Online("file_service/instance1", "10.0.0.1:9000")
	m.Online("user_service/instance1", "10.0.0.2:9000")
	m.Online("user_service/instance2", "10.0.0.3:9000")

	m.Pick("user_service")
	m.Pick("user_service")

	stats := m.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, "file_service", stats[0].Service, "stats come sorted by service")
	assert.Equal(t, 1, stats[0].Connections)
	assert.EqualValues(t, 0, stats[0].BusyTotal)
	assert.Equal(t, "user_service", stats[1].Service)
	assert.Equal(t, 2, stats[1].Connections)
	assert.EqualValues(t, 2, stats[1].BusyTotal)
}

func TestManagerClose(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	d := newFakeDialer()
	m := NewManager(d.connect)

	m.Declare("file_service")
	m.Online("file_service/instance1", "10.0.0.1:9000")

	m.Close()

	assert.True(t, d.conns["10.0.0.1:9000"].isClosed())
	assert.Nil(t, m.Pool("file_service"))
}

func TestServiceNameOf(t *testing.T) {
	assert.Equal(t, "file_service", serviceNameOf("file_service/instance1"))
	assert.Equal(t, "a/b", serviceNameOf("a/b/c"))
	assert.Equal(t, "plain", serviceNameOf("plain"))
}
