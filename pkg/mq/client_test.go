package mq

import (
	"context"
	"errors"
	"sync/atomic"
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

// newTestClient connects to a local broker, skipping when none is running.
func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := New("guest", "guest", "127.0.0.1:5672")
	if err != nil {
		t.Skipf("rabbitmq not available: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

// declareScratch sets up a throwaway exchange/queue pair and removes both
// afterwards.
func declareScratch(t *testing.T, client *Client) (string, string) {
	t.Helper()

	suffix := ident.New()
	exchange := "breeze-test-ex-" + suffix
	queue := "breeze-test-q-" + suffix
	require.NoError(t, client.Declare(exchange, queue, ""))

	t.Cleanup(func() {
		ch, err := client.conn.Channel()
		if err != nil {
			return
		}
		defer ch.Close()
		ch.QueueDelete(queue, false, false, false)
		ch.ExchangeDelete(exchange, false, false)
	})
	return exchange, queue
}

func TestPublishConsume(t *testing.T) {
	client := newTestClient(t)
	exchange, queue := declareScratch(t, client)

	got := make(chan []byte, 1)
	require.NoError(t, client.Consume(queue, func(body []byte) error {
		got <- body
		return nil
	}))

	ok := client.Publish(context.Background(), exchange, queue, []byte(`{"message_id":"m1"}`))
	require.True(t, ok)

	select {
	case body := <-got:
		assert.JSONEq(t, `{"message_id":"m1"}`, string(body))
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestHandlerErrorRequeues(t *testing.T) {
	client := newTestClient(t)
	exchange, queue := declareScratch(t, client)

	var attempts atomic.Int32
	done := make(chan struct{})
	require.NoError(t, client.Consume(queue, func(body []byte) error {
		if attempts.Add(1) == 1 {
			return errors.New("transient store failure")
		}
		close(done)
		return nil
	}))

	require.True(t, client.Publish(context.Background(), exchange, queue, []byte("payload")))

	select {
	case <-done:
		assert.GreaterOrEqual(t, attempts.Load(), int32(2), "failed delivery must come back")
	case <-time.After(5 * time.Second):
		t.Fatal("message was not redelivered")
	}
}

func TestDeclareDefaultsRoutingKeyToQueue(t *testing.T) {
	client := newTestClient(t)

	suffix := ident.New()
	exchange := "breeze-test-ex-" + suffix
	queue := "breeze-test-q-" + suffix
	require.NoError(t, client.Declare(exchange, queue, ""))
	t.Cleanup(func() {
		ch, err := client.conn.Channel()
		if err != nil {
			return
		}
		defer ch.Close()
		ch.QueueDelete(queue, false, false, false)
		ch.ExchangeDelete(exchange, false, false)
	})

	// Publishing under the queue name must route when no explicit key was
	// bound.
	assert.True(t, client.Publish(context.Background(), exchange, queue, []byte("x")))
}
