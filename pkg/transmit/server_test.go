package transmit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/breezechat/breeze/pkg/balancer"
	"github.com/breezechat/breeze/pkg/log"
	"github.com/breezechat/breeze/pkg/model"
	"github.com/breezechat/breeze/pkg/rpc"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel, JSONOutput: true})
}

var hexID = regexp.MustCompile(`^[0-9a-f]{16}$`)

// fakePublisher records what the server hands to the broker.
type fakePublisher struct {
	mu       sync.Mutex
	ok       bool
	exchange string
	key      string
	bodies   [][]byte
}

func (p *fakePublisher) Publish(_ context.Context, exchange, routingKey string, body []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exchange = exchange
	p.key = routingKey
	p.bodies = append(p.bodies, append([]byte(nil), body...))
	return p.ok
}

func (p *fakePublisher) published() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bodies
}

type fakeMembers struct {
	list []string
	err  error
}

func (m *fakeMembers) Members(context.Context, string) ([]string, error) {
	return m.list, m.err
}

// fakeUserConn answers GetUserInfo with a fixed profile.
type fakeUserConn struct {
	profile model.UserInfo
	fail    bool
}

func (c *fakeUserConn) Invoke(_ context.Context, method string, args, reply interface{}, _ ...grpc.CallOption) error {
	if method != "/breeze.UserService/GetUserInfo" {
		return fmt.Errorf("unexpected method %s", method)
	}
	in := args.(*rpc.GetUserInfoReq)
	out := reply.(*rpc.GetUserInfoRsp)
	if c.fail {
		out.Status = rpc.Fail(in.RequestID, "用户不存在")
		return nil
	}
	info := c.profile
	info.UserID = in.UserID
	out.Status = rpc.OK(in.RequestID)
	out.UserInfo = &info
	return nil
}

func (c *fakeUserConn) NewStream(context.Context, *grpc.StreamDesc, string, ...grpc.CallOption) (grpc.ClientStream, error) {
	return nil, errors.New("streams not supported")
}

func (c *fakeUserConn) Close() error { return nil }

type testEnv struct {
	users   *fakeUserConn
	broker  *fakePublisher
	members *fakeMembers
}

func newTestServer(t *testing.T) (*Server, *testEnv) {
	t.Helper()

	env := &testEnv{
		users: &fakeUserConn{profile: model.UserInfo{
			Nickname:    "alice",
			Description: "hello",
			Email:       "alice@example.com",
		}},
		broker:  &fakePublisher{ok: true},
		members: &fakeMembers{list: []string{"u-alice", "u-bob", "u-carol"}},
	}

	manager := balancer.NewManager(func(string) (balancer.Conn, error) { return env.users, nil })
	manager.Declare("user_service")
	manager.Online("user_service/test", "127.0.0.1:9200")
	t.Cleanup(manager.Close)

	srv := &Server{
		members:     env.members,
		broker:      env.broker,
		exchange:    "breeze-exchange",
		routingKey:  "breeze-message",
		manager:     manager,
		userService: "user_service",
	}
	return srv, env
}

func stringContent(text string) model.MessageContent {
	return model.MessageContent{
		Type:          model.MessageString,
		StringMessage: &model.StringMessageInfo{Content: text},
	}
}

func TestGetTransmitTarget(t *testing.T) {
	srv, env := newTestServer(t)

	before := time.Now().Unix()
	rsp, err := srv.GetTransmitTarget(context.Background(), &rpc.GetTransmitTargetReq{
		RequestID:     "req-1",
		UserID:        "u-alice",
		ChatSessionID: "sess-1",
		Message:       stringContent("hi there"),
	})
	require.NoError(t, err)
	require.True(t, rsp.Success, rsp.Errmsg)
	require.Equal(t, "req-1", rsp.RequestID)

	require.NotNil(t, rsp.Message)
	require.Regexp(t, hexID, rsp.Message.MessageID)
	require.Equal(t, "sess-1", rsp.Message.ChatSessionID)
	require.GreaterOrEqual(t, rsp.Message.Timestamp, before)
	require.LessOrEqual(t, rsp.Message.Timestamp, time.Now().Unix())
	require.Equal(t, "u-alice", rsp.Message.Sender.UserID)
	require.Equal(t, "alice", rsp.Message.Sender.Nickname)
	require.Equal(t, model.MessageString, rsp.Message.Content.Type)
	require.Equal(t, "hi there", rsp.Message.Content.StringMessage.Content)
	require.Equal(t, []string{"u-alice", "u-bob", "u-carol"}, rsp.TargetIDList)

	bodies := env.broker.published()
	require.Len(t, bodies, 1)
	require.Equal(t, "breeze-exchange", env.broker.exchange)
	require.Equal(t, "breeze-message", env.broker.key)

	var stored model.MessageInfo
	require.NoError(t, json.Unmarshal(bodies[0], &stored))
	require.Equal(t, *rsp.Message, stored)
}

func TestGetTransmitTargetNoUserService(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.manager.Offline("user_service/test", "127.0.0.1:9200")

	rsp, err := srv.GetTransmitTarget(context.Background(), &rpc.GetTransmitTargetReq{
		RequestID:     "req-2",
		UserID:        "u-alice",
		ChatSessionID: "sess-1",
		Message:       stringContent("hi"),
	})
	require.NoError(t, err)
	require.False(t, rsp.Success)
	require.Equal(t, "获取user服务失败", rsp.Errmsg)
	require.Nil(t, rsp.Message)
}

func TestGetTransmitTargetUserLookupFails(t *testing.T) {
	srv, env := newTestServer(t)
	env.users.fail = true

	rsp, err := srv.GetTransmitTarget(context.Background(), &rpc.GetTransmitTargetReq{
		RequestID:     "req-3",
		UserID:        "u-ghost",
		ChatSessionID: "sess-1",
		Message:       stringContent("hi"),
	})
	require.NoError(t, err)
	require.False(t, rsp.Success)
	require.Equal(t, "user服务调用失败", rsp.Errmsg)
	require.Empty(t, env.broker.published())
}

func TestGetTransmitTargetPublishFails(t *testing.T) {
	srv, env := newTestServer(t)
	env.broker.ok = false

	rsp, err := srv.GetTransmitTarget(context.Background(), &rpc.GetTransmitTargetReq{
		RequestID:     "req-4",
		UserID:        "u-alice",
		ChatSessionID: "sess-1",
		Message:       stringContent("hi"),
	})
	require.NoError(t, err)
	require.False(t, rsp.Success)
	require.Equal(t, "消息持久化失败", rsp.Errmsg)
	require.Nil(t, rsp.Message)
	require.Nil(t, rsp.TargetIDList)
}

func TestGetTransmitTargetMembersErrorStillPublishes(t *testing.T) {
	srv, env := newTestServer(t)
	env.members.err = errors.New("mysql down")

	rsp, err := srv.GetTransmitTarget(context.Background(), &rpc.GetTransmitTargetReq{
		RequestID:     "req-5",
		UserID:        "u-alice",
		ChatSessionID: "sess-1",
		Message:       stringContent("hi"),
	})
	require.NoError(t, err)
	require.True(t, rsp.Success, rsp.Errmsg)
	require.Empty(t, rsp.TargetIDList)
	require.Len(t, env.broker.published(), 1)
}
