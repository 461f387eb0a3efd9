package transmit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/breezechat/breeze/pkg/balancer"
	"github.com/breezechat/breeze/pkg/coord"
	"github.com/breezechat/breeze/pkg/ident"
	"github.com/breezechat/breeze/pkg/log"
	"github.com/breezechat/breeze/pkg/model"
	"github.com/breezechat/breeze/pkg/rpc"
)

// Publisher is the broker port the transmit server needs.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body []byte) bool
}

// MemberSource lists the members of a chat session.
type MemberSource interface {
	Members(ctx context.Context, sessionID string) ([]string, error)
}

// Server implements rpc.TransmitService. It resolves the claimed sender to a
// full profile, stamps the message envelope with a fresh id and the current
// time, hands the envelope to the broker for persistence, and returns it
// together with the session's member list so gateways can push copies.
type Server struct {
	members      MemberSource
	broker       Publisher
	brokerCloser interface{ Close() }
	exchange     string
	routingKey   string
	manager      *balancer.Manager
	userService  string

	coord     *coord.Client
	reg       *coord.Registry
	discovery *coord.Discovery
	rpc       *rpc.Server
	addr      string
}

// Start serves RPCs until Stop.
func (s *Server) Start() error {
	return s.rpc.Start(s.addr)
}

// Stop deregisters the instance and releases every connection. The broker
// and the manager close after the RPC listener so in-flight handlers can
// still publish and resolve profiles.
func (s *Server) Stop() {
	if s.reg != nil {
		s.reg.Close()
	}
	if s.discovery != nil {
		s.discovery.Close()
	}
	if s.rpc != nil {
		s.rpc.Stop()
	}
	if s.brokerCloser != nil {
		s.brokerCloser.Close()
	}
	if s.manager != nil {
		s.manager.Close()
	}
	if s.coord != nil {
		s.coord.Close()
	}
}

// Manager exposes the connection manager for metrics sampling.
func (s *Server) Manager() *balancer.Manager {
	return s.manager
}

func (s *Server) GetTransmitTarget(ctx context.Context, in *rpc.GetTransmitTargetReq) (*rpc.GetTransmitTargetRsp, error) {
	rsp := &rpc.GetTransmitTargetRsp{}

	ch := s.manager.Pool(s.userService)
	var conn balancer.Conn
	if ch != nil {
		conn = ch.Pick()
	}
	if conn == nil {
		log.Error(fmt.Sprintf("%s-%s 获取user服务失败", in.RequestID, in.UserID))
		rsp.Status = rpc.Fail(in.RequestID, "获取user服务失败")
		return rsp, nil
	}
	defer ch.Complete(conn)

	ursp, err := rpc.NewUserClient(conn).GetUserInfo(ctx, &rpc.GetUserInfoReq{
		RequestID: in.RequestID,
		UserID:    in.UserID,
	})
	if err != nil || !ursp.Success || ursp.UserInfo == nil {
		log.Errorf(fmt.Sprintf("%s-%s user服务调用失败", in.RequestID, in.UserID), err)
		rsp.Status = rpc.Fail(in.RequestID, "user服务调用失败")
		return rsp, nil
	}

	message := model.MessageInfo{
		MessageID:     ident.New(),
		ChatSessionID: in.ChatSessionID,
		Timestamp:     time.Now().Unix(),
		Sender:        *ursp.UserInfo,
		Content:       in.Message,
	}

	targets, err := s.members.Members(ctx, in.ChatSessionID)
	if err != nil {
		// The message still persists; only the push list is degraded.
		log.Errorf(fmt.Sprintf("%s-%s 查询会话成员失败", in.RequestID, in.ChatSessionID), err)
	}

	body, err := json.Marshal(&message)
	if err != nil {
		log.Errorf(fmt.Sprintf("%s-%s 消息序列化失败", in.RequestID, in.UserID), err)
		rsp.Status = rpc.Fail(in.RequestID, "消息持久化失败")
		return rsp, nil
	}
	if !s.broker.Publish(ctx, s.exchange, s.routingKey, body) {
		log.Error(fmt.Sprintf("%s-%s 消息持久化失败", in.RequestID, in.UserID))
		rsp.Status = rpc.Fail(in.RequestID, "消息持久化失败")
		return rsp, nil
	}

	rsp.Status = rpc.OK(in.RequestID)
	rsp.Message = &message
	rsp.TargetIDList = targets
	return rsp, nil
}
