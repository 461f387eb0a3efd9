package rpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/breezechat/breeze/pkg/model"
)

// TransmitServiceName is the registered gRPC service name for message
// fan-out.
const TransmitServiceName = "breeze.MsgTransmitService"

// TransmitService is the server-side contract implemented by pkg/transmit.
type TransmitService interface {
	GetTransmitTarget(ctx context.Context, in *GetTransmitTargetReq) (*GetTransmitTargetRsp, error)
}

type GetTransmitTargetReq struct {
	RequestID     string               `json:"request_id"`
	UserID        string               `json:"user_id"`
	ChatSessionID string               `json:"chat_session_id"`
	Message       model.MessageContent `json:"message"`
}

type GetTransmitTargetRsp struct {
	Status
	Message      *model.MessageInfo `json:"message,omitempty"`
	TargetIDList []string           `json:"target_id_list,omitempty"`
}

// TransmitServiceDesc wires TransmitService methods into a gRPC server.
var TransmitServiceDesc = grpc.ServiceDesc{
	ServiceName: TransmitServiceName,
	HandlerType: (*TransmitService)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetTransmitTarget",
			Handler: handler[TransmitService, GetTransmitTargetReq]("/breeze.MsgTransmitService/GetTransmitTarget", func(s TransmitService, ctx context.Context, in *GetTransmitTargetReq) (interface{}, error) {
				return s.GetTransmitTarget(ctx, in)
			}),
		},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterTransmitService registers impl under the breeze.MsgTransmitService
// name.
func RegisterTransmitService(s grpc.ServiceRegistrar, impl TransmitService) {
	s.RegisterService(&TransmitServiceDesc, impl)
}

// TransmitClient calls a transmit service instance over any client conn.
type TransmitClient struct {
	cc grpc.ClientConnInterface
}

func NewTransmitClient(cc grpc.ClientConnInterface) *TransmitClient {
	return &TransmitClient{cc: cc}
}

func (c *TransmitClient) GetTransmitTarget(ctx context.Context, in *GetTransmitTargetReq) (*GetTransmitTargetRsp, error) {
	return invoke[GetTransmitTargetRsp](ctx, c.cc, "/breeze.MsgTransmitService/GetTransmitTarget", in)
}
