package rpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/breezechat/breeze/pkg/model"
)

// MsgStorageServiceName is the registered gRPC service name for message
// history and search.
const MsgStorageServiceName = "breeze.MsgStorageService"

// MsgStorageService is the server-side contract implemented by pkg/msgstore.
type MsgStorageService interface {
	GetHistoryMsg(ctx context.Context, in *GetHistoryMsgReq) (*GetHistoryMsgRsp, error)
	GetRecentMsg(ctx context.Context, in *GetRecentMsgReq) (*GetRecentMsgRsp, error)
	MsgSearch(ctx context.Context, in *MsgSearchReq) (*MsgSearchRsp, error)
}

type GetHistoryMsgReq struct {
	RequestID     string `json:"request_id"`
	ChatSessionID string `json:"chat_session_id"`
	StartTime     int64  `json:"start_time"`
	OverTime      int64  `json:"over_time"`
}

type GetHistoryMsgRsp struct {
	Status
	MsgList []model.MessageInfo `json:"msg_list,omitempty"`
}

type GetRecentMsgReq struct {
	RequestID     string `json:"request_id"`
	ChatSessionID string `json:"chat_session_id"`
	MsgCount      int64  `json:"msg_count"`
	CurTime       int64  `json:"cur_time,omitempty"` // optional upper bound; 0 means now
}

type GetRecentMsgRsp struct {
	Status
	MsgList []model.MessageInfo `json:"msg_list,omitempty"`
}

type MsgSearchReq struct {
	RequestID     string `json:"request_id"`
	ChatSessionID string `json:"chat_session_id"`
	SearchKey     string `json:"search_key"`
}

type MsgSearchRsp struct {
	Status
	MsgList []model.MessageInfo `json:"msg_list,omitempty"`
}

// MsgStorageServiceDesc wires MsgStorageService methods into a gRPC server.
var MsgStorageServiceDesc = grpc.ServiceDesc{
	ServiceName: MsgStorageServiceName,
	HandlerType: (*MsgStorageService)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetHistoryMsg",
			Handler: handler[MsgStorageService, GetHistoryMsgReq]("/breeze.MsgStorageService/GetHistoryMsg", func(s MsgStorageService, ctx context.Context, in *GetHistoryMsgReq) (interface{}, error) {
				return s.GetHistoryMsg(ctx, in)
			}),
		},
		{
			MethodName: "GetRecentMsg",
			Handler: handler[MsgStorageService, GetRecentMsgReq]("/breeze.MsgStorageService/GetRecentMsg", func(s MsgStorageService, ctx context.Context, in *GetRecentMsgReq) (interface{}, error) {
				return s.GetRecentMsg(ctx, in)
			}),
		},
		{
			MethodName: "MsgSearch",
			Handler: handler[MsgStorageService, MsgSearchReq]("/breeze.MsgStorageService/MsgSearch", func(s MsgStorageService, ctx context.Context, in *MsgSearchReq) (interface{}, error) {
				return s.MsgSearch(ctx, in)
			}),
		},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterMsgStorageService registers impl under the
// breeze.MsgStorageService name.
func RegisterMsgStorageService(s grpc.ServiceRegistrar, impl MsgStorageService) {
	s.RegisterService(&MsgStorageServiceDesc, impl)
}

// MsgStorageClient calls a storage service instance over any client conn.
type MsgStorageClient struct {
	cc grpc.ClientConnInterface
}

func NewMsgStorageClient(cc grpc.ClientConnInterface) *MsgStorageClient {
	return &MsgStorageClient{cc: cc}
}

func (c *MsgStorageClient) GetHistoryMsg(ctx context.Context, in *GetHistoryMsgReq) (*GetHistoryMsgRsp, error) {
	return invoke[GetHistoryMsgRsp](ctx, c.cc, "/breeze.MsgStorageService/GetHistoryMsg", in)
}

func (c *MsgStorageClient) GetRecentMsg(ctx context.Context, in *GetRecentMsgReq) (*GetRecentMsgRsp, error) {
	return invoke[GetRecentMsgRsp](ctx, c.cc, "/breeze.MsgStorageService/GetRecentMsg", in)
}

func (c *MsgStorageClient) MsgSearch(ctx context.Context, in *MsgSearchReq) (*MsgSearchRsp, error) {
	return invoke[MsgSearchRsp](ctx, c.cc, "/breeze.MsgStorageService/MsgSearch", in)
}
