package rpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/breezechat/breeze/pkg/model"
)

// FileServiceName is the registered gRPC service name for blob storage.
const FileServiceName = "breeze.FileService"

// FileService is the server-side contract implemented by pkg/file.
type FileService interface {
	GetSingleFile(ctx context.Context, in *GetSingleFileReq) (*GetSingleFileRsp, error)
	GetMultiFile(ctx context.Context, in *GetMultiFileReq) (*GetMultiFileRsp, error)
	PutSingleFile(ctx context.Context, in *PutSingleFileReq) (*PutSingleFileRsp, error)
	PutMultiFile(ctx context.Context, in *PutMultiFileReq) (*PutMultiFileRsp, error)
}

type GetSingleFileReq struct {
	RequestID string `json:"request_id"`
	FileID    string `json:"file_id"`
}

type GetSingleFileRsp struct {
	Status
	FileData *model.FileDownloadData `json:"file_data,omitempty"`
}

type GetMultiFileReq struct {
	RequestID  string   `json:"request_id"`
	FileIDList []string `json:"file_id_list"`
}

type GetMultiFileRsp struct {
	Status
	FileData map[string]model.FileDownloadData `json:"file_data,omitempty"`
}

type PutSingleFileReq struct {
	RequestID string               `json:"request_id"`
	FileData  model.FileUploadData `json:"file_data"`
}

type PutSingleFileRsp struct {
	Status
	FileInfo *model.FileInfo `json:"file_info,omitempty"`
}

type PutMultiFileReq struct {
	RequestID string                 `json:"request_id"`
	FileData  []model.FileUploadData `json:"file_data"`
}

type PutMultiFileRsp struct {
	Status
	FileInfo []model.FileInfo `json:"file_info,omitempty"`
}

// FileServiceDesc wires FileService methods into a gRPC server.
var FileServiceDesc = grpc.ServiceDesc{
	ServiceName: FileServiceName,
	HandlerType: (*FileService)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetSingleFile",
			Handler: handler[FileService, GetSingleFileReq]("/breeze.FileService/GetSingleFile", func(s FileService, ctx context.Context, in *GetSingleFileReq) (interface{}, error) {
				return s.GetSingleFile(ctx, in)
			}),
		},
		{
			MethodName: "GetMultiFile",
			Handler: handler[FileService, GetMultiFileReq]("/breeze.FileService/GetMultiFile", func(s FileService, ctx context.Context, in *GetMultiFileReq) (interface{}, error) {
				return s.GetMultiFile(ctx, in)
			}),
		},
		{
			MethodName: "PutSingleFile",
			Handler: handler[FileService, PutSingleFileReq]("/breeze.FileService/PutSingleFile", func(s FileService, ctx context.Context, in *PutSingleFileReq) (interface{}, error) {
				return s.PutSingleFile(ctx, in)
			}),
		},
		{
			MethodName: "PutMultiFile",
			Handler: handler[FileService, PutMultiFileReq]("/breeze.FileService/PutMultiFile", func(s FileService, ctx context.Context, in *PutMultiFileReq) (interface{}, error) {
				return s.PutMultiFile(ctx, in)
			}),
		},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterFileService registers impl under the breeze.FileService name.
func RegisterFileService(s grpc.ServiceRegistrar, impl FileService) {
	s.RegisterService(&FileServiceDesc, impl)
}

// FileClient calls a file service instance over any client conn.
type FileClient struct {
	cc grpc.ClientConnInterface
}

func NewFileClient(cc grpc.ClientConnInterface) *FileClient {
	return &FileClient{cc: cc}
}

func (c *FileClient) GetSingleFile(ctx context.Context, in *GetSingleFileReq) (*GetSingleFileRsp, error) {
	return invoke[GetSingleFileRsp](ctx, c.cc, "/breeze.FileService/GetSingleFile", in)
}

func (c *FileClient) GetMultiFile(ctx context.Context, in *GetMultiFileReq) (*GetMultiFileRsp, error) {
	return invoke[GetMultiFileRsp](ctx, c.cc, "/breeze.FileService/GetMultiFile", in)
}

func (c *FileClient) PutSingleFile(ctx context.Context, in *PutSingleFileReq) (*PutSingleFileRsp, error) {
	return invoke[PutSingleFileRsp](ctx, c.cc, "/breeze.FileService/PutSingleFile", in)
}

func (c *FileClient) PutMultiFile(ctx context.Context, in *PutMultiFileReq) (*PutMultiFileRsp, error) {
	return invoke[PutMultiFileRsp](ctx, c.cc, "/breeze.FileService/PutMultiFile", in)
}
