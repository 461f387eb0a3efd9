package file

import (
	"context"
	"fmt"

	"github.com/breezechat/breeze/pkg/coord"
	"github.com/breezechat/breeze/pkg/ident"
	"github.com/breezechat/breeze/pkg/log"
	"github.com/breezechat/breeze/pkg/model"
	"github.com/breezechat/breeze/pkg/rpc"
)

// Server stores and serves the binary payloads of image, file and speech
// messages plus user avatars.
type Server struct {
	store *Store

	coord *coord.Client
	reg   *coord.Registry
	rpc   *rpc.Server
	addr  string
}

// GetSingleFile returns the blob for one file id.
func (s *Server) GetSingleFile(ctx context.Context, in *rpc.GetSingleFileReq) (*rpc.GetSingleFileRsp, error) {
	content, err := s.store.Read(in.FileID)
	if err != nil {
		log.Errorf(fmt.Sprintf("%s 读取文件%s失败", in.RequestID, in.FileID), err)
		return &rpc.GetSingleFileRsp{Status: rpc.Fail(in.RequestID, "读取文件数据失败")}, nil
	}
	return &rpc.GetSingleFileRsp{
		Status:   rpc.OK(in.RequestID),
		FileData: &model.FileDownloadData{FileID: in.FileID, FileContent: content},
	}, nil
}

// GetMultiFile returns the blobs for every requested id. One missing blob
// fails the whole call with no partial data.
func (s *Server) GetMultiFile(ctx context.Context, in *rpc.GetMultiFileReq) (*rpc.GetMultiFileRsp, error) {
	data := make(map[string]model.FileDownloadData, len(in.FileIDList))
	for _, fid := range in.FileIDList {
		content, err := s.store.Read(fid)
		if err != nil {
			log.Errorf(fmt.Sprintf("%s 读取文件%s失败", in.RequestID, fid), err)
			return &rpc.GetMultiFileRsp{Status: rpc.Fail(in.RequestID, "读取文件数据失败")}, nil
		}
		data[fid] = model.FileDownloadData{FileID: fid, FileContent: content}
	}
	return &rpc.GetMultiFileRsp{Status: rpc.OK(in.RequestID), FileData: data}, nil
}

// PutSingleFile stores one blob under a fresh id.
func (s *Server) PutSingleFile(ctx context.Context, in *rpc.PutSingleFileReq) (*rpc.PutSingleFileRsp, error) {
	fid := ident.New()
	if err := s.store.Write(fid, in.FileData.FileContent); err != nil {
		log.Errorf(fmt.Sprintf("%s 写入文件%s失败", in.RequestID, fid), err)
		return &rpc.PutSingleFileRsp{Status: rpc.Fail(in.RequestID, "写入文件数据失败")}, nil
	}
	return &rpc.PutSingleFileRsp{
		Status: rpc.OK(in.RequestID),
		FileInfo: &model.FileInfo{
			FileID:   fid,
			FileName: in.FileData.FileName,
			FileSize: in.FileData.FileSize,
		},
	}, nil
}

// PutMultiFile stores every blob in the request. One failed write fails the
// whole call with no partial list.
func (s *Server) PutMultiFile(ctx context.Context, in *rpc.PutMultiFileReq) (*rpc.PutMultiFileRsp, error) {
	infos := make([]model.FileInfo, 0, len(in.FileData))
	for _, data := range in.FileData {
		fid := ident.New()
		if err := s.store.Write(fid, data.FileContent); err != nil {
			log.Errorf(fmt.Sprintf("%s 写入文件%s失败", in.RequestID, fid), err)
			return &rpc.PutMultiFileRsp{Status: rpc.Fail(in.RequestID, "写入文件数据失败")}, nil
		}
		infos = append(infos, model.FileInfo{
			FileID:   fid,
			FileName: data.FileName,
			FileSize: data.FileSize,
		})
	}
	return &rpc.PutMultiFileRsp{Status: rpc.OK(in.RequestID), FileInfo: infos}, nil
}

// Start serves RPCs until Stop. It blocks.
func (s *Server) Start() error {
	return s.rpc.Start(s.addr)
}

// Stop withdraws the instance from the registry and drains the server.
func (s *Server) Stop() {
	if s.reg != nil {
		s.reg.Close()
	}
	if s.rpc != nil {
		s.rpc.Stop()
	}
	if s.coord != nil {
		s.coord.Close()
	}
}
