package speech

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/breezechat/breeze/pkg/asr"
	"github.com/breezechat/breeze/pkg/coord"
	"github.com/breezechat/breeze/pkg/ident"
	"github.com/breezechat/breeze/pkg/log"
	"github.com/breezechat/breeze/pkg/rpc"
)

// Server implements rpc.SpeechService. The recognition sidecar reads audio
// from disk, so each request is spooled to a scratch file first; the file is
// removed after a successful transcription and kept for inspection after a
// failed one.
type Server struct {
	asr    *asr.Client
	tmpDir string

	coord *coord.Client
	reg   *coord.Registry
	rpc   *rpc.Server
	addr  string
}

// Start serves RPCs until Stop.
func (s *Server) Start() error {
	return s.rpc.Start(s.addr)
}

// Stop deregisters the instance and releases every connection.
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

func (s *Server) SpeechRecognition(ctx context.Context, in *rpc.SpeechRecognitionReq) (*rpc.SpeechRecognitionRsp, error) {
	rsp := &rpc.SpeechRecognitionRsp{}

	path := filepath.Join(s.tmpDir, ident.New()+".wav")
	if err := os.WriteFile(path, in.SpeechContent, 0o644); err != nil {
		log.Errorf(fmt.Sprintf("%s 音频文件写入失败", in.RequestID), err)
		rsp.Status = rpc.Fail(in.RequestID, "语音识别失败")
		return rsp, nil
	}

	text, err := s.asr.Recognize(ctx, path)
	if err != nil {
		// The audio file stays behind for inspection.
		log.Errorf(fmt.Sprintf("%s 识别音频文件失败", in.RequestID), err)
		rsp.Status = rpc.Fail(in.RequestID, "语音识别失败")
		return rsp, nil
	}

	if err := os.Remove(path); err != nil {
		log.Errorf(fmt.Sprintf("%s 音频文件删除失败", in.RequestID), err)
	}
	rsp.Status = rpc.OK(in.RequestID)
	rsp.RecognitionResult = text
	return rsp, nil
}
