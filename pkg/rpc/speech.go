package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// SpeechServiceName is the registered gRPC service name for voice
// recognition.
const SpeechServiceName = "breeze.SpeechService"

// SpeechService is the server-side contract implemented by pkg/speech.
type SpeechService interface {
	SpeechRecognition(ctx context.Context, in *SpeechRecognitionReq) (*SpeechRecognitionRsp, error)
}

type SpeechRecognitionReq struct {
	RequestID     string `json:"request_id"`
	SpeechContent []byte `json:"speech_content"`
}

type SpeechRecognitionRsp struct {
	Status
	RecognitionResult string `json:"recognition_result,omitempty"`
}

// SpeechServiceDesc wires SpeechService methods into a gRPC server.
var SpeechServiceDesc = grpc.ServiceDesc{
	ServiceName: SpeechServiceName,
	HandlerType: (*SpeechService)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SpeechRecognition",
			Handler: handler[SpeechService, SpeechRecognitionReq]("/breeze.SpeechService/SpeechRecognition", func(s SpeechService, ctx context.Context, in *SpeechRecognitionReq) (interface{}, error) {
				return s.SpeechRecognition(ctx, in)
			}),
		},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterSpeechService registers impl under the breeze.SpeechService name.
func RegisterSpeechService(s grpc.ServiceRegistrar, impl SpeechService) {
	s.RegisterService(&SpeechServiceDesc, impl)
}

// SpeechClient calls a speech service instance over any client conn.
type SpeechClient struct {
	cc grpc.ClientConnInterface
}

func NewSpeechClient(cc grpc.ClientConnInterface) *SpeechClient {
	return &SpeechClient{cc: cc}
}

func (c *SpeechClient) SpeechRecognition(ctx context.Context, in *SpeechRecognitionReq) (*SpeechRecognitionRsp, error) {
	return invoke[SpeechRecognitionRsp](ctx, c.cc, "/breeze.SpeechService/SpeechRecognition", in)
}
