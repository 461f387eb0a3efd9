package speech

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/breezechat/breeze/pkg/asr"
	"github.com/breezechat/breeze/pkg/coord"
	"github.com/breezechat/breeze/pkg/rpc"
)

// Builder assembles a speech service process step by step; Build refuses to
// produce a half-configured server.
type Builder struct {
	asr        *asr.Client
	tmpDir     string
	coordCli   *coord.Client
	reg        *coord.Registry
	rpcServer  *rpc.Server
	listenAddr string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// MakeASR configures the recognition sidecar endpoint.
func (b *Builder) MakeASR(host string, port int, serviceName string) {
	b.asr = asr.New(host, port, serviceName)
}

// MakeTmp creates the scratch directory audio requests are spooled to.
func (b *Builder) MakeTmp(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create tmp dir %s: %w", dir, err)
	}
	b.tmpDir = dir
	return nil
}

// MakeEtcd connects to the coordination store and announces this instance
// under <serviceName>/<instanceName> at accessAddr.
func (b *Builder) MakeEtcd(endpoints []string, serviceName, instanceName, accessAddr string, ttl int64) error {
	cli, err := coord.NewClient(coord.Config{Endpoints: endpoints})
	if err != nil {
		return fmt.Errorf("connect coordination store: %w", err)
	}
	reg, err := coord.NewRegistry(cli, ttl)
	if err != nil {
		cli.Close()
		return err
	}
	if err := reg.Register(context.Background(), serviceName, instanceName, accessAddr); err != nil {
		reg.Close()
		cli.Close()
		return err
	}
	b.coordCli = cli
	b.reg = reg
	return nil
}

// MakeRPC prepares the gRPC listener.
func (b *Builder) MakeRPC(listenAddr string) {
	b.rpcServer = rpc.NewServer()
	b.listenAddr = listenAddr
}

// Build validates the configuration and wires the service together.
func (b *Builder) Build() (*Server, error) {
	if b.asr == nil {
		return nil, errors.New("asr服务未设置")
	}
	if b.tmpDir == "" {
		return nil, errors.New("临时目录未设置")
	}
	if b.reg == nil {
		return nil, errors.New("etcd服务未设置")
	}
	if b.rpcServer == nil {
		return nil, errors.New("rpc服务未设置")
	}

	s := &Server{
		asr:    b.asr,
		tmpDir: b.tmpDir,
		coord:  b.coordCli,
		reg:    b.reg,
		rpc:    b.rpcServer,
		addr:   b.listenAddr,
	}
	rpc.RegisterSpeechService(b.rpcServer, s)
	return s, nil
}
