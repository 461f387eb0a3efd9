package file

import (
	"context"
	"errors"
	"fmt"

	"github.com/breezechat/breeze/pkg/coord"
	"github.com/breezechat/breeze/pkg/rpc"
)

// Builder assembles a file service process step by step; Build refuses to
// produce a half-configured server.
type Builder struct {
	store      *Store
	coordCli   *coord.Client
	reg        *coord.Registry
	rpcServer  *rpc.Server
	listenAddr string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// MakeStore opens the blob directory.
func (b *Builder) MakeStore(root string) error {
	store, err := NewStore(root)
	if err != nil {
		return err
	}
	b.store = store
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
	if b.store == nil {
		return nil, errors.New("文件存储未设置")
	}
	if b.reg == nil {
		return nil, errors.New("etcd服务未设置")
	}
	if b.rpcServer == nil {
		return nil, errors.New("rpc服务未设置")
	}

	s := &Server{
		store: b.store,
		coord: b.coordCli,
		reg:   b.reg,
		rpc:   b.rpcServer,
		addr:  b.listenAddr,
	}
	rpc.RegisterFileService(b.rpcServer, s)
	return s, nil
}
