package msgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/breezechat/breeze/pkg/balancer"
	"github.com/breezechat/breeze/pkg/coord"
	"github.com/breezechat/breeze/pkg/db"
	"github.com/breezechat/breeze/pkg/mq"
	"github.com/breezechat/breeze/pkg/rpc"
	"github.com/breezechat/breeze/pkg/search"
)

// Builder assembles a storage service process. The file and user service
// names are fixed up front because discovery subscribes to both before the
// server starts.
type Builder struct {
	fileService string
	userService string

	messages *db.Messages
	index    *search.MessageIndex
	broker   *mq.Client
	queue    string

	coordCli   *coord.Client
	manager    *balancer.Manager
	fileDisc   *coord.Discovery
	userDisc   *coord.Discovery
	reg        *coord.Registry
	rpcServer  *rpc.Server
	listenAddr string
}

// NewBuilder returns a Builder that will watch fileServiceName for blob
// storage instances and userServiceName for profile resolution instances.
func NewBuilder(fileServiceName, userServiceName string) *Builder {
	return &Builder{fileService: fileServiceName, userService: userServiceName}
}

// MakeES connects to the search cluster.
func (b *Builder) MakeES(urls []string) error {
	client, err := search.NewClient(urls...)
	if err != nil {
		return fmt.Errorf("connect elasticsearch: %w", err)
	}
	b.index = search.NewMessageIndex(client)
	return nil
}

// MakeMySQL connects to the relational store.
func (b *Builder) MakeMySQL(cfg db.Config) error {
	conn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	b.messages = db.NewMessages(conn)
	return nil
}

// MakeRabbitMQ connects to the broker and declares the exchange, the queue,
// and the binding between them. Consumption starts in Start, after Build.
func (b *Builder) MakeRabbitMQ(user, password, host, exchange, queue string) error {
	client, err := mq.New(user, password, host)
	if err != nil {
		return err
	}
	if err := client.Declare(exchange, queue, ""); err != nil {
		client.Close()
		return err
	}
	b.broker = client
	b.queue = queue
	return nil
}

// MakeEtcd connects to the coordination store, subscribes discovery to the
// file and user services, and announces this instance under
// <serviceName>/<instanceName> at accessAddr.
func (b *Builder) MakeEtcd(endpoints []string, serviceName, instanceName, accessAddr string, ttl int64) error {
	cli, err := coord.NewClient(coord.Config{Endpoints: endpoints})
	if err != nil {
		return fmt.Errorf("connect coordination store: %w", err)
	}
	manager := balancer.NewManager(rpc.Connect)
	manager.Declare(b.fileService)
	manager.Declare(b.userService)
	fileDisc, err := coord.NewDiscovery(cli, b.fileService, manager.Online, manager.Offline)
	if err != nil {
		manager.Close()
		cli.Close()
		return err
	}
	userDisc, err := coord.NewDiscovery(cli, b.userService, manager.Online, manager.Offline)
	if err != nil {
		fileDisc.Close()
		manager.Close()
		cli.Close()
		return err
	}
	reg, err := coord.NewRegistry(cli, ttl)
	if err != nil {
		userDisc.Close()
		fileDisc.Close()
		manager.Close()
		cli.Close()
		return err
	}
	if err := reg.Register(context.Background(), serviceName, instanceName, accessAddr); err != nil {
		reg.Close()
		userDisc.Close()
		fileDisc.Close()
		manager.Close()
		cli.Close()
		return err
	}
	b.coordCli = cli
	b.manager = manager
	b.fileDisc = fileDisc
	b.userDisc = userDisc
	b.reg = reg
	return nil
}

// MakeRPC prepares the gRPC listener.
func (b *Builder) MakeRPC(listenAddr string) {
	b.rpcServer = rpc.NewServer()
	b.listenAddr = listenAddr
}

// Build validates the configuration, creates the message index if missing,
// and wires the service together.
func (b *Builder) Build() (*Server, error) {
	if b.index == nil {
		return nil, errors.New("es服务未设置")
	}
	if b.messages == nil {
		return nil, errors.New("mysql服务未设置")
	}
	if b.broker == nil {
		return nil, errors.New("rabbitmq服务未设置")
	}
	if b.fileDisc == nil || b.userDisc == nil || b.manager == nil || b.reg == nil {
		return nil, errors.New("etcd服务未设置")
	}
	if b.rpcServer == nil {
		return nil, errors.New("rpc服务未设置")
	}

	if err := b.index.EnsureIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("创建es索引失败: %w", err)
	}

	s := &Server{
		messages:    b.messages,
		index:       b.index,
		broker:      b.broker,
		queue:       b.queue,
		manager:     b.manager,
		fileService: b.fileService,
		userService: b.userService,
		coord:       b.coordCli,
		reg:         b.reg,
		fileDisc:    b.fileDisc,
		userDisc:    b.userDisc,
		rpc:         b.rpcServer,
		addr:        b.listenAddr,
	}
	rpc.RegisterMsgStorageService(b.rpcServer, s)
	return s, nil
}
