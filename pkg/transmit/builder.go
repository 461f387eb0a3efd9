package transmit

import (
	"context"
	"errors"
	"fmt"

	"github.com/breezechat/breeze/pkg/balancer"
	"github.com/breezechat/breeze/pkg/coord"
	"github.com/breezechat/breeze/pkg/db"
	"github.com/breezechat/breeze/pkg/mq"
	"github.com/breezechat/breeze/pkg/rpc"
)

// Builder assembles a transmit service process. The user service name is
// fixed up front because discovery subscribes to it before the server
// starts.
type Builder struct {
	userService string

	members    *db.Members
	broker     *mq.Client
	exchange   string
	routingKey string

	coordCli   *coord.Client
	manager    *balancer.Manager
	discovery  *coord.Discovery
	reg        *coord.Registry
	rpcServer  *rpc.Server
	listenAddr string
}

// NewBuilder returns a Builder that will watch userServiceName for profile
// resolution instances.
func NewBuilder(userServiceName string) *Builder {
	return &Builder{userService: userServiceName}
}

// MakeMySQL connects to the relational store.
func (b *Builder) MakeMySQL(cfg db.Config) error {
	conn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	b.members = db.NewMembers(conn)
	return nil
}

// MakeRabbitMQ connects to the broker and declares the exchange, the queue,
// and the binding between them. Declaration failure is fatal to the caller.
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
	b.exchange = exchange
	b.routingKey = queue
	return nil
}

// MakeEtcd connects to the coordination store, subscribes discovery to the
// user service, and announces this instance under
// <serviceName>/<instanceName> at accessAddr.
func (b *Builder) MakeEtcd(endpoints []string, serviceName, instanceName, accessAddr string, ttl int64) error {
	cli, err := coord.NewClient(coord.Config{Endpoints: endpoints})
	if err != nil {
		return fmt.Errorf("connect coordination store: %w", err)
	}
	manager := balancer.NewManager(rpc.Connect)
	manager.Declare(b.userService)
	disc, err := coord.NewDiscovery(cli, b.userService, manager.Online, manager.Offline)
	if err != nil {
		manager.Close()
		cli.Close()
		return err
	}
	reg, err := coord.NewRegistry(cli, ttl)
	if err != nil {
		disc.Close()
		manager.Close()
		cli.Close()
		return err
	}
	if err := reg.Register(context.Background(), serviceName, instanceName, accessAddr); err != nil {
		reg.Close()
		disc.Close()
		manager.Close()
		cli.Close()
		return err
	}
	b.coordCli = cli
	b.manager = manager
	b.discovery = disc
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
	if b.members == nil {
		return nil, errors.New("mysql服务未设置")
	}
	if b.discovery == nil || b.manager == nil || b.reg == nil {
		return nil, errors.New("etcd服务未设置")
	}
	if b.broker == nil {
		return nil, errors.New("rabbitmq服务未设置")
	}
	if b.rpcServer == nil {
		return nil, errors.New("rpc服务未设置")
	}

	s := &Server{
		members:      b.members,
		broker:       b.broker,
		brokerCloser: b.broker,
		exchange:     b.exchange,
		routingKey:   b.routingKey,
		manager:      b.manager,
		userService:  b.userService,
		coord:        b.coordCli,
		reg:          b.reg,
		discovery:    b.discovery,
		rpc:          b.rpcServer,
		addr:         b.listenAddr,
	}
	rpc.RegisterTransmitService(b.rpcServer, s)
	return s, nil
}
