package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/breezechat/breeze/pkg/balancer"
	"github.com/breezechat/breeze/pkg/cache"
	"github.com/breezechat/breeze/pkg/classifier"
	"github.com/breezechat/breeze/pkg/coord"
	"github.com/breezechat/breeze/pkg/db"
	"github.com/breezechat/breeze/pkg/email"
	"github.com/breezechat/breeze/pkg/rpc"
	"github.com/breezechat/breeze/pkg/search"
)

// Builder assembles a user service process. The file service name is fixed
// up front because discovery subscribes to it before the server starts.
type Builder struct {
	fileService string

	index      *search.UserIndex
	users      *db.Users
	session    *cache.Session
	status     *cache.Status
	verifyCode *cache.VerifyCode
	sender     CodeSender
	moderator  Moderator

	coordCli   *coord.Client
	manager    *balancer.Manager
	discovery  *coord.Discovery
	reg        *coord.Registry
	rpcServer  *rpc.Server
	listenAddr string
}

// NewBuilder returns a Builder that will watch fileServiceName for blob
// storage instances.
func NewBuilder(fileServiceName string) *Builder {
	return &Builder{fileService: fileServiceName}
}

// MakeES connects to the search cluster.
func (b *Builder) MakeES(urls []string) error {
	client, err := search.NewClient(urls...)
	if err != nil {
		return fmt.Errorf("connect elasticsearch: %w", err)
	}
	b.index = search.NewUserIndex(client)
	return nil
}

// MakeMySQL connects to the relational store.
func (b *Builder) MakeMySQL(cfg db.Config) error {
	conn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	b.users = db.NewUsers(conn)
	return nil
}

// MakeRedis connects to the session cache.
func (b *Builder) MakeRedis(cfg cache.Config) error {
	client, err := cache.New(cfg)
	if err != nil {
		return err
	}
	b.session = cache.NewSession(client)
	b.status = cache.NewStatus(client)
	b.verifyCode = cache.NewVerifyCode(client)
	return nil
}

// MakeEmail configures the verification-code sender.
func (b *Builder) MakeEmail(cfg email.Config) {
	b.sender = email.NewSender(cfg)
}

// MakeClassifier configures the text moderation sidecar.
func (b *Builder) MakeClassifier(host string, port int, serviceName string) {
	b.moderator = classifier.New(host, port, serviceName)
}

// MakeEtcd connects to the coordination store, subscribes discovery to the
// file service, and announces this instance under
// <serviceName>/<instanceName> at accessAddr.
func (b *Builder) MakeEtcd(endpoints []string, serviceName, instanceName, accessAddr string, ttl int64) error {
	cli, err := coord.NewClient(coord.Config{Endpoints: endpoints})
	if err != nil {
		return fmt.Errorf("connect coordination store: %w", err)
	}
	manager := balancer.NewManager(rpc.Connect)
	manager.Declare(b.fileService)
	disc, err := coord.NewDiscovery(cli, b.fileService, manager.Online, manager.Offline)
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

// Build validates the configuration, creates the user index if missing, and
// wires the service together.
func (b *Builder) Build() (*Server, error) {
	if b.index == nil {
		return nil, errors.New("es服务未设置")
	}
	if b.users == nil {
		return nil, errors.New("mysql服务未设置")
	}
	if b.session == nil {
		return nil, errors.New("redis服务未设置")
	}
	if b.sender == nil {
		return nil, errors.New("邮件服务未设置")
	}
	if b.moderator == nil {
		return nil, errors.New("分类服务未设置")
	}
	if b.discovery == nil || b.manager == nil || b.reg == nil {
		return nil, errors.New("etcd服务未设置")
	}
	if b.rpcServer == nil {
		return nil, errors.New("rpc服务未设置")
	}

	if err := b.index.EnsureIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("创建es索引失败: %w", err)
	}

	s := &Server{
		users:       b.users,
		index:       b.index,
		session:     b.session,
		status:      b.status,
		verifyCode:  b.verifyCode,
		email:       b.sender,
		moderator:   b.moderator,
		manager:     b.manager,
		fileService: b.fileService,
		coord:       b.coordCli,
		reg:         b.reg,
		discovery:   b.discovery,
		rpc:         b.rpcServer,
		addr:        b.listenAddr,
	}
	rpc.RegisterUserService(b.rpcServer, s)
	return s, nil
}
