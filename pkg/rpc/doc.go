/*
Package rpc defines the wire contract between Breeze services: the JSON
codec, the five service descriptors with their request/response shapes, a
thin server wrapper, and typed clients.

Breeze services exchange plain Go structs serialized as JSON over gRPC. The
service descriptors are written by hand instead of generated, which keeps the
wire types ordinary structs that the broker payload and the search index
documents can share.

# Architecture

	┌───────────────────────── RPC LAYER ──────────────────────────┐
	│                                                              │
	│  ┌──────────────┐   register    ┌─────────────────────────┐ │
	│  │ Service impl │──────────────▶│ grpc.ServiceDesc (hand- │ │
	│  │ (pkg/user,   │               │ written MethodDescs)    │ │
	│  │  pkg/file,…) │               └───────────┬─────────────┘ │
	│  └──────────────┘                           │               │
	│                                             ▼               │
	│  ┌──────────────┐    serve      ┌─────────────────────────┐ │
	│  │  rpc.Server  │◀──────────────│ UnaryLoggingInterceptor │ │
	│  │ (one lis per │               │ (zerolog + metrics)     │ │
	│  │  instance)   │               └─────────────────────────┘ │
	│  └──────────────┘                                           │
	│                                                              │
	│  ┌──────────────┐   invoke      ┌─────────────────────────┐ │
	│  │ Typed client │──────────────▶│ JSON codec ("json"      │ │
	│  │ (UserClient,…)│              │ content-subtype)        │ │
	│  └──────────────┘               └─────────────────────────┘ │
	└──────────────────────────────────────────────────────────────┘

# Services

  - breeze.UserService: twelve account/profile operations
  - breeze.FileService: four blob get/put operations
  - breeze.MsgTransmitService: GetTransmitTarget fan-out
  - breeze.MsgStorageService: history, recent, and search reads
  - breeze.SpeechService: SpeechRecognition

# Response Convention

Every response embeds Status{request_id, success, errmsg}. Business
failures (validation, not-found, conflicts) come back as success=false with
a message for the client; transport and handler panics are the only things
that surface as gRPC errors.

# Usage

Server side:

	srv := rpc.NewServer()
	rpc.RegisterUserService(srv, handler)
	go srv.Start("0.0.0.0:9001")
	defer srv.Stop()

Client side:

	conn, err := rpc.Dial("10.0.0.7:9001")
	if err != nil { ... }
	client := rpc.NewUserClient(conn)
	rsp, err := client.UserLogin(ctx, &rpc.UserLoginReq{...})

Clients accept any grpc.ClientConnInterface, so calls normally go through a
connection picked from a balancer.Manager rather than a direct Dial.
*/
package rpc
