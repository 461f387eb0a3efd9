package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// handler adapts a typed service method to the untyped grpc.MethodDesc
// handler signature. It decodes the request, then either calls the method
// directly or routes it through the server's interceptor chain.
func handler[S any, Req any](fullMethod string, invoke func(S, context.Context, *Req) (interface{}, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return invoke(srv.(S), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
			return invoke(srv.(S), ctx, req.(*Req))
		})
	}
}

// invoke performs a unary call on cc with the JSON codec and unmarshals the
// reply into a fresh Rsp.
func invoke[Rsp any](ctx context.Context, cc grpc.ClientConnInterface, fullMethod string, req interface{}) (*Rsp, error) {
	out := new(Rsp)
	if err := cc.Invoke(ctx, fullMethod, req, out, grpc.CallContentSubtype(Name)); err != nil {
		return nil, err
	}
	return out, nil
}
