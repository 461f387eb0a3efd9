package rpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/breezechat/breeze/pkg/balancer"
)

// defaultServiceConfig retries transient transport failures so a briefly
// unavailable instance does not surface as a user-facing error.
const defaultServiceConfig = `{
	"methodConfig": [{
		"name": [{}],
		"retryPolicy": {
			"maxAttempts": 3,
			"initialBackoff": "0.1s",
			"maxBackoff": "1s",
			"backoffMultiplier": 2.0,
			"retryableStatusCodes": ["UNAVAILABLE"]
		}
	}]
}`

// Dial opens a client connection to a breeze instance. Connections are lazy:
// the returned conn is usable immediately and reconnects on its own.
func Dial(addr string) (*grpc.ClientConn, error) {
	return grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(Name)),
		grpc.WithDefaultServiceConfig(defaultServiceConfig),
	)
}

// Connect adapts Dial to the balancer connector signature.
func Connect(addr string) (balancer.Conn, error) {
	return Dial(addr)
}
