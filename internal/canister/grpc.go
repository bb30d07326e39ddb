package canister

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// GRPCServicePrefix is prepended to a method name to form the full gRPC
// method, e.g. "/canister.v1.Canister/buy_land".
const GRPCServicePrefix = "/canister.v1.Canister/"

// GRPCConn implements Conn over gRPC. Arguments and replies travel as
// google.protobuf.Value messages holding the same JSON shapes the HTTP
// transport uses.
type GRPCConn struct {
	conn       *grpc.ClientConn
	canisterID string
	opts       connOptions
}

// NewGRPCConn connects to the given gRPC address.
func NewGRPCConn(addr, canisterID string, opts ...ConnOption) (*GRPCConn, error) {
	o := buildOptions(opts)
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(LoggingInterceptor(o.logger)),
	}, o.dialOptions...)

	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &GRPCConn{conn: conn, canisterID: canisterID, opts: o}, nil
}

// Close closes the underlying client connection.
func (c *GRPCConn) Close() error {
	return c.conn.Close()
}

// Call implements Conn.
func (c *GRPCConn) Call(ctx context.Context, method string, args []any, reply any) error {
	if args == nil {
		args = []any{}
	}
	body, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshaling %s args: %w", method, err)
	}
	in := &structpb.Value{}
	if err := protojson.Unmarshal(body, in); err != nil {
		return fmt.Errorf("encoding %s args: %w", method, err)
	}

	headers, err := callHeaders(ctx, c.opts.signer, c.canisterID, method, body)
	if err != nil {
		return fmt.Errorf("signing %s: %w", method, err)
	}
	kv := make([]string, 0, 2*len(headers))
	for k, v := range headers {
		kv = append(kv, k, v)
	}
	ctx = metadata.AppendToOutgoingContext(ctx, kv...)

	out := &structpb.Value{}
	if err := c.conn.Invoke(ctx, GRPCServicePrefix+method, in, out); err != nil {
		return err
	}

	if reply == nil {
		return nil
	}
	data, err := protojson.Marshal(out)
	if err != nil {
		return fmt.Errorf("decoding %s reply: %w", method, err)
	}
	if err := json.Unmarshal(data, reply); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// LoggingInterceptor logs the method, request id, duration and error (if any)
// of every unary call.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		duration := time.Since(start)

		var reqID string
		if md, ok := metadata.FromOutgoingContext(ctx); ok {
			if vals := md.Get(HeaderRequestID); len(vals) > 0 {
				reqID = vals[0]
			}
		}

		if err != nil {
			logger.Debug("rpc failed",
				"method", method,
				"request_id", reqID,
				"duration", duration,
				"error", err,
			)
		} else {
			logger.Debug("rpc completed",
				"method", method,
				"request_id", reqID,
				"duration", duration,
			)
		}
		return err
	}
}
