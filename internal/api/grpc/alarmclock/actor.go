package alarmclock

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/oshokin/alarm-clock/internal/logger"
)

// ActorMetadataKey carries the user@host of the calling client.
const ActorMetadataKey = "x-alarm-actor"

// ActorFromContext returns the actor sent by the client, if any.
func ActorFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	values := md.Get(ActorMetadataKey)
	if len(values) == 0 {
		return ""
	}

	return values[0]
}

// UnaryActorInterceptor tags the request logger with the calling actor and method.
func UnaryActorInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	kvs := []any{"method", info.FullMethod}
	if actor := ActorFromContext(ctx); actor != "" {
		kvs = append(kvs, "actor", actor)
	}

	return handler(logger.WithKV(ctx, kvs...), req)
}
