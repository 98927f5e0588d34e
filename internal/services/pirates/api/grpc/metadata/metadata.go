// Package metadata defines the request headers the pirates gRPC API reads
// and the interceptor that guarantees every call a request id.
package metadata

import (
	"context"
	"strings"

	"github.com/cryptopia-com/cryptopia-world/internal/platform/id"
	"github.com/cryptopia-com/cryptopia-world/internal/platform/requestctx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// RequestIDHeader is the gRPC metadata key for request correlation IDs.
const RequestIDHeader = "x-cryptopia-request-id"

// LocaleHeader selects the language of player-facing error messages.
const LocaleHeader = "x-cryptopia-locale"

// PlayerIDHeader carries the authenticated player account. The edge that
// terminates player authentication sets it; mutating calls must act as it.
const PlayerIDHeader = "x-cryptopia-player-id"

type contextKey string

const requestIDContextKey contextKey = "cryptopia-request-id"

// RequestIDFromContext returns the request ID stored in context.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDContextKey).(string)
	return value
}

// WithRequestID stores the request ID in context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// LocaleFromContext returns the caller's locale from incoming metadata.
func LocaleFromContext(ctx context.Context) string {
	return valueFromIncomingContext(ctx, LocaleHeader)
}

// PlayerIDFromContext returns the player account from incoming metadata.
func PlayerIDFromContext(ctx context.Context) string {
	return valueFromIncomingContext(ctx, PlayerIDHeader)
}

// WithOutgoingPlayerID returns a context that sends playerID on outgoing
// calls. An empty playerID leaves ctx unchanged.
func WithOutgoingPlayerID(ctx context.Context, playerID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, PlayerIDHeader, playerID)
}

// IsPrintableASCII reports whether a string contains only printable ASCII characters.
func IsPrintableASCII(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < 0x20 || value[i] > 0x7e {
			return false
		}
	}
	return true
}

// FirstMetadataValue returns the first printable ASCII metadata value for a key.
func FirstMetadataValue(md metadata.MD, key string) string {
	if len(md) == 0 {
		return ""
	}
	for mdKey, values := range md {
		if !strings.EqualFold(mdKey, key) {
			continue
		}
		for _, value := range values {
			if IsPrintableASCII(value) {
				return value
			}
		}
	}
	return ""
}

// UnaryServerInterceptor gives every unary call a request ID, generating one
// when the caller sent none, and echoes it in the response headers. The
// player header, when present, becomes the request's authenticated player.
func UnaryServerInterceptor(idGenerator func() (string, error)) grpc.UnaryServerInterceptor {
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := valueFromIncomingContext(ctx, RequestIDHeader)
		if requestID == "" {
			generated, err := idGenerator()
			if err != nil {
				return nil, status.Errorf(codes.Internal, "ensure request metadata: %v", err)
			}
			requestID = generated
		}
		ctx = WithRequestID(ctx, requestID)
		if playerID := PlayerIDFromContext(ctx); playerID != "" {
			ctx = requestctx.WithPlayerID(ctx, playerID)
		}
		if err := grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID)); err != nil {
			return nil, status.Errorf(codes.Internal, "set response metadata: %v", err)
		}
		return handler(ctx, req)
	}
}

func valueFromIncomingContext(ctx context.Context, header string) string {
	if ctx == nil {
		return ""
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	return strings.TrimSpace(FirstMetadataValue(md, header))
}
