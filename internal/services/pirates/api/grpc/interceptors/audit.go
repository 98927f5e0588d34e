// Package interceptors holds the unary interceptors of the pirates gRPC API.
package interceptors

import (
	"context"
	"log"
	"strings"

	"github.com/cryptopia-com/cryptopia-world/internal/platform/requestctx"
	grpcmeta "github.com/cryptopia-com/cryptopia-world/internal/services/pirates/api/grpc/metadata"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/storage"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Audit event names for API calls.
const (
	EventGRPCRead  = "pirates.grpc.read"
	EventGRPCWrite = "pirates.grpc.write"
)

// Emitter records audit events.
type Emitter interface {
	Emit(ctx context.Context, evt storage.AuditEvent) error
}

type attackerGetter interface {
	GetAttacker() string
}

type targetGetter interface {
	GetTarget() string
}

// AuditInterceptor emits an audit event for each unary call, rejected calls
// included, so the trail shows attempts the domain never committed.
func AuditInterceptor(emitter Emitter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if emitter == nil {
			return resp, err
		}

		eventName := EventGRPCWrite
		if isRead(info.FullMethod) {
			eventName = EventGRPCRead
		}
		code := codes.OK
		if err != nil {
			if st, ok := status.FromError(err); ok {
				code = st.Code()
			}
		}

		attacker, target := extractParties(req)
		actor := requestctx.PlayerIDFromContext(ctx)
		if actor == "" {
			actor = firstNonEmpty(attacker, target)
		}
		detail := "method=" + info.FullMethod
		if requestID := grpcmeta.RequestIDFromContext(ctx); requestID != "" {
			detail += " request_id=" + requestID
		}
		if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
			detail += " trace_id=" + sc.TraceID().String()
		}

		emitErr := emitter.Emit(ctx, storage.AuditEvent{
			EventName: eventName,
			Actor:     actor,
			Attacker:  attacker,
			Target:    target,
			Outcome:   code.String(),
			Detail:    detail,
		})
		if emitErr != nil {
			log.Printf("audit emit %s: %v", info.FullMethod, emitErr)
		}
		return resp, err
	}
}

func extractParties(req any) (string, string) {
	var attacker, target string
	if getter, ok := req.(attackerGetter); ok {
		attacker = strings.TrimSpace(getter.GetAttacker())
	}
	if getter, ok := req.(targetGetter); ok {
		target = strings.TrimSpace(getter.GetTarget())
	}
	return attacker, target
}

func isRead(fullMethod string) bool {
	method := fullMethod[strings.LastIndex(fullMethod, "/")+1:]
	return strings.HasPrefix(method, "Get") || strings.HasPrefix(method, "List")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
