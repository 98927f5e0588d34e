package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/cryptopia-com/cryptopia-world/internal/platform/requestctx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestRequestIDContextHelpers(t *testing.T) {
	if RequestIDFromContext(nil) != "" {
		t.Fatal("expected empty request id for nil context")
	}

	ctx := WithRequestID(nil, "req-1")
	if RequestIDFromContext(ctx) != "req-1" {
		t.Fatalf("expected request id req-1, got %s", RequestIDFromContext(ctx))
	}
}

func TestIsPrintableASCII(t *testing.T) {
	if IsPrintableASCII("") {
		t.Fatal("expected empty string to be non-printable")
	}
	if !IsPrintableASCII("hello") {
		t.Fatal("expected printable ascii to be accepted")
	}
	if IsPrintableASCII("line\n") {
		t.Fatal("expected newline to be non-printable")
	}
}

func TestFirstMetadataValueSkipsControlCharacters(t *testing.T) {
	md := metadata.MD{RequestIDHeader: {"\n", "req-1"}}
	if got := FirstMetadataValue(md, RequestIDHeader); got != "req-1" {
		t.Fatalf("value = %q, want req-1", got)
	}
	if FirstMetadataValue(metadata.MD{}, RequestIDHeader) != "" {
		t.Fatal("expected empty value for empty metadata")
	}
}

func TestLocaleFromContext(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(LocaleHeader, " pt-BR "))
	if got := LocaleFromContext(ctx); got != "pt-BR" {
		t.Fatalf("locale = %q, want pt-BR", got)
	}
	if LocaleFromContext(context.Background()) != "" {
		t.Fatal("expected empty locale without metadata")
	}
}

func TestUnaryServerInterceptorFailsWhenIDGenerationFails(t *testing.T) {
	interceptor := UnaryServerInterceptor(func() (string, error) { return "", errors.New("boom") })
	called := false
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{}, func(context.Context, any) (any, error) {
		called = true
		return nil, nil
	})
	if status.Code(err) != codes.Internal {
		t.Fatalf("code = %v, want %v", status.Code(err), codes.Internal)
	}
	if called {
		t.Fatal("expected handler not to run")
	}
}

type headerStream struct {
	header metadata.MD
}

func (s *headerStream) Method() string { return "/pirates.v1.ConfrontationService/Intercept" }

func (s *headerStream) SetHeader(md metadata.MD) error {
	s.header = metadata.Join(s.header, md)
	return nil
}

func (s *headerStream) SendHeader(md metadata.MD) error { return s.SetHeader(md) }

func (s *headerStream) SetTrailer(metadata.MD) error { return nil }

func TestUnaryServerInterceptorStoresPlayer(t *testing.T) {
	stream := &headerStream{}
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(PlayerIDHeader, " blackbeard "))
	ctx = grpc.NewContextWithServerTransportStream(ctx, stream)

	var player, requestID string
	interceptor := UnaryServerInterceptor(func() (string, error) { return "req-7", nil })
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, _ any) (any, error) {
		player = requestctx.PlayerIDFromContext(ctx)
		requestID = RequestIDFromContext(ctx)
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if player != "blackbeard" {
		t.Fatalf("player = %q, want blackbeard", player)
	}
	if requestID != "req-7" {
		t.Fatalf("request id = %q, want req-7", requestID)
	}
	if got := stream.header.Get(RequestIDHeader); len(got) != 1 || got[0] != "req-7" {
		t.Fatalf("response header = %v, want req-7", got)
	}
}

func TestUnaryServerInterceptorLeavesAnonymousCallsAnonymous(t *testing.T) {
	ctx := grpc.NewContextWithServerTransportStream(context.Background(), &headerStream{})

	player := "unset"
	interceptor := UnaryServerInterceptor(func() (string, error) { return "req-8", nil })
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, _ any) (any, error) {
		player = requestctx.PlayerIDFromContext(ctx)
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if player != "" {
		t.Fatalf("player = %q, want empty", player)
	}
}

func TestWithOutgoingPlayerID(t *testing.T) {
	ctx := WithOutgoingPlayerID(context.Background(), "anne-bonny")
	md, ok := metadata.FromOutgoingContext(ctx)
	if !ok || FirstMetadataValue(md, PlayerIDHeader) != "anne-bonny" {
		t.Fatalf("outgoing metadata = %v, want player anne-bonny", md)
	}
	if _, ok := metadata.FromOutgoingContext(WithOutgoingPlayerID(context.Background(), " ")); ok {
		t.Fatal("expected blank player to add no metadata")
	}
}
