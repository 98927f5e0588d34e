package pirates

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	apperrors "github.com/cryptopia-com/cryptopia-world/internal/platform/errors"
	"github.com/cryptopia-com/cryptopia-world/internal/platform/requestctx"
	"github.com/cryptopia-com/cryptopia-world/internal/random"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/api/grpc/interceptors"
	grpcmeta "github.com/cryptopia-com/cryptopia-world/internal/services/pirates/api/grpc/metadata"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/authz"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/confrontation"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/observability/audit"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/storage/memory"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/world/local"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type fakeManager struct {
	confrontation.Confrontation
	err      error
	attacker string
	target   string
	role     string
}

func (f *fakeManager) Intercept(_ context.Context, req confrontation.InterceptRequest) (confrontation.Confrontation, error) {
	f.attacker, f.target = req.Attacker, req.Target
	return f.Confrontation, f.err
}

func (f *fakeManager) AcceptOffer(context.Context, confrontation.AcceptOfferRequest) (confrontation.OfferResult, error) {
	return confrontation.OfferResult{}, f.err
}

func (f *fakeManager) AttemptEscape(context.Context, string) (confrontation.EscapeResult, error) {
	return confrontation.EscapeResult{}, f.err
}

func (f *fakeManager) StartQuickBattleAsTarget(_ context.Context, target string) (confrontation.BattleResult, error) {
	f.role, f.target = RoleTarget, target
	return confrontation.BattleResult{}, f.err
}

func (f *fakeManager) StartQuickBattleAsAttacker(_ context.Context, attacker, target string) (confrontation.BattleResult, error) {
	f.role, f.attacker, f.target = RoleAttacker, attacker, target
	return confrontation.BattleResult{}, f.err
}

func (f *fakeManager) Plunder(context.Context, confrontation.PlunderRequest) (confrontation.LootResult, error) {
	return confrontation.LootResult{}, f.err
}

func (f *fakeManager) GetConfrontation(context.Context, string) (confrontation.View, error) {
	return confrontation.View{State: confrontation.StateNone}, f.err
}

func (f *fakeManager) GetPlunder(context.Context, string, string) (confrontation.PlunderView, error) {
	return confrontation.PlunderView{State: confrontation.PlunderNone}, f.err
}

func TestNilRequestsAreInvalid(t *testing.T) {
	svc := NewService(&fakeManager{}, nil)
	ctx := context.Background()

	calls := map[string]func() error{
		"intercept":          func() error { _, err := svc.Intercept(ctx, nil); return err },
		"accept offer":       func() error { _, err := svc.AcceptOffer(ctx, nil); return err },
		"attempt escape":     func() error { _, err := svc.AttemptEscape(ctx, nil); return err },
		"start quick battle": func() error { _, err := svc.StartQuickBattle(ctx, nil); return err },
		"plunder":            func() error { _, err := svc.Plunder(ctx, nil); return err },
		"get confrontation":  func() error { _, err := svc.GetConfrontation(ctx, nil); return err },
		"get plunder":        func() error { _, err := svc.GetPlunder(ctx, nil); return err },
		"list audit events":  func() error { _, err := svc.ListAuditEvents(ctx, nil); return err },
	}
	for name, call := range calls {
		if code := status.Code(call()); code != codes.InvalidArgument {
			t.Fatalf("%s code = %v, want %v", name, code, codes.InvalidArgument)
		}
	}
}

func TestStartQuickBattleRoutesByRole(t *testing.T) {
	manager := &fakeManager{}
	svc := NewService(manager, nil)
	asPirate := requestctx.WithPlayerID(context.Background(), "pirate")
	asTrader := requestctx.WithPlayerID(context.Background(), "trader")

	if _, err := svc.StartQuickBattle(asPirate, &StartQuickBattleRequest{Role: "Attacker", Attacker: "pirate", Target: "trader"}); err != nil {
		t.Fatalf("start quick battle: %v", err)
	}
	if manager.role != RoleAttacker || manager.attacker != "pirate" || manager.target != "trader" {
		t.Fatalf("manager saw role=%q attacker=%q target=%q", manager.role, manager.attacker, manager.target)
	}

	if _, err := svc.StartQuickBattle(asTrader, &StartQuickBattleRequest{Role: RoleTarget, Target: "trader"}); err != nil {
		t.Fatalf("start quick battle: %v", err)
	}
	if manager.role != RoleTarget {
		t.Fatalf("role = %q, want %q", manager.role, RoleTarget)
	}

	_, err := svc.StartQuickBattle(asTrader, &StartQuickBattleRequest{Role: "bystander", Target: "trader"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %v, want %v", status.Code(err), codes.InvalidArgument)
	}
}

func TestMutatingCallsActAsAuthenticatedPlayer(t *testing.T) {
	anonymous := context.Background()
	asPirate := requestctx.WithPlayerID(context.Background(), "pirate")
	asTrader := requestctx.WithPlayerID(context.Background(), "trader")

	tcs := []struct {
		name string
		call func(*Service) error
		want codes.Code
	}{
		{
			name: "anonymous intercept",
			call: func(s *Service) error {
				_, err := s.Intercept(anonymous, &InterceptRequest{Attacker: "pirate", Target: "trader"})
				return err
			},
			want: codes.PermissionDenied,
		},
		{
			name: "intercept for another attacker",
			call: func(s *Service) error {
				_, err := s.Intercept(asTrader, &InterceptRequest{Attacker: "pirate", Target: "trader"})
				return err
			},
			want: codes.PermissionDenied,
		},
		{
			name: "accept offer for another attacker",
			call: func(s *Service) error {
				_, err := s.AcceptOffer(asTrader, &AcceptOfferRequest{Attacker: "pirate", Target: "trader"})
				return err
			},
			want: codes.PermissionDenied,
		},
		{
			name: "escape on behalf of the target",
			call: func(s *Service) error {
				_, err := s.AttemptEscape(asPirate, &AttemptEscapeRequest{Target: "trader"})
				return err
			},
			want: codes.PermissionDenied,
		},
		{
			name: "battle as target on behalf of the target",
			call: func(s *Service) error {
				_, err := s.StartQuickBattle(asPirate, &StartQuickBattleRequest{Role: RoleTarget, Target: "trader"})
				return err
			},
			want: codes.PermissionDenied,
		},
		{
			name: "battle as attacker on behalf of the attacker",
			call: func(s *Service) error {
				_, err := s.StartQuickBattle(asTrader, &StartQuickBattleRequest{Role: RoleAttacker, Attacker: "pirate", Target: "trader"})
				return err
			},
			want: codes.PermissionDenied,
		},
		{
			name: "plunder on behalf of the attacker",
			call: func(s *Service) error {
				_, err := s.Plunder(asTrader, &PlunderRequest{Attacker: "pirate", Target: "trader"})
				return err
			},
			want: codes.PermissionDenied,
		},
		{
			name: "reads stay open",
			call: func(s *Service) error {
				_, err := s.GetConfrontation(anonymous, &GetConfrontationRequest{Target: "trader"})
				return err
			},
			want: codes.OK,
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			manager := &fakeManager{}
			if code := status.Code(tc.call(NewService(manager, nil))); code != tc.want {
				t.Fatalf("code = %v, want %v", code, tc.want)
			}
			if tc.want != codes.OK && (manager.attacker != "" || manager.target != "" || manager.role != "") {
				t.Fatalf("manager was reached: attacker=%q target=%q role=%q", manager.attacker, manager.target, manager.role)
			}
		})
	}
}

func TestOmittedPartyDefaultsToPlayer(t *testing.T) {
	manager := &fakeManager{}
	svc := NewService(manager, nil)
	ctx := requestctx.WithPlayerID(context.Background(), "pirate")

	if _, err := svc.Intercept(ctx, &InterceptRequest{Target: "trader"}); err != nil {
		t.Fatalf("intercept: %v", err)
	}
	if manager.attacker != "pirate" || manager.target != "trader" {
		t.Fatalf("manager saw attacker=%q target=%q, want pirate and trader", manager.attacker, manager.target)
	}
}

func TestUnknownItemKindIsInvalid(t *testing.T) {
	svc := NewService(&fakeManager{}, nil)
	_, err := svc.Plunder(requestctx.WithPlayerID(context.Background(), "pirate"), &PlunderRequest{
		Attacker: "pirate",
		Target:   "trader",
		Items:    []Item{{Asset: "wood", Kind: "liquid", Slot: 1, Amount: 1}},
	})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %v, want %v", status.Code(err), codes.InvalidArgument)
	}
}

func TestDomainErrorsMapToStatus(t *testing.T) {
	tcs := []struct {
		name string
		err  error
		want codes.Code
	}{
		{name: "busy", err: apperrors.WithMetadata(apperrors.CodeTargetBusy, "busy", map[string]string{"Target": "trader"}), want: codes.AlreadyExists},
		{name: "window", err: apperrors.New(apperrors.CodeResponseWindowClosed, "closed"), want: codes.FailedPrecondition},
		{name: "signers", err: apperrors.New(apperrors.CodeOfferSignersIncomplete, "signers"), want: codes.PermissionDenied},
		{name: "missing", err: apperrors.New(apperrors.CodeNotFound, "missing"), want: codes.NotFound},
		{name: "internal", err: errors.New("disk full"), want: codes.Internal},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(&fakeManager{err: tc.err}, nil)
			ctx := requestctx.WithPlayerID(context.Background(), "pirate")
			_, err := svc.Intercept(ctx, &InterceptRequest{Attacker: "pirate", Target: "trader"})
			if status.Code(err) != tc.want {
				t.Fatalf("code = %v, want %v", status.Code(err), tc.want)
			}
		})
	}
}

func TestListAuditEventsWithoutStore(t *testing.T) {
	svc := NewService(&fakeManager{}, nil)
	_, err := svc.ListAuditEvents(context.Background(), &ListAuditEventsRequest{Target: "trader"})
	if status.Code(err) != codes.Unimplemented {
		t.Fatalf("code = %v, want %v", status.Code(err), codes.Unimplemented)
	}
}

type fixedSeeder struct{}

func (fixedSeeder) Roll(string) (random.Roller, error) { return random.Fixed{5000}, nil }

func startServer(t *testing.T) *Client {
	t.Helper()

	world, err := local.Default()
	if err != nil {
		t.Fatalf("load world: %v", err)
	}
	store := memory.NewStore()
	emitter := audit.NewEmitter(store)
	verifier, err := authz.NewVerifier("pirates-test", world, time.Now)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	manager, err := confrontation.NewManager(confrontation.Deps{
		Registry:   world,
		World:      world,
		Inventory:  world,
		Verifier:   verifier,
		Transactor: world,
		Store:      store,
		Seeds:      fixedSeeder{},
	}, confrontation.WithAudit(emitter))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(
		grpcmeta.UnaryServerInterceptor(nil),
		interceptors.AuditInterceptor(emitter),
	))
	RegisterConfrontationServiceServer(server, NewService(manager, store))
	go func() {
		_ = server.Serve(listener)
	}()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient(listener.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := conn.Close(); closeErr != nil {
			t.Fatalf("close gRPC connection: %v", closeErr)
		}
	})
	return NewClient(conn)
}

func TestConfrontationServiceRoundTrip(t *testing.T) {
	client := startServer(t)
	ctx := grpcmeta.WithOutgoingPlayerID(context.Background(), "blackbeard")

	var header metadata.MD
	intercepted, err := client.Intercept(ctx, &InterceptRequest{Attacker: "blackbeard", Target: "merchant-guild"}, grpc.Header(&header))
	if err != nil {
		t.Fatalf("intercept: %v", err)
	}
	if intercepted.Confrontation.State != string(confrontation.StateActive) || intercepted.Confrontation.Location != 7 {
		t.Fatalf("confrontation = %+v, want active on tile 7", intercepted.Confrontation)
	}
	if len(header.Get(grpcmeta.RequestIDHeader)) != 1 {
		t.Fatalf("response headers = %v, want a request id", header)
	}

	got, err := client.GetConfrontation(ctx, &GetConfrontationRequest{Target: "merchant-guild"})
	if err != nil {
		t.Fatalf("get confrontation: %v", err)
	}
	if got.State != string(confrontation.StateActive) || got.Confrontation == nil || got.Confrontation.Attacker != "blackbeard" {
		t.Fatalf("get confrontation = %+v", got)
	}
	if !got.Confrontation.Deadline.Equal(intercepted.Confrontation.Deadline) {
		t.Fatalf("deadline = %v, want %v", got.Confrontation.Deadline, intercepted.Confrontation.Deadline)
	}

	_, err = client.StartQuickBattle(ctx, &StartQuickBattleRequest{Role: RoleAttacker, Attacker: "blackbeard", Target: "merchant-guild"})
	st := status.Convert(err)
	if st.Code() != codes.FailedPrecondition {
		t.Fatalf("code = %v, want %v", st.Code(), codes.FailedPrecondition)
	}
	var reason string
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok {
			reason = info.GetReason()
		}
	}
	if reason != string(apperrors.CodeResponseWindowOpen) {
		t.Fatalf("reason = %q, want %q", reason, apperrors.CodeResponseWindowOpen)
	}

	plunder, err := client.GetPlunder(ctx, &GetPlunderRequest{Attacker: "blackbeard", Target: "merchant-guild"})
	if err != nil {
		t.Fatalf("get plunder: %v", err)
	}
	if plunder.State != string(confrontation.PlunderNone) || plunder.Plunder != nil {
		t.Fatalf("get plunder = %+v, want none", plunder)
	}

	trail, err := client.ListAuditEvents(ctx, &ListAuditEventsRequest{Target: "merchant-guild"})
	if err != nil {
		t.Fatalf("list audit events: %v", err)
	}
	names := map[string]int{}
	for _, evt := range trail.Events {
		names[evt.EventName]++
	}
	if names["pirates.confrontation.intercept"] != 1 {
		t.Fatalf("audit names = %v, want one intercept", names)
	}
	if names[interceptors.EventGRPCWrite] != 2 || names[interceptors.EventGRPCRead] != 2 {
		t.Fatalf("audit names = %v, want 2 writes and 2 reads", names)
	}
}

func TestLocalizedErrorsFollowLocaleHeader(t *testing.T) {
	client := startServer(t)
	ctx := grpcmeta.WithOutgoingPlayerID(context.Background(), "merchant-guild")
	ctx = metadata.AppendToOutgoingContext(ctx, grpcmeta.LocaleHeader, "en-US")

	_, err := client.AttemptEscape(ctx, &AttemptEscapeRequest{Target: "merchant-guild"})
	st := status.Convert(err)
	if st.Code() != codes.NotFound {
		t.Fatalf("code = %v, want %v", st.Code(), codes.NotFound)
	}
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		if msg, ok := detail.(*errdetails.LocalizedMessage); ok {
			localized = msg
		}
	}
	if localized == nil || localized.GetMessage() != "No confrontation found for merchant-guild" {
		t.Fatalf("localized = %v", localized)
	}
}

func TestSpoofedPartyIsRejectedOverTheWire(t *testing.T) {
	client := startServer(t)
	asBlackbeard := grpcmeta.WithOutgoingPlayerID(context.Background(), "blackbeard")
	if _, err := client.Intercept(asBlackbeard, &InterceptRequest{Target: "merchant-guild"}); err != nil {
		t.Fatalf("intercept: %v", err)
	}

	// blackbeard cannot answer the confrontation for the merchant guild.
	_, err := client.AttemptEscape(asBlackbeard, &AttemptEscapeRequest{Target: "merchant-guild"})
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("code = %v, want %v", status.Code(err), codes.PermissionDenied)
	}
	_, err = client.StartQuickBattle(context.Background(), &StartQuickBattleRequest{Role: RoleTarget, Target: "merchant-guild"})
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("anonymous code = %v, want %v", status.Code(err), codes.PermissionDenied)
	}

	got, err := client.GetConfrontation(context.Background(), &GetConfrontationRequest{Target: "merchant-guild"})
	if err != nil {
		t.Fatalf("get confrontation: %v", err)
	}
	if got.State != string(confrontation.StateActive) || got.Confrontation.EscapeAttempted {
		t.Fatalf("confrontation = %+v, want untouched active confrontation", got.Confrontation)
	}
}
