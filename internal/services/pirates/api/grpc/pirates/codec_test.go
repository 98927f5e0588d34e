package pirates

import (
	"bytes"
	"math"
	"testing"
	"time"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestWireFileDeclaresEveryMethod(t *testing.T) {
	service := wireFile.Services().ByName("ConfrontationService")
	if service == nil {
		t.Fatal("expected ConfrontationService in the wire file")
	}
	if got := service.Methods().Len(); got != len(ServiceDesc.Methods) {
		t.Fatalf("methods = %d, want %d", got, len(ServiceDesc.Methods))
	}
	for _, method := range ServiceDesc.Methods {
		desc := service.Methods().ByName(protoreflect.Name(method.MethodName))
		if desc == nil {
			t.Fatalf("method %s missing from the wire file", method.MethodName)
		}
		if want := protoPackage + "." + method.MethodName + "Request"; string(desc.Input().FullName()) != want {
			t.Fatalf("%s input = %s, want %s", method.MethodName, desc.Input().FullName(), want)
		}
	}
}

func TestCodecIsRegistered(t *testing.T) {
	if encoding.GetCodec(CodecName) == nil {
		t.Fatalf("codec %q is not registered", CodecName)
	}
}

func TestCodecMatchesStandardProtobufEncoding(t *testing.T) {
	codec := protoCodec{}

	// GetConfrontationRequest has the same shape as StringValue: one string
	// in field 1.
	data, err := codec.Marshal(&GetConfrontationRequest{Target: "merchant-guild"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want, err := proto.Marshal(wrapperspb.String("merchant-guild"))
	if err != nil {
		t.Fatalf("marshal StringValue: %v", err)
	}
	if !bytes.Equal(data, want) {
		t.Fatalf("payload = %x, want %x", data, want)
	}

	var req GetConfrontationRequest
	if err := codec.Unmarshal(want, &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.Target != "merchant-guild" {
		t.Fatalf("target = %q, want merchant-guild", req.Target)
	}
}

func TestCodecKeepsNestedValues(t *testing.T) {
	codec := protoCodec{}
	deadline := time.Date(2026, 10, 15, 9, 30, 0, 123_456_789, time.UTC)
	concluded := deadline.Add(time.Minute)

	in := &StartQuickBattleResponse{
		Confrontation: Confrontation{
			Attacker:    "blackbeard",
			Target:      "merchant-guild",
			State:       "concluded",
			Location:    7,
			Deadline:    deadline,
			ConcludedAt: &concluded,
		},
		Winner: "blackbeard",
		Side1:  BattleSide{EffectiveAttack: math.MaxUint64, TurnsUntilWin: 1},
		Plunder: &Plunder{
			Attacker: "blackbeard",
			Target:   "merchant-guild",
			Deadline: deadline.Add(10 * time.Minute),
		},
	}
	data, err := codec.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out StartQuickBattleResponse
	if err := codec.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if out.Confrontation.Attacker != "blackbeard" || out.Confrontation.Location != 7 {
		t.Fatalf("confrontation = %+v", out.Confrontation)
	}
	if !out.Confrontation.Deadline.Equal(deadline) {
		t.Fatalf("deadline = %v, want %v", out.Confrontation.Deadline, deadline)
	}
	if out.Confrontation.ConcludedAt == nil || !out.Confrontation.ConcludedAt.Equal(concluded) {
		t.Fatalf("concluded at = %v, want %v", out.Confrontation.ConcludedAt, concluded)
	}
	if !out.Confrontation.Arrival.IsZero() {
		t.Fatalf("arrival = %v, want zero", out.Confrontation.Arrival)
	}
	if out.Side1.EffectiveAttack != math.MaxUint64 {
		t.Fatalf("effective attack = %d, want %d", out.Side1.EffectiveAttack, uint64(math.MaxUint64))
	}
	if out.Plunder == nil || out.Plunder.Target != "merchant-guild" {
		t.Fatalf("plunder = %+v", out.Plunder)
	}
}

func TestCodecKeepsRepeatedAndOptionalFields(t *testing.T) {
	codec := protoCodec{}
	zero := 0

	data, err := codec.Marshal(&AcceptOfferRequest{
		Attacker: "blackbeard",
		Items: []Item{
			{Asset: "gold", Slot: 1, Amount: math.MaxUint64},
			{Asset: "figurehead", Kind: "non_fungible", Slot: 2, TokenID: 9},
		},
		Proofs: []string{"a", "b"},
	})
	if err != nil {
		t.Fatalf("marshal offer: %v", err)
	}
	var offer AcceptOfferRequest
	if err := codec.Unmarshal(data, &offer); err != nil {
		t.Fatalf("unmarshal offer: %v", err)
	}
	if len(offer.Items) != 2 || offer.Items[0].Amount != math.MaxUint64 || offer.Items[1].TokenID != 9 {
		t.Fatalf("items = %+v", offer.Items)
	}
	if len(offer.Proofs) != 2 || offer.Proofs[1] != "b" {
		t.Fatalf("proofs = %v", offer.Proofs)
	}

	data, err = codec.Marshal(&InterceptRequest{Attacker: "blackbeard", RouteIndex: &zero})
	if err != nil {
		t.Fatalf("marshal intercept: %v", err)
	}
	var intercept InterceptRequest
	if err := codec.Unmarshal(data, &intercept); err != nil {
		t.Fatalf("unmarshal intercept: %v", err)
	}
	if intercept.RouteIndex == nil || *intercept.RouteIndex != 0 {
		t.Fatalf("route index = %v, want explicit 0", intercept.RouteIndex)
	}

	data, err = codec.Marshal(&InterceptRequest{Attacker: "blackbeard"})
	if err != nil {
		t.Fatalf("marshal intercept: %v", err)
	}
	intercept = InterceptRequest{}
	if err := codec.Unmarshal(data, &intercept); err != nil {
		t.Fatalf("unmarshal intercept: %v", err)
	}
	if intercept.RouteIndex != nil {
		t.Fatalf("route index = %v, want nil", *intercept.RouteIndex)
	}
}

func TestCodecRejectsForeignValues(t *testing.T) {
	codec := protoCodec{}
	type stranger struct {
		Name string `proto:"name"`
	}
	if _, err := codec.Marshal(stranger{Name: "x"}); err == nil {
		t.Fatal("expected error for a type outside pirates.v1")
	}
	if _, err := codec.Marshal("plain"); err == nil {
		t.Fatal("expected error for a non-struct value")
	}
	var req GetConfrontationRequest
	if err := codec.Unmarshal([]byte{0xff}, &req); err == nil {
		t.Fatal("expected error for a malformed payload")
	}
}
