package pirates

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "pirates.v1.ConfrontationService"

// ConfrontationServiceServer is the server API of ServiceName.
type ConfrontationServiceServer interface {
	Intercept(context.Context, *InterceptRequest) (*InterceptResponse, error)
	AcceptOffer(context.Context, *AcceptOfferRequest) (*AcceptOfferResponse, error)
	AttemptEscape(context.Context, *AttemptEscapeRequest) (*AttemptEscapeResponse, error)
	StartQuickBattle(context.Context, *StartQuickBattleRequest) (*StartQuickBattleResponse, error)
	Plunder(context.Context, *PlunderRequest) (*PlunderResponse, error)
	GetConfrontation(context.Context, *GetConfrontationRequest) (*GetConfrontationResponse, error)
	GetPlunder(context.Context, *GetPlunderRequest) (*GetPlunderResponse, error)
	ListAuditEvents(context.Context, *ListAuditEventsRequest) (*ListAuditEventsResponse, error)
}

// Full method names, as seen by interceptors.
const (
	MethodIntercept        = "/" + ServiceName + "/Intercept"
	MethodAcceptOffer      = "/" + ServiceName + "/AcceptOffer"
	MethodAttemptEscape    = "/" + ServiceName + "/AttemptEscape"
	MethodStartQuickBattle = "/" + ServiceName + "/StartQuickBattle"
	MethodPlunder          = "/" + ServiceName + "/Plunder"
	MethodGetConfrontation = "/" + ServiceName + "/GetConfrontation"
	MethodGetPlunder       = "/" + ServiceName + "/GetPlunder"
	MethodListAuditEvents  = "/" + ServiceName + "/ListAuditEvents"
)

// ServiceDesc describes ServiceName for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ConfrontationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Intercept", Handler: unaryHandler(MethodIntercept, ConfrontationServiceServer.Intercept)},
		{MethodName: "AcceptOffer", Handler: unaryHandler(MethodAcceptOffer, ConfrontationServiceServer.AcceptOffer)},
		{MethodName: "AttemptEscape", Handler: unaryHandler(MethodAttemptEscape, ConfrontationServiceServer.AttemptEscape)},
		{MethodName: "StartQuickBattle", Handler: unaryHandler(MethodStartQuickBattle, ConfrontationServiceServer.StartQuickBattle)},
		{MethodName: "Plunder", Handler: unaryHandler(MethodPlunder, ConfrontationServiceServer.Plunder)},
		{MethodName: "GetConfrontation", Handler: unaryHandler(MethodGetConfrontation, ConfrontationServiceServer.GetConfrontation)},
		{MethodName: "GetPlunder", Handler: unaryHandler(MethodGetPlunder, ConfrontationServiceServer.GetPlunder)},
		{MethodName: "ListAuditEvents", Handler: unaryHandler(MethodListAuditEvents, ConfrontationServiceServer.ListAuditEvents)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: protoFile,
}

// RegisterConfrontationServiceServer registers srv on s.
func RegisterConfrontationServiceServer(s grpc.ServiceRegistrar, srv ConfrontationServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unaryHandler[Req, Resp any](fullMethod string, call func(ConfrontationServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		server := srv.(ConfrontationServiceServer)
		if interceptor == nil {
			return call(server, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(server, ctx, req.(*Req))
		})
	}
}

// Client calls ConfrontationService with the pirates protobuf codec.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Intercept(ctx context.Context, in *InterceptRequest, opts ...grpc.CallOption) (*InterceptResponse, error) {
	return invoke[InterceptResponse](ctx, c, MethodIntercept, in, opts)
}

func (c *Client) AcceptOffer(ctx context.Context, in *AcceptOfferRequest, opts ...grpc.CallOption) (*AcceptOfferResponse, error) {
	return invoke[AcceptOfferResponse](ctx, c, MethodAcceptOffer, in, opts)
}

func (c *Client) AttemptEscape(ctx context.Context, in *AttemptEscapeRequest, opts ...grpc.CallOption) (*AttemptEscapeResponse, error) {
	return invoke[AttemptEscapeResponse](ctx, c, MethodAttemptEscape, in, opts)
}

func (c *Client) StartQuickBattle(ctx context.Context, in *StartQuickBattleRequest, opts ...grpc.CallOption) (*StartQuickBattleResponse, error) {
	return invoke[StartQuickBattleResponse](ctx, c, MethodStartQuickBattle, in, opts)
}

func (c *Client) Plunder(ctx context.Context, in *PlunderRequest, opts ...grpc.CallOption) (*PlunderResponse, error) {
	return invoke[PlunderResponse](ctx, c, MethodPlunder, in, opts)
}

func (c *Client) GetConfrontation(ctx context.Context, in *GetConfrontationRequest, opts ...grpc.CallOption) (*GetConfrontationResponse, error) {
	return invoke[GetConfrontationResponse](ctx, c, MethodGetConfrontation, in, opts)
}

func (c *Client) GetPlunder(ctx context.Context, in *GetPlunderRequest, opts ...grpc.CallOption) (*GetPlunderResponse, error) {
	return invoke[GetPlunderResponse](ctx, c, MethodGetPlunder, in, opts)
}

func (c *Client) ListAuditEvents(ctx context.Context, in *ListAuditEventsRequest, opts ...grpc.CallOption) (*ListAuditEventsResponse, error) {
	return invoke[ListAuditEventsResponse](ctx, c, MethodListAuditEvents, in, opts)
}
