package alarmclock

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "alarmclock.v1.AlarmService"

// Full method names.
const (
	AddAlarmMethod         = "/" + ServiceName + "/AddAlarm"
	CancelAlarmMethod      = "/" + ServiceName + "/CancelAlarm"
	ListAlarmsMethod       = "/" + ServiceName + "/ListAlarms"
	StartChallengeMethod   = "/" + ServiceName + "/StartChallenge"
	SubmitAnswerMethod     = "/" + ServiceName + "/SubmitAnswer"
	AbandonChallengeMethod = "/" + ServiceName + "/AbandonChallenge"
	ServerTimeMethod       = "/" + ServiceName + "/ServerTime"
	WatchAlarmsMethod      = "/" + ServiceName + "/WatchAlarms"
)

// AlarmServiceServer is the server API of the alarm service.
type AlarmServiceServer interface {
	// AddAlarm schedules an alarm from {time, label, sound} and returns its id.
	AddAlarm(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	// CancelAlarm cancels a scheduled alarm and reports whether it was cancelled.
	CancelAlarm(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	// ListAlarms returns every tracked alarm in creation order.
	ListAlarms(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	// StartChallenge opens the challenge of a ringing alarm.
	StartChallenge(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// SubmitAnswer answers the current question from {id, answer}.
	SubmitAnswer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// AbandonChallenge returns a challenging alarm to ringing.
	AbandonChallenge(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	// ServerTime returns the daemon clock reading.
	ServerTime(context.Context, *emptypb.Empty) (*timestamppb.Timestamp, error)
	// WatchAlarms streams alarm state changes until the client goes away.
	WatchAlarms(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
}

// RegisterAlarmServiceServer registers srv on the provided gRPC server.
func RegisterAlarmServiceServer(s grpc.ServiceRegistrar, srv AlarmServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unaryHandler adapts a typed unary method to a grpc.MethodHandler.
func unaryHandler[Req any, Res any, PReq interface {
	*Req
}](
	fullMethod string,
	call func(AlarmServiceServer, context.Context, PReq) (Res, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}

		if interceptor == nil {
			return call(srv.(AlarmServiceServer), ctx, in) //nolint:forcetypeassert // Registered with this interface.
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AlarmServiceServer), ctx, req.(PReq)) //nolint:forcetypeassert // Decoded above.
		}

		return interceptor(ctx, in, info, handler)
	}
}

func watchAlarmsHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}

	//nolint:forcetypeassert // Registered with this interface.
	return srv.(AlarmServiceServer).WatchAlarms(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{
		ServerStream: stream,
	})
}

// ServiceDesc describes the alarm service for grpc.Server.RegisterService.
//
//nolint:gochecknoglobals // Service descriptors are package-level by convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AlarmServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "AddAlarm",
			Handler:    unaryHandler(AddAlarmMethod, AlarmServiceServer.AddAlarm),
		},
		{
			MethodName: "CancelAlarm",
			Handler:    unaryHandler(CancelAlarmMethod, AlarmServiceServer.CancelAlarm),
		},
		{
			MethodName: "ListAlarms",
			Handler:    unaryHandler(ListAlarmsMethod, AlarmServiceServer.ListAlarms),
		},
		{
			MethodName: "StartChallenge",
			Handler:    unaryHandler(StartChallengeMethod, AlarmServiceServer.StartChallenge),
		},
		{
			MethodName: "SubmitAnswer",
			Handler:    unaryHandler(SubmitAnswerMethod, AlarmServiceServer.SubmitAnswer),
		},
		{
			MethodName: "AbandonChallenge",
			Handler:    unaryHandler(AbandonChallengeMethod, AlarmServiceServer.AbandonChallenge),
		},
		{
			MethodName: "ServerTime",
			Handler:    unaryHandler(ServerTimeMethod, AlarmServiceServer.ServerTime),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchAlarms",
			Handler:       watchAlarmsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "alarmclock/v1/alarm_service",
}

// AlarmServiceClient is the client API of the alarm service.
type AlarmServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAlarmServiceClient creates a client over the provided connection.
func NewAlarmServiceClient(cc grpc.ClientConnInterface) *AlarmServiceClient {
	return &AlarmServiceClient{cc: cc}
}

// AddAlarm calls the AddAlarm method.
func (c *AlarmServiceClient) AddAlarm(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, AddAlarmMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// CancelAlarm calls the CancelAlarm method.
func (c *AlarmServiceClient) CancelAlarm(
	ctx context.Context,
	in *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, CancelAlarmMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// ListAlarms calls the ListAlarms method.
func (c *AlarmServiceClient) ListAlarms(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, ListAlarmsMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// StartChallenge calls the StartChallenge method.
func (c *AlarmServiceClient) StartChallenge(
	ctx context.Context,
	in *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, StartChallengeMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// SubmitAnswer calls the SubmitAnswer method.
func (c *AlarmServiceClient) SubmitAnswer(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SubmitAnswerMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// AbandonChallenge calls the AbandonChallenge method.
func (c *AlarmServiceClient) AbandonChallenge(
	ctx context.Context,
	in *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, AbandonChallengeMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// ServerTime calls the ServerTime method.
func (c *AlarmServiceClient) ServerTime(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*timestamppb.Timestamp, error) {
	out := new(timestamppb.Timestamp)
	if err := c.cc.Invoke(ctx, ServerTimeMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// WatchAlarms opens the WatchAlarms stream.
func (c *AlarmServiceClient) WatchAlarms(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], WatchAlarmsMethod, opts...)
	if err != nil {
		return nil, err
	}

	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}

	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}

	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}

	return x, nil
}
