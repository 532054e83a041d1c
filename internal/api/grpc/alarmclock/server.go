package alarmclock

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/alarm-clock/internal/clock"
	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/service/scheduler"
	"github.com/oshokin/alarm-clock/internal/sound"
)

// watchBuffer is the event buffer of a single WatchAlarms stream.
const watchBuffer = 64

// Service abstracts the registry operations the transport layer depends on.
type Service interface {
	Add(ctx context.Context, timeOfDay, label, soundRef string) (string, error)
	Cancel(ctx context.Context, id string) bool
	Snapshot() []*domain.Alarm
	StartChallenge(ctx context.Context, id string) (scheduler.ChallengeView, error)
	SubmitAnswer(ctx context.Context, id, answer string) (scheduler.Attempt, error)
	AbandonChallenge(ctx context.Context, id string) error
	Subscribe(buffer int) (<-chan scheduler.Event, func())
}

// SoundValidator checks a sound reference before an alarm is created.
type SoundValidator func(ref string) error

// Server implements the AlarmService gRPC API.
type Server struct {
	// service provides the alarm registry operations.
	service Service
	// clock answers ServerTime.
	clock clock.Clock
	// validateSound checks user supplied sound references.
	validateSound SoundValidator
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the clock reported by ServerTime.
func WithClock(c clock.Clock) Option {
	return func(s *Server) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithSoundValidator replaces the sound reference check.
func WithSoundValidator(v SoundValidator) Option {
	return func(s *Server) {
		if v != nil {
			s.validateSound = v
		}
	}
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service, opts ...Option) *Server {
	s := &Server{
		service:       service,
		clock:         clock.System{},
		validateSound: sound.ValidateRef,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Register attaches the server to a gRPC server.
func (s *Server) Register(registrar grpc.ServiceRegistrar) {
	RegisterAlarmServiceServer(registrar, s)
}

// AddAlarm schedules an alarm at the next occurrence of the requested time of day.
func (s *Server) AddAlarm(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	add, err := AddRequestFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if add.SoundRef != "" {
		if err = s.validateSound(add.SoundRef); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
	}

	id, err := s.service.Add(ctx, add.TimeOfDay, add.Label, add.SoundRef)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return wrapperspb.String(id), nil
}

// CancelAlarm cancels a scheduled alarm. The response tells whether anything was cancelled.
func (s *Server) CancelAlarm(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "alarm id is required")
	}

	return wrapperspb.Bool(s.service.Cancel(ctx, req.GetValue())), nil
}

// ListAlarms returns every tracked alarm.
func (s *Server) ListAlarms(context.Context, *emptypb.Empty) (*structpb.ListValue, error) {
	return AlarmsToList(s.service.Snapshot()), nil
}

// StartChallenge opens the challenge of a ringing alarm.
func (s *Server) StartChallenge(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "alarm id is required")
	}

	view, err := s.service.StartChallenge(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return ViewToStruct(view), nil
}

// SubmitAnswer answers the current challenge question.
func (s *Server) SubmitAnswer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	answer, err := AnswerRequestFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	attempt, err := s.service.SubmitAnswer(ctx, answer.ID, answer.Answer)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return AttemptToStruct(attempt), nil
}

// AbandonChallenge returns a challenging alarm to ringing.
func (s *Server) AbandonChallenge(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "alarm id is required")
	}

	if err := s.service.AbandonChallenge(ctx, req.GetValue()); err != nil {
		return nil, toStatus(ctx, err)
	}

	return new(emptypb.Empty), nil
}

// ServerTime returns the daemon clock reading.
func (s *Server) ServerTime(context.Context, *emptypb.Empty) (*timestamppb.Timestamp, error) {
	return timestamppb.New(s.clock.Now()), nil
}

// WatchAlarms streams registry events until the client disconnects or the registry closes.
func (s *Server) WatchAlarms(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()

	events, unsubscribe := s.service.Subscribe(watchBuffer)
	defer unsubscribe()

	logger.DebugKV(ctx, "Alarm watcher connected", "actor", ActorFromContext(ctx))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return status.Error(codes.Unavailable, "alarm registry closed")
			}

			if err := stream.Send(EventToStruct(event)); err != nil {
				return err
			}
		}
	}
}

// toStatus maps registry errors onto gRPC status codes.
func toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidTimeFormat):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, scheduler.ErrAlarmNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, scheduler.ErrNotRinging),
		errors.Is(err, scheduler.ErrNotChallenging):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, scheduler.ErrRegistryClosed):
		return status.Error(codes.Unavailable, err.Error())
	default:
		logger.ErrorKV(ctx, "Alarm service call failed", "error", err)

		return status.Error(codes.Internal, "alarm service failure")
	}
}
