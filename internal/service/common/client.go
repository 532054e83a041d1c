//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	api "github.com/oshokin/alarm-clock/internal/api/grpc/alarmclock"
	"github.com/oshokin/alarm-clock/internal/config"
	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/service/scheduler"
)

// Client wraps the gRPC AlarmService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the alarm daemon.
	conn *grpc.ClientConn
	// api is the AlarmService client.
	api *api.AlarmServiceClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// actor is sent with every call when not empty.
	actor string
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor attaches the provided actor to every call.
func WithActor(actor Actor) Option {
	return func(c *Client) {
		c.actor = actor.String()
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errIDRequired is returned when an alarm id is not provided.
	errIDRequired = errors.New("alarm id must be provided")
)

// Dial establishes a gRPC connection to the alarm daemon.
// Note: this uses insecure transport credentials; the daemon is meant to listen
// on the loopback interface or a trusted network.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	// Use the non-context NewClient API recommended by grpc-go
	// (DialContext is deprecated as of grpc-go v1.60+).
	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial alarm daemon: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         api.NewAlarmServiceClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// AddAlarm schedules an alarm at the next occurrence of an HH:MM time of day.
func (c *Client) AddAlarm(ctx context.Context, timeOfDay, label, soundRef string) (string, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	request := api.AddRequestToStruct(api.AddRequest{
		TimeOfDay: timeOfDay,
		Label:     label,
		SoundRef:  soundRef,
	})

	id, err := c.api.AddAlarm(callCtx, request)
	if err != nil {
		return "", fmt.Errorf("add alarm: %w", err)
	}

	return id.GetValue(), nil
}

// CancelAlarm cancels a scheduled alarm and reports whether it was cancelled.
func (c *Client) CancelAlarm(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, errIDRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	cancelled, err := c.api.CancelAlarm(callCtx, wrapperspb.String(id))
	if err != nil {
		return false, fmt.Errorf("cancel alarm: %w", err)
	}

	return cancelled.GetValue(), nil
}

// ListAlarms returns every alarm tracked by the daemon.
func (c *Client) ListAlarms(ctx context.Context) ([]*domain.Alarm, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	list, err := c.api.ListAlarms(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("list alarms: %w", err)
	}

	return api.AlarmsFromList(list)
}

// StartChallenge opens the challenge of a ringing alarm.
func (c *Client) StartChallenge(ctx context.Context, id string) (scheduler.ChallengeView, error) {
	if id == "" {
		return scheduler.ChallengeView{}, errIDRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	view, err := c.api.StartChallenge(callCtx, wrapperspb.String(id))
	if err != nil {
		return scheduler.ChallengeView{}, fmt.Errorf("start challenge: %w", err)
	}

	return api.ViewFromStruct(view)
}

// SubmitAnswer answers the current question of an open challenge.
func (c *Client) SubmitAnswer(ctx context.Context, id, answer string) (scheduler.Attempt, error) {
	if id == "" {
		return scheduler.Attempt{}, errIDRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	attempt, err := c.api.SubmitAnswer(callCtx, api.AnswerRequestToStruct(api.AnswerRequest{
		ID:     id,
		Answer: answer,
	}))
	if err != nil {
		return scheduler.Attempt{}, fmt.Errorf("submit answer: %w", err)
	}

	return api.AttemptFromStruct(attempt)
}

// AbandonChallenge leaves an open challenge; the alarm keeps ringing.
func (c *Client) AbandonChallenge(ctx context.Context, id string) error {
	if id == "" {
		return errIDRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.AbandonChallenge(callCtx, wrapperspb.String(id)); err != nil {
		return fmt.Errorf("abandon challenge: %w", err)
	}

	return nil
}

// ServerTime returns the daemon clock reading.
func (c *Client) ServerTime(ctx context.Context) (time.Time, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	now, err := c.api.ServerTime(callCtx, new(emptypb.Empty))
	if err != nil {
		return time.Time{}, fmt.Errorf("server time: %w", err)
	}

	return now.AsTime(), nil
}

// WatchAlarms calls fn for every alarm state change until ctx is done,
// the stream ends or fn returns an error.
func (c *Client) WatchAlarms(ctx context.Context, fn func(scheduler.Event) error) error {
	// Streams live as long as the caller wants, so only the actor is attached.
	stream, err := c.api.WatchAlarms(c.withActor(ctx), new(emptypb.Empty))
	if err != nil {
		return fmt.Errorf("watch alarms: %w", err)
	}

	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("watch alarms: %w", err)
		}

		event, err := api.EventFromStruct(msg)
		if err != nil {
			return fmt.Errorf("decode alarm event: %w", err)
		}

		if err := fn(event); err != nil {
			return err
		}
	}
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = c.withActor(ctx)

	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}

// withActor attaches the actor metadata when one is configured.
func (c *Client) withActor(ctx context.Context) context.Context {
	if c.actor == "" {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx, api.ActorMetadataKey, c.actor)
}
