package alarmclock

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/service/challenge"
	"github.com/oshokin/alarm-clock/internal/service/scheduler"
)

// Struct field names.
const (
	fieldID        = "id"
	fieldTime      = "time"
	fieldTarget    = "target"
	fieldLabel     = "label"
	fieldSound     = "sound"
	fieldState     = "state"
	fieldCreatedAt = "created_at"
	fieldAt        = "at"
	fieldAnswer    = "answer"
	fieldResult    = "result"
	fieldQuestion  = "question"
	fieldIndex     = "index"
	fieldTotal     = "total"
)

// errMalformedMessage is returned when a payload misses a field or has the wrong type.
var errMalformedMessage = errors.New("malformed message")

// AddRequest is the payload of AddAlarm.
type AddRequest struct {
	// TimeOfDay is the HH:MM alarm time.
	TimeOfDay string
	Label     string
	SoundRef  string
}

// AnswerRequest is the payload of SubmitAnswer.
type AnswerRequest struct {
	ID     string
	Answer string
}

// AddRequestToStruct encodes an AddAlarm payload.
func AddRequestToStruct(req AddRequest) *structpb.Struct {
	return newStruct(map[string]*structpb.Value{
		fieldTime:  structpb.NewStringValue(req.TimeOfDay),
		fieldLabel: structpb.NewStringValue(req.Label),
		fieldSound: structpb.NewStringValue(req.SoundRef),
	})
}

// AddRequestFromStruct decodes an AddAlarm payload. Label and sound are optional.
func AddRequestFromStruct(s *structpb.Struct) (AddRequest, error) {
	timeOfDay, err := requiredString(s, fieldTime)
	if err != nil {
		return AddRequest{}, err
	}

	return AddRequest{
		TimeOfDay: timeOfDay,
		Label:     optionalString(s, fieldLabel),
		SoundRef:  optionalString(s, fieldSound),
	}, nil
}

// AnswerRequestToStruct encodes a SubmitAnswer payload.
func AnswerRequestToStruct(req AnswerRequest) *structpb.Struct {
	return newStruct(map[string]*structpb.Value{
		fieldID:     structpb.NewStringValue(req.ID),
		fieldAnswer: structpb.NewStringValue(req.Answer),
	})
}

// AnswerRequestFromStruct decodes a SubmitAnswer payload.
func AnswerRequestFromStruct(s *structpb.Struct) (AnswerRequest, error) {
	id, err := requiredString(s, fieldID)
	if err != nil {
		return AnswerRequest{}, err
	}

	// An empty answer is a legitimate, invalid, submission.
	return AnswerRequest{
		ID:     id,
		Answer: optionalString(s, fieldAnswer),
	}, nil
}

// AlarmToStruct encodes an alarm snapshot.
func AlarmToStruct(a *domain.Alarm) *structpb.Struct {
	return newStruct(map[string]*structpb.Value{
		fieldID:        structpb.NewStringValue(a.ID),
		fieldTarget:    structpb.NewStringValue(a.Target.Format(time.RFC3339)),
		fieldLabel:     structpb.NewStringValue(a.Label),
		fieldSound:     structpb.NewStringValue(a.SoundRef),
		fieldState:     structpb.NewStringValue(string(a.State)),
		fieldCreatedAt: structpb.NewStringValue(a.CreatedAt.Format(time.RFC3339Nano)),
	})
}

// AlarmFromStruct decodes an alarm snapshot.
func AlarmFromStruct(s *structpb.Struct) (*domain.Alarm, error) {
	id, err := requiredString(s, fieldID)
	if err != nil {
		return nil, err
	}

	target, err := requiredTime(s, fieldTarget)
	if err != nil {
		return nil, err
	}

	state, err := requiredString(s, fieldState)
	if err != nil {
		return nil, err
	}

	createdAt, err := requiredTime(s, fieldCreatedAt)
	if err != nil {
		return nil, err
	}

	return &domain.Alarm{
		ID:        id,
		Target:    target,
		Label:     optionalString(s, fieldLabel),
		SoundRef:  optionalString(s, fieldSound),
		State:     domain.State(state),
		CreatedAt: createdAt,
	}, nil
}

// EventToStruct encodes a registry event: the alarm snapshot plus the change instant.
func EventToStruct(e scheduler.Event) *structpb.Struct {
	s := AlarmToStruct(e.Alarm)
	s.Fields[fieldAt] = structpb.NewStringValue(e.At.Format(time.RFC3339Nano))

	return s
}

// EventFromStruct decodes a registry event.
func EventFromStruct(s *structpb.Struct) (scheduler.Event, error) {
	alarm, err := AlarmFromStruct(s)
	if err != nil {
		return scheduler.Event{}, err
	}

	at, err := requiredTime(s, fieldAt)
	if err != nil {
		return scheduler.Event{}, err
	}

	return scheduler.Event{Alarm: alarm, At: at}, nil
}

// AlarmsToList encodes a list of alarms.
func AlarmsToList(alarms []*domain.Alarm) *structpb.ListValue {
	values := make([]*structpb.Value, 0, len(alarms))
	for _, a := range alarms {
		values = append(values, structpb.NewStructValue(AlarmToStruct(a)))
	}

	return &structpb.ListValue{Values: values}
}

// AlarmsFromList decodes a list of alarms.
func AlarmsFromList(list *structpb.ListValue) ([]*domain.Alarm, error) {
	alarms := make([]*domain.Alarm, 0, len(list.GetValues()))

	for i, value := range list.GetValues() {
		s := value.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("alarm #%d: %w", i, errMalformedMessage)
		}

		alarm, err := AlarmFromStruct(s)
		if err != nil {
			return nil, fmt.Errorf("alarm #%d: %w", i, err)
		}

		alarms = append(alarms, alarm)
	}

	return alarms, nil
}

// ViewToStruct encodes a challenge view.
func ViewToStruct(v scheduler.ChallengeView) *structpb.Struct {
	return newStruct(viewFields(v))
}

// ViewFromStruct decodes a challenge view.
func ViewFromStruct(s *structpb.Struct) (scheduler.ChallengeView, error) {
	index, err := requiredInt(s, fieldIndex)
	if err != nil {
		return scheduler.ChallengeView{}, err
	}

	total, err := requiredInt(s, fieldTotal)
	if err != nil {
		return scheduler.ChallengeView{}, err
	}

	return scheduler.ChallengeView{
		Question: optionalString(s, fieldQuestion),
		Index:    index,
		Total:    total,
	}, nil
}

// AttemptToStruct encodes the outcome of an answer.
func AttemptToStruct(a scheduler.Attempt) *structpb.Struct {
	fields := viewFields(a.Next)
	fields[fieldResult] = structpb.NewStringValue(string(a.Result))
	fields[fieldState] = structpb.NewStringValue(string(a.State))

	return newStruct(fields)
}

// AttemptFromStruct decodes the outcome of an answer.
func AttemptFromStruct(s *structpb.Struct) (scheduler.Attempt, error) {
	result, err := requiredString(s, fieldResult)
	if err != nil {
		return scheduler.Attempt{}, err
	}

	state, err := requiredString(s, fieldState)
	if err != nil {
		return scheduler.Attempt{}, err
	}

	next, err := ViewFromStruct(s)
	if err != nil {
		return scheduler.Attempt{}, err
	}

	return scheduler.Attempt{
		Result: challenge.Result(result),
		State:  domain.State(state),
		Next:   next,
	}, nil
}

func viewFields(v scheduler.ChallengeView) map[string]*structpb.Value {
	return map[string]*structpb.Value{
		fieldQuestion: structpb.NewStringValue(v.Question),
		fieldIndex:    structpb.NewNumberValue(float64(v.Index)),
		fieldTotal:    structpb.NewNumberValue(float64(v.Total)),
	}
}

func newStruct(fields map[string]*structpb.Value) *structpb.Struct {
	return &structpb.Struct{Fields: fields}
}

func optionalString(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func requiredString(s *structpb.Struct, key string) (string, error) {
	value, ok := s.GetFields()[key]
	if !ok {
		return "", fmt.Errorf("field %q is missing: %w", key, errMalformedMessage)
	}

	if _, isString := value.GetKind().(*structpb.Value_StringValue); !isString {
		return "", fmt.Errorf("field %q is not a string: %w", key, errMalformedMessage)
	}

	return value.GetStringValue(), nil
}

func requiredInt(s *structpb.Struct, key string) (int, error) {
	value, ok := s.GetFields()[key]
	if !ok {
		return 0, fmt.Errorf("field %q is missing: %w", key, errMalformedMessage)
	}

	if _, isNumber := value.GetKind().(*structpb.Value_NumberValue); !isNumber {
		return 0, fmt.Errorf("field %q is not a number: %w", key, errMalformedMessage)
	}

	return int(value.GetNumberValue()), nil
}

func requiredTime(s *structpb.Struct, key string) (time.Time, error) {
	raw, err := requiredString(s, key)
	if err != nil {
		return time.Time{}, err
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %q: %w", key, err)
	}

	return parsed, nil
}
