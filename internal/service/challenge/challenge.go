package challenge

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
)

// Outcome is the terminal status of a session.
type Outcome string

const (
	// OutcomePending means questions remain to be answered.
	OutcomePending Outcome = "pending"
	// OutcomeSolved means the final answer was correct.
	OutcomeSolved Outcome = "solved"
	// OutcomeFailed means the final answer was wrong or the session was abandoned.
	OutcomeFailed Outcome = "failed"
)

// Result describes the effect of a single submission.
type Result string

const (
	// ResultAdvance means the session moved to the next question.
	ResultAdvance Result = "advance"
	// ResultSolved means the session ended solved.
	ResultSolved Result = "solved"
	// ResultFailed means the session ended failed.
	ResultFailed Result = "failed"
	// ResultInvalidInput means the answer was not an integer; the question is asked again.
	ResultInvalidInput Result = "invalid_input"
)

// Question bounds.
const (
	minQuestions = 3
	maxQuestions = 4

	addMin, addMax               = 10, 50
	minuendMin, minuendMax       = 25, 75
	subtrahendMin, subtrahendMax = 1, 25
	factorMin, factorMax         = 2, 12
)

var (
	// ErrInvalidInput is returned when an answer cannot be parsed as an integer.
	ErrInvalidInput = errors.New("answer must be a whole number")
	// ErrSessionFinished is returned when submitting to a solved or failed session.
	ErrSessionFinished = errors.New("challenge session is already finished")
)

// Question is one arithmetic problem.
type Question struct {
	// Expression is the human-readable problem, e.g. "34 + 12".
	Expression string
	// Answer is the correct integer result.
	Answer int
}

// NewRand returns a randomly seeded source for question generation.
func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // Not security sensitive.
}

// GenerateQuestion picks addition, subtraction or multiplication uniformly.
func GenerateQuestion(rng *rand.Rand) Question {
	switch rng.IntN(3) {
	case 0:
		a, b := between(rng, addMin, addMax), between(rng, addMin, addMax)
		return Question{Expression: fmt.Sprintf("%d + %d", a, b), Answer: a + b}
	case 1:
		a, b := between(rng, minuendMin, minuendMax), between(rng, subtrahendMin, subtrahendMax)
		return Question{Expression: fmt.Sprintf("%d - %d", a, b), Answer: a - b}
	default:
		a, b := between(rng, factorMin, factorMax), between(rng, factorMin, factorMax)
		return Question{Expression: fmt.Sprintf("%d × %d", a, b), Answer: a * b}
	}
}

// between returns a uniformly distributed integer in [lo, hi].
func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}

// Session is a single challenge attempt. It is not safe for concurrent use.
type Session struct {
	// questions is the ordered list of problems.
	questions []Question
	// index points at the current question.
	index int
	// outcome is the session status.
	outcome Outcome
}

// NewSession generates a session with three or four questions.
func NewSession(rng *rand.Rand) *Session {
	total := between(rng, minQuestions, maxQuestions)

	questions := make([]Question, total)
	for i := range questions {
		questions[i] = GenerateQuestion(rng)
	}

	return NewSessionWithQuestions(questions)
}

// NewSessionWithQuestions builds a session over predefined questions.
func NewSessionWithQuestions(questions []Question) *Session {
	return &Session{
		questions: append([]Question(nil), questions...),
		outcome:   OutcomePending,
	}
}

// CurrentQuestion returns the expression of the question being asked.
// It returns an empty string once the session is finished.
func (s *Session) CurrentQuestion() string {
	if s.outcome != OutcomePending {
		return ""
	}

	return s.questions[s.index].Expression
}

// Progress returns the zero-based index of the current question and the total.
func (s *Session) Progress() (index, total int) {
	return s.index, len(s.questions)
}

// Outcome returns the session status.
func (s *Session) Outcome() Outcome {
	return s.outcome
}

// Submit grades a raw answer.
//
// Answers to all but the last question are accepted without being checked.
// Unparseable input keeps the session on the same question.
func (s *Session) Submit(input string) (Result, error) {
	if s.outcome != OutcomePending {
		return "", ErrSessionFinished
	}

	answer, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return ResultInvalidInput, fmt.Errorf("%q: %w", input, ErrInvalidInput)
	}

	if s.index < len(s.questions)-1 {
		s.index++
		return ResultAdvance, nil
	}

	if answer == s.questions[s.index].Answer {
		s.outcome = OutcomeSolved
		return ResultSolved, nil
	}

	s.outcome = OutcomeFailed

	return ResultFailed, nil
}

// Abandon fails a pending session, as when the challenge is closed unanswered.
func (s *Session) Abandon() {
	if s.outcome == OutcomePending {
		s.outcome = OutcomeFailed
	}
}
