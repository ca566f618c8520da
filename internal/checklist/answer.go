package checklist

import (
	"fmt"
	"strings"
)

// Answer is the operator's response to a question.
type Answer int8

const (
	Unanswered Answer = iota
	Yes
	No
)

// AnswerOf converts a recorded boolean into an Answer.
func AnswerOf(v bool) Answer {
	if v {
		return Yes
	}
	return No
}

// ParseAnswer accepts yes/no (and y/n, true/false) case-insensitively.
// The empty string and "unanswered" map to Unanswered.
func ParseAnswer(s string) (Answer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unanswered":
		return Unanswered, nil
	case "yes", "y", "true":
		return Yes, nil
	case "no", "n", "false":
		return No, nil
	}
	return Unanswered, fmt.Errorf("%w: answer %q", ErrFormat, s)
}

func (a Answer) String() string {
	switch a {
	case Yes:
		return "yes"
	case No:
		return "no"
	}
	return "unanswered"
}

// Bool returns the recorded value and whether the question was answered.
func (a Answer) Bool() (value, answered bool) {
	switch a {
	case Yes:
		return true, true
	case No:
		return false, true
	}
	return false, false
}

func (a Answer) MarshalText() ([]byte, error) {
	if a == Unanswered {
		return []byte{}, nil
	}
	return []byte(a.String()), nil
}

func (a *Answer) UnmarshalText(text []byte) error {
	v, err := ParseAnswer(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
