package model

import (
	"fmt"
	"strings"
)

// Outcome is the result of one best-effort follow call.
type Outcome struct {
	UserID string
	Err    error
}

func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// FollowReport aggregates the outcomes of a follow-back batch.
type FollowReport struct {
	Outcomes []Outcome
}

func (r *FollowReport) Add(userID string, err error) {
	r.Outcomes = append(r.Outcomes, Outcome{UserID: userID, Err: err})
}

func (r FollowReport) Attempted() int {
	return len(r.Outcomes)
}

func (r FollowReport) Failed() []Outcome {
	var failed []Outcome
	for _, outcome := range r.Outcomes {
		if !outcome.Succeeded() {
			failed = append(failed, outcome)
		}
	}
	return failed
}

func (r FollowReport) String() string {
	failed := r.Failed()
	if len(failed) == 0 {
		return fmt.Sprintf("%d followed", r.Attempted())
	}
	ids := make([]string, 0, len(failed))
	for _, outcome := range failed {
		ids = append(ids, outcome.UserID)
	}
	return fmt.Sprintf("%d followed, %d failed (%s)", r.Attempted()-len(failed), len(failed), strings.Join(ids, ", "))
}
