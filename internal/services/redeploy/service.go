// Package redeploy requests problem redeployments from the scoring
// infrastructure and announces them.
package redeploy

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidParameters = errors.New("invalid parameters")
	ErrAnotherJobInQueue = errors.New("another job is in queue")
	ErrUnexpectedStatus  = errors.New("unexpected status code")
)

// Target identifies the problem environment of one team.
type Target struct {
	TeamID      string `json:"team_id"`
	ProblemCode string `json:"problem_code"`
}

// Job is an accepted redeploy request.
type Job struct {
	ID          string `json:"id"`
	TeamID      string `json:"team_id"`
	ProblemCode string `json:"problem_code"`
}

// Status is the redeploy state of one problem for one team.
type Status struct {
	TeamID      string
	ProblemCode string

	Redeploying bool

	LastStartedAt   *time.Time
	LastCompletedAt *time.Time
}

type Service interface {
	Redeploy(ctx context.Context, target Target) (Job, error)
	Status(ctx context.Context, teamID string) ([]Status, error)
}

// FakeJobID is the job id returned by Fake.
const FakeJobID = "00000000-0000-0000-0000-000000000000"

// Fake accepts every request. It is used when no redeploy backend is configured.
type Fake struct {
	Now func() time.Time
}

func (f *Fake) Redeploy(_ context.Context, target Target) (Job, error) {
	return Job{
		ID:          FakeJobID,
		TeamID:      target.TeamID,
		ProblemCode: target.ProblemCode,
	}, nil
}

func (f *Fake) Status(_ context.Context, teamID string) ([]Status, error) {
	now := time.Now()
	if f.Now != nil {
		now = f.Now()
	}

	return []Status{
		{TeamID: teamID, ProblemCode: "ABC"},
		{TeamID: teamID, ProblemCode: "DEF", Redeploying: true, LastStartedAt: &now},
		{TeamID: teamID, ProblemCode: "GHI", LastStartedAt: &now, LastCompletedAt: &now},
	}, nil
}
