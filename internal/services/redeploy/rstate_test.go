package redeploy

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRState(t *testing.T, handler http.HandlerFunc) *RState {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewRState(zerolog.Nop(), server.Client(), RStateOptions{
		BaseURL:  server.URL + "/",
		Username: "admin",
		Password: "secret",
		Problems: []string{"ABC", "DEF"},
	})
}

func TestRStateRedeploy(t *testing.T) {
	t.Parallel()

	rstate := newTestRState(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/admin/postJob", r.URL.Path)

		username, password, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", username)
		assert.Equal(t, "secret", password)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "01", r.PostForm.Get("team_id"))
		assert.Equal(t, "ABC", r.PostForm.Get("prob_id"))

		_, _ = io.WriteString(w, `{"id":"job-1","team_id":"01","prob_id":"ABC"}`)
	})

	job, err := rstate.Redeploy(context.Background(), Target{TeamID: "01", ProblemCode: "ABC"})
	require.NoError(t, err)
	assert.Equal(t, Job{ID: "job-1", TeamID: "01", ProblemCode: "ABC"}, job)
}

func TestRStateRedeployErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		err    error
	}{
		{name: "malformed form", status: http.StatusBadRequest, body: "BadRequest!", err: ErrInvalidParameters},
		{name: "job already queued", status: http.StatusBadRequest, body: "job for 01/ABC is already queued", err: ErrAnotherJobInQueue},
		{name: "server error", status: http.StatusInternalServerError, err: ErrUnexpectedStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rstate := newTestRState(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := rstate.Redeploy(context.Background(), Target{TeamID: "01", ProblemCode: "ABC"})
			require.ErrorIs(t, err, tt.err)

			if tt.body != "" && tt.err == ErrAnotherJobInQueue {
				assert.Contains(t, err.Error(), tt.body)
			}
		})
	}
}

func TestRStateStatus(t *testing.T) {
	t.Parallel()

	rstate := newTestRState(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)

		switch r.URL.Path {
		case "/backend/01/ABC":
			_, _ = io.WriteString(w, `{"available":true,"created_time":null,"completed_time":null}`)
		case "/backend/01/DEF":
			_, _ = io.WriteString(w, `{"available":false,"created_time":"2023-12-01T10:00:00Z","completed_time":null}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	statuses, err := rstate.Status(context.Background(), "01")
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	assert.Equal(t, Status{TeamID: "01", ProblemCode: "ABC"}, statuses[0])

	assert.Equal(t, "DEF", statuses[1].ProblemCode)
	assert.True(t, statuses[1].Redeploying)
	require.NotNil(t, statuses[1].LastStartedAt)
	assert.True(t, statuses[1].LastStartedAt.Equal(time.Date(2023, 12, 1, 10, 0, 0, 0, time.UTC)))
	assert.Nil(t, statuses[1].LastCompletedAt)
}

func TestFake(t *testing.T) {
	t.Parallel()

	now := time.Date(2023, 12, 1, 10, 0, 0, 0, time.UTC)
	fake := &Fake{Now: func() time.Time { return now }}

	job, err := fake.Redeploy(context.Background(), Target{TeamID: "01", ProblemCode: "ABC"})
	require.NoError(t, err)
	assert.Equal(t, FakeJobID, job.ID)

	statuses, err := fake.Status(context.Background(), "01")
	require.NoError(t, err)
	require.Len(t, statuses, 3)
	assert.True(t, statuses[1].Redeploying)
	assert.Equal(t, now, *statuses[2].LastCompletedAt)
}
