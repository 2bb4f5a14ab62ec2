package redeploy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ictsc/ictsc-discord-bot/botjson"
	"github.com/rs/zerolog"
)

const rstateUserAgent = "ICTSC Discord Bot"

// rstateBadRequest is the body RState answers with when the form is malformed.
// Any other 400 body explains why the job was refused.
const rstateBadRequest = "BadRequest!"

type RStateOptions struct {
	BaseURL  string
	Username string
	Password string

	// Problems are the codes Status reports on, in order.
	Problems []string
}

// RState talks to the RState redeploy backend.
type RState struct {
	logger  zerolog.Logger
	client  *http.Client
	options RStateOptions
}

func NewRState(logger zerolog.Logger, client *http.Client, options RStateOptions) *RState {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	options.BaseURL = strings.TrimSuffix(options.BaseURL, "/")

	return &RState{
		logger:  logger,
		client:  client,
		options: options,
	}
}

type rstatePostJobResponse struct {
	ID        string `json:"id"`
	TeamID    string `json:"team_id"`
	ProblemID string `json:"prob_id"`
}

type rstateStatusResponse struct {
	Available     bool       `json:"available"`
	CreatedTime   *time.Time `json:"created_time"`
	CompletedTime *time.Time `json:"completed_time"`
}

func (r *RState) do(req *http.Request) ([]byte, int, error) {
	req.Header.Set("User-Agent", rstateUserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to do request: %w", err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read body: %w", err)
	}

	return body, resp.StatusCode, nil
}

func (r *RState) Redeploy(ctx context.Context, target Target) (Job, error) {
	form := url.Values{}
	form.Set("team_id", target.TeamID)
	form.Set("prob_id", target.ProblemCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.options.BaseURL+"/admin/postJob", strings.NewReader(form.Encode()))
	if err != nil {
		return Job{}, fmt.Errorf("failed to create new request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(r.options.Username, r.options.Password)

	r.logger.Info().Str("team_id", target.TeamID).Str("problem_code", target.ProblemCode).Msg("Requesting redeploy")

	body, status, err := r.do(req)
	if err != nil {
		return Job{}, err
	}

	switch status {
	case http.StatusOK:
		var response rstatePostJobResponse

		err = botjson.Unmarshal(body, &response)
		if err != nil {
			return Job{}, fmt.Errorf("failed to unmarshal job: %w", err)
		}

		return Job{
			ID:          response.ID,
			TeamID:      response.TeamID,
			ProblemCode: response.ProblemID,
		}, nil
	case http.StatusBadRequest:
		if string(body) == rstateBadRequest {
			return Job{}, ErrInvalidParameters
		}

		return Job{}, fmt.Errorf("%w: %s", ErrAnotherJobInQueue, body)
	default:
		return Job{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, status)
	}
}

func (r *RState) Status(ctx context.Context, teamID string) ([]Status, error) {
	statuses := make([]Status, 0, len(r.options.Problems))

	for _, code := range r.options.Problems {
		endpoint := r.options.BaseURL + "/backend/" + url.PathEscape(teamID) + "/" + url.PathEscape(code)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create new request: %w", err)
		}

		body, status, err := r.do(req)
		if err != nil {
			return nil, err
		}

		if status != http.StatusOK {
			return nil, fmt.Errorf("%w: %d for problem %s", ErrUnexpectedStatus, status, code)
		}

		var response rstateStatusResponse

		err = botjson.Unmarshal(body, &response)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal status of %s: %w", code, err)
		}

		statuses = append(statuses, Status{
			TeamID:          teamID,
			ProblemCode:     code,
			Redeploying:     !response.Available,
			LastStartedAt:   response.CreatedTime,
			LastCompletedAt: response.CompletedTime,
		})
	}

	return statuses, nil
}
