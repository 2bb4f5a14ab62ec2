package contestant

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ictsc/ictsc-discord-bot/botjson"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const regaliaUserAgent = "ICTSC Discord Bot"

// Regalia reads contestants from the Regalia score server API.
type Regalia struct {
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewRegalia authenticates every request with token as a bearer token.
// ctx provides the base http client to oauth2, if any.
func NewRegalia(ctx context.Context, logger zerolog.Logger, baseURL, token string) *Regalia {
	source := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	})

	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &Regalia{
		logger:  logger,
		client:  oauth2.NewClient(ctx, source),
		baseURL: baseURL,
	}
}

type listContestantsResponse struct {
	Contestants []Contestant `json:"contestants"`
}

func (r *Regalia) Contestants(ctx context.Context) ([]Contestant, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"ContestantService/ListContestants", bytes.NewBufferString("{}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", regaliaUserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to do request: %w", err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var response listContestantsResponse

	err = botjson.Unmarshal(body, &response)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal contestants: %w", err)
	}

	if len(response.Contestants) == 0 {
		return nil, ErrNotFound
	}

	r.logger.Debug().Int("count", len(response.Contestants)).Msg("Listed contestants")

	return response.Contestants, nil
}

func (r *Regalia) Contestant(ctx context.Context, discordID string) (Contestant, error) {
	contestants, err := r.Contestants(ctx)
	if err != nil {
		return Contestant{}, err
	}

	return find(contestants, discordID)
}
