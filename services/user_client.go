package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/forumhq/posts-service/models"
)

// UserGateway is the narrow capability the aggregate needs from the users
// service. IsUserActive answers authorization preconditions;
// GetUserSummary provides display data for read enrichment and returns
// (nil, nil) when the user is unknown.
type UserGateway interface {
	IsUserActive(ctx context.Context, userID int) (bool, error)
	GetUserSummary(ctx context.Context, userID int) (*models.AuthorSummary, error)
}

// userEnvelope mirrors the users service response shape.
type userEnvelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Data    *models.AuthorSummary `json:"data"`
}

// HTTPUserGateway calls the users service over HTTP. Every lookup is on the
// critical path of a write, so calls run under a per-attempt timeout with a
// small fixed-delay retry budget.
type HTTPUserGateway struct {
	baseURL    string
	client     *http.Client
	attempts   int
	retryDelay time.Duration
	logger     *zap.SugaredLogger
}

// NewHTTPUserGateway builds a gateway client. attempts is clamped to at
// least one; timeout bounds each attempt.
func NewHTTPUserGateway(baseURL string, timeout time.Duration, attempts int, retryDelay time.Duration, logger *zap.SugaredLogger) *HTTPUserGateway {
	if attempts < 1 {
		attempts = 1
	}
	return &HTTPUserGateway{
		baseURL:    baseURL,
		client:     &http.Client{Timeout: timeout},
		attempts:   attempts,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// IsUserActive reports whether the account exists, responded successfully
// and is active. A transport failure or success=false both read as "not
// verified" here.
func (g *HTTPUserGateway) IsUserActive(ctx context.Context, userID int) (bool, error) {
	env, err := g.getUser(ctx, userID)
	if err != nil {
		return false, err
	}
	if !env.Success || env.Data == nil {
		return false, nil
	}
	return env.Data.Active, nil
}

// GetUserSummary fetches display data for enrichment. Unknown users and
// unsuccessful envelopes yield (nil, nil) so readers can degrade to a
// post-only result.
func (g *HTTPUserGateway) GetUserSummary(ctx context.Context, userID int) (*models.AuthorSummary, error) {
	env, err := g.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !env.Success || env.Data == nil {
		return nil, nil
	}
	return env.Data, nil
}

func (g *HTTPUserGateway) getUser(ctx context.Context, userID int) (*userEnvelope, error) {
	url := fmt.Sprintf("%s/users/%d", g.baseURL, userID)

	var lastErr error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(g.retryDelay):
			}
		}
		env, err := g.doRequest(ctx, url)
		if err == nil {
			return env, nil
		}
		lastErr = err
		if g.logger != nil {
			g.logger.Warnf("users service call failed (attempt %d/%d) user=%d err=%v", attempt, g.attempts, userID, err)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("users service unreachable for user %d: %w", userID, lastErr)
}

func (g *HTTPUserGateway) doRequest(ctx context.Context, url string) (*userEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("users service returned status %d", resp.StatusCode)
	}

	var env userEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode users service response: %w", err)
	}
	return &env, nil
}
