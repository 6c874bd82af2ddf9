package claims

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/medinotify/portal/internal/app/system/normalize"
)

const defaultCacheTTL = 5 * time.Minute

// HTTPSource resolves roles from the identity provider's claims endpoint
// (GET {baseURL}/accounts/{id}/claims). Lookups go through a circuit breaker
// so a struggling provider trips fast instead of stalling every provisioning
// event, and resolved roles are cached in Redis to absorb redeliveries.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker
	cache   *redis.Client
	ttl     time.Duration
	logger  *zap.Logger
}

// NewHTTPSource builds an HTTPSource. cache may be nil, in which case every
// lookup goes to the provider.
func NewHTTPSource(baseURL string, cache *redis.Client, logger *zap.Logger) *HTTPSource {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "idp-claims",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &HTTPSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		cb:      cb,
		cache:   cache,
		ttl:     defaultCacheTTL,
		logger:  logger,
	}
}

type claimsResponse struct {
	Role string `json:"role"`
}

// Resolve looks up the role claim, consulting the cache first. A cached
// entry may be the empty string (account with no role claim); that is a
// valid cache hit, not a miss.
func (s *HTTPSource) Resolve(ctx context.Context, accountID string) (string, error) {
	if s.cache != nil {
		role, err := s.cache.Get(ctx, cacheKey(accountID)).Result()
		if err == nil {
			return role, nil
		}
		if err != redis.Nil {
			s.logger.Warn("claims cache read failed", zap.Error(err))
		}
	}

	result, err := s.cb.Execute(func() (interface{}, error) {
		return s.fetch(ctx, accountID)
	})
	if err != nil {
		return "", err
	}
	role := result.(string)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey(accountID), role, s.ttl).Err(); err != nil {
			s.logger.Warn("claims cache write failed", zap.Error(err))
		}
	}
	return role, nil
}

func (s *HTTPSource) fetch(ctx context.Context, accountID string) (string, error) {
	url := fmt.Sprintf("%s/accounts/%s/claims", s.baseURL, accountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	// An account the provider does not know about has no role claim.
	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("claims endpoint returned %d", resp.StatusCode)
	}

	var cr claimsResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	return normalize.Role(cr.Role), nil
}

func cacheKey(accountID string) string {
	return "medinotify:claims:" + accountID
}
