package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/finledger/ledger-service/internal/model"
)

// ExternalBalanceSource supplies the externally reported balance for an
// account during the scheduled reconciliation sweep. Deployments plug in
// their own implementation (bank API, custodian feed, exchange API).
type ExternalBalanceSource interface {
	FetchBalance(ctx context.Context, account *model.LogicalAccount) (decimal.Decimal, error)
}

// HTTPBalanceSource fetches balances from a JSON endpoint of the form
// GET {baseURL}/balances/{account_name} -> {"balance": "123.45"}.
// Requests are rate-limited so a sweep over many accounts cannot hammer
// the upstream.
type HTTPBalanceSource struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPBalanceSource builds an HTTPBalanceSource capped at rps requests
// per second.
func NewHTTPBalanceSource(baseURL string, rps float64) *HTTPBalanceSource {
	if rps <= 0 {
		rps = 5
	}
	return &HTTPBalanceSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// FetchBalance retrieves one account's external balance.
func (s *HTTPBalanceSource) FetchBalance(ctx context.Context, account *model.LogicalAccount) (decimal.Decimal, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return decimal.Zero, err
	}

	url := fmt.Sprintf("%s/balances/%s", s.baseURL, account.Name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("external balance fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("external balance source returned %d", resp.StatusCode)
	}

	var body struct {
		Balance decimal.Decimal `json:"balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("malformed external balance response: %w", err)
	}

	return body.Balance, nil
}
