package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/shopspring/decimal"

	pnlErrors "github.com/plcore/PnLReporter/internal/pnl/errors"
)

const DefaultBaseURL = "https://api.nbp.pl/api"

// maxLookback covers weekends and holidays: NBP publishes no table on
// non-trading days, so the effective rate is the last published one.
const maxLookback = 7

// NBPClient resolves exchange rates against PLN from the NBP Web API
// (table A mid rates). Lookups are keyed by currency and effective date.
type NBPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewNBPClient(baseURL string) *NBPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &NBPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *NBPClient) GetRate(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error) {
	if strings.EqualFold(from, to) {
		return decimal.NewFromInt(1), nil
	}
	if !strings.EqualFold(to, "PLN") {
		return decimal.Zero, pnlErrors.NewUpstreamUnavailableError(
			fmt.Sprintf("NBP quotes rates against PLN only, cannot resolve %s/%s", from, to), nil)
	}

	day := asOf.UTC()
	var lastErr error
	for i := 0; i < maxLookback; i++ {
		rate, found, err := c.fetchRate(ctx, from, day)
		if err != nil {
			lastErr = err
			break
		}
		if found {
			return rate, nil
		}
		day = day.AddDate(0, 0, -1)
	}
	return decimal.Zero, pnlErrors.NewUpstreamUnavailableError(
		fmt.Sprintf("no %s/PLN rate published around %s", from, asOf.Format("2006-01-02")), lastErr)
}

// fetchRate asks for one specific publication date. A 404 means no table was
// published that day and is not an error; the caller walks back a day.
func (c *NBPClient) fetchRate(ctx context.Context, currency string, day time.Time) (decimal.Decimal, bool, error) {
	url := fmt.Sprintf("%s/exchangerates/rates/a/%s/%s/?format=json",
		c.baseURL, strings.ToLower(currency), day.Format("2006-01-02"))

	var payload struct {
		Rates []struct {
			Mid float64 `json:"mid"`
		} `json:"rates"`
	}
	found := false
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusNotFound:
				return nil
			case resp.StatusCode != http.StatusOK:
				return fmt.Errorf("NBP API returned %s", resp.Status)
			}
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				return retry.Unrecoverable(err)
			}
			found = len(payload.Rates) > 0
			return nil
		},
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return decimal.Zero, false, err
	}
	if !found {
		return decimal.Zero, false, nil
	}
	return decimal.NewFromFloat(payload.Rates[0].Mid), true, nil
}
