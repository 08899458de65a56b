package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
)

const defaultProductTimeout = 5 * time.Second

// HTTPProductFinder resolves product details against the product
// service's REST API. The caller's bearer credential is forwarded on
// every lookup so the product service sees the original identity.
type HTTPProductFinder struct {
	baseURL string
	client  *http.Client
}

// NewHTTPProductFinder creates a product finder against baseURL
func NewHTTPProductFinder(baseURL string, timeout time.Duration) *HTTPProductFinder {
	if timeout <= 0 {
		timeout = defaultProductTimeout
	}
	return &HTTPProductFinder{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// productResponse is the product service's wire shape. Price is kept as
// json.Number so decimal amounts convert to minor units without a float
// in between.
type productResponse struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Currency string      `json:"currency"`
}

// FindByID fetches a product by ID, forwarding the bearer token
func (f *HTTPProductFinder) FindByID(ctx context.Context, productID models.ID, bearerToken string) (*domain.PricedProduct, error) {
	url := fmt.Sprintf("%s/api/products/%s", f.baseURL, productID.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build product request")
	}
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}

	res, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrProductUnavailable, "product service unreachable: %v", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, errors.Wrapf(domain.ErrInvalidOrderState, "product %s not found", productID)
	case res.StatusCode != http.StatusOK:
		return nil, errors.Wrapf(domain.ErrProductUnavailable, "product service returned %d", res.StatusCode)
	}

	var body productResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, errors.Wrapf(domain.ErrProductUnavailable, "malformed product response: %v", err)
	}

	amount, err := minorUnits(body.Price)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrProductUnavailable, "malformed product price %q: %v", body.Price, err)
	}

	currency := body.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}

	id, err := models.NewID(body.ID)
	if err != nil {
		id = productID
	}

	return &domain.PricedProduct{
		ID:    id,
		Name:  body.Name,
		Price: models.NewMoney(amount, currency),
	}, nil
}

// minorUnits converts a decimal amount like "12.50" into cents using
// string arithmetic only. At most two fractional digits are accepted.
func minorUnits(n json.Number) (int64, error) {
	s := n.String()
	if s == "" {
		return 0, errors.New("empty amount")
	}

	negative := false
	if s[0] == '-' {
		negative = true
		s = s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if len(frac) > 2 {
		return 0, errors.Errorf("more than two fractional digits in %q", n)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}

	var amount int64
	for _, digits := range []string{whole, frac} {
		for _, c := range digits {
			if c < '0' || c > '9' {
				return 0, errors.Errorf("invalid amount %q", n)
			}
			amount = amount*10 + int64(c-'0')
		}
	}
	if negative {
		amount = -amount
	}
	return amount, nil
}
