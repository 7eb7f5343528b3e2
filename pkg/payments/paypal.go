package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mvalenz/bazario-backend/pkg/config"
	"github.com/mvalenz/bazario-backend/pkg/enums"
	"github.com/mvalenz/bazario-backend/pkg/errors"
	"github.com/mvalenz/bazario-backend/pkg/logger"
)

// PayPalProvider creates PayPal checkout orders over the REST API. Like the
// Stripe provider it degrades to a noted no-op when credentials are absent.
type PayPalProvider struct {
	cfg  config.PayPalConfig
	http *http.Client
	logg *logger.Logger
}

func NewPayPalProvider(cfg config.PayPalConfig, httpClient *http.Client, logg *logger.Logger) *PayPalProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &PayPalProvider{cfg: cfg, http: httpClient, logg: logg}
}

func (p *PayPalProvider) Name() enums.PaymentProvider {
	return enums.PaymentProviderPayPal
}

func (p *PayPalProvider) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if !p.cfg.Configured() {
		if p.logg != nil {
			p.logg.Warn(ctx, "paypal credentials missing, skipping charge creation")
		}
		return &ChargeResult{
			Provider: enums.PaymentProviderPayPal,
			Note:     "paypal not configured; payment must be confirmed manually",
		}, nil
	}

	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"reference_id": req.OrderID.String(),
			"amount": map[string]string{
				"currency_code": currency,
				"value":         fmt.Sprintf("%d.%02d", req.AmountCents/100, req.AmountCents%100),
			},
		}},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "encoding paypal order")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/v2/checkout/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "building paypal request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "calling paypal orders api")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New(errors.CodeDependency, fmt.Sprintf("paypal orders api returned %d", resp.StatusCode))
	}

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "decoding paypal response")
	}

	return &ChargeResult{
		Provider:  enums.PaymentProviderPayPal,
		Reference: created.ID,
		Status:    created.Status,
	}, nil
}

func (p *PayPalProvider) accessToken(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(errors.CodeInternal, err, "building paypal token request")
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(p.cfg.ClientID, p.cfg.ClientSecret)

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return "", errors.Wrap(errors.CodeDependency, err, "requesting paypal access token")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.New(errors.CodeDependency, fmt.Sprintf("paypal token endpoint returned %d", resp.StatusCode))
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", errors.Wrap(errors.CodeDependency, err, "decoding paypal token response")
	}
	if token.AccessToken == "" {
		return "", errors.New(errors.CodeDependency, "paypal token response missing access_token")
	}
	return token.AccessToken, nil
}
