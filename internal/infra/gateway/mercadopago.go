package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sosiego-api/internal/domain/reservation"
	"sosiego-api/internal/pkg/config"
	"sosiego-api/internal/pkg/errs"
	"sosiego-api/internal/usecase/commands"

	"github.com/google/uuid"
)

// MercadoPagoClient speaks the Checkout Pro / Payments REST API. Amounts
// cross the wire as decimal units (pesos), not cents.
type MercadoPagoClient struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	frontendURL string
	backendURL  string
	ttl         time.Duration
}

func NewMercadoPagoClient(cfg config.MercadoPagoConfig) *MercadoPagoClient {
	return &MercadoPagoClient{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		backendURL:  strings.TrimRight(cfg.BackendURL, "/"),
		ttl:         cfg.PreferenceTTL,
	}
}

type preferenceItem struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	CurrencyID  string  `json:"currency_id"`
}

type preferencePayer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
	Phone *struct {
		Number string `json:"number"`
	} `json:"phone,omitempty"`
}

type preferenceBackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type preferenceRequest struct {
	Items             []preferenceItem   `json:"items"`
	Payer             preferencePayer    `json:"payer"`
	BackURLs          preferenceBackURLs `json:"back_urls"`
	AutoReturn        string             `json:"auto_return"`
	NotificationURL   string             `json:"notification_url"`
	ExternalReference string             `json:"external_reference"`
	Expires           bool               `json:"expires"`
	ExpirationFrom    string             `json:"expiration_date_from,omitempty"`
	ExpirationTo      string             `json:"expiration_date_to,omitempty"`
}

type preferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

func (c *MercadoPagoClient) CreateCheckout(ctx context.Context, req commands.CheckoutRequest) (*commands.CheckoutSession, error) {
	now := time.Now()
	body := preferenceRequest{
		Items: []preferenceItem{{
			Title:       req.Title,
			Description: req.Description,
			Quantity:    1,
			UnitPrice:   centsToUnits(req.AmountCents),
			CurrencyID:  req.CurrencyID,
		}},
		Payer: preferencePayer{
			Name:  req.PayerName,
			Email: req.PayerEmail,
		},
		BackURLs: preferenceBackURLs{
			Success: c.frontendURL + req.SuccessPath,
			Failure: c.frontendURL + req.FailurePath,
			Pending: c.frontendURL + req.PendingPath,
		},
		AutoReturn:        "approved",
		NotificationURL:   c.backendURL + "/api/payments/webhook",
		ExternalReference: req.ExternalReference,
		Expires:           true,
		ExpirationFrom:    now.Format(time.RFC3339),
		ExpirationTo:      now.Add(c.ttl).Format(time.RFC3339),
	}
	if req.PayerPhone != "" {
		body.Payer.Phone = &struct {
			Number string `json:"number"`
		}{Number: req.PayerPhone}
	}

	var resp preferenceResponse
	if err := c.post(ctx, "/checkout/preferences", "", body, &resp); err != nil {
		return nil, err
	}
	return &commands.CheckoutSession{
		PreferenceID:     resp.ID,
		InitPoint:        resp.InitPoint,
		SandboxInitPoint: resp.SandboxInitPoint,
	}, nil
}

type paymentResponse struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	StatusDetail      string      `json:"status_detail"`
	TransactionAmount float64     `json:"transaction_amount"`
	CurrencyID        string      `json:"currency_id"`
	PaymentMethodID   string      `json:"payment_method_id"`
	PaymentTypeID     string      `json:"payment_type_id"`
	ExternalReference string      `json:"external_reference"`
}

func (c *MercadoPagoClient) GetPayment(ctx context.Context, externalPaymentID string) (*commands.GatewayPayment, error) {
	var resp paymentResponse
	if err := c.get(ctx, "/v1/payments/"+externalPaymentID, &resp); err != nil {
		return nil, err
	}
	return toGatewayPayment(resp), nil
}

type directChargeBody struct {
	Token             string  `json:"token"`
	TransactionAmount float64 `json:"transaction_amount"`
	Description       string  `json:"description"`
	Installments      int     `json:"installments"`
	Payer             struct {
		Email string `json:"email"`
	} `json:"payer"`
	ExternalReference string `json:"external_reference"`
}

func (c *MercadoPagoClient) ChargeDirect(ctx context.Context, req commands.DirectChargeRequest) (*commands.GatewayPayment, error) {
	body := directChargeBody{
		Token:             req.CardToken,
		TransactionAmount: centsToUnits(req.AmountCents),
		Description:       req.Description,
		Installments:      req.Installments,
		ExternalReference: req.ExternalReference,
	}
	if body.Installments == 0 {
		body.Installments = 1
	}
	body.Payer.Email = req.PayerEmail

	// Card charges must not double on a retried request.
	idempotencyKey := uuid.NewString()

	var resp paymentResponse
	if err := c.post(ctx, "/v1/payments", idempotencyKey, body, &resp); err != nil {
		return nil, err
	}
	return toGatewayPayment(resp), nil
}

func toGatewayPayment(resp paymentResponse) *commands.GatewayPayment {
	return &commands.GatewayPayment{
		ID:                resp.ID.String(),
		Status:            reservation.GatewayStatus(resp.Status),
		StatusDetail:      resp.StatusDetail,
		AmountCents:       unitsToCents(resp.TransactionAmount),
		CurrencyID:        resp.CurrencyID,
		PaymentMethod:     resp.PaymentMethodID,
		PaymentType:       resp.PaymentTypeID,
		ExternalReference: resp.ExternalReference,
	}
}

func (c *MercadoPagoClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errs.Wrap(err, "failed to build gateway request")
	}
	return c.do(req, "", out)
}

func (c *MercadoPagoClient) post(ctx context.Context, path, idempotencyKey string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errs.Wrap(err, "failed to encode gateway request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errs.Wrap(err, "failed to build gateway request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, idempotencyKey, out)
}

func (c *MercadoPagoClient) do(req *http.Request, idempotencyKey string, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if idempotencyKey != "" {
		req.Header.Set("X-Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.Wrap(err, "gateway request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errs.Wrap(err, "failed to read gateway response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errs.New(fmt.Sprintf("gateway returned %d: %s", resp.StatusCode, truncate(raw, 512)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errs.Wrap(err, "failed to decode gateway response")
	}
	return nil
}

func centsToUnits(cents int64) float64 {
	return float64(cents) / 100
}

func unitsToCents(units float64) int64 {
	return int64(units*100 + 0.5)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
