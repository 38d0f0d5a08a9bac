// Package orange implements ports.Gateway against the Orange SMS API.
package orange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sms-dispatch/internal/domain"
	"sms-dispatch/internal/metrics"
	"sms-dispatch/internal/phone"
	"sms-dispatch/internal/ports"
)

const (
	defaultTokenLifetime = time.Hour
	expirySkew           = 30 * time.Second
	maxErrorBody         = 64 << 10
)

// Config holds the gateway endpoints and client credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	SMSURL       string
	SenderName   string
	Timeout      time.Duration
}

// Client talks to the Orange OAuth2 and SMS messaging endpoints.
// The bearer token lives in tokens and is shared by every caller of the Client.
type Client struct {
	cfg        Config
	httpClient *http.Client
	tokens     ports.TokenCache
	log        *slog.Logger
	now        func() time.Time
}

// New creates a Client. A nil httpClient gets one with cfg.Timeout (10s when unset).
func New(cfg Config, tokens ports.TokenCache, httpClient *http.Client, log *slog.Logger) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		tokens:     tokens,
		log:        log.With("component", "orange_gateway"),
		now:        time.Now,
	}
}

// AcquireToken performs the client-credentials exchange and caches the bearer token.
func (c *Client) AcquireToken(ctx context.Context) (string, error) {
	if c.cfg.ClientID == "" || c.cfg.ClientSecret == "" {
		return "", domain.NewAuthConfigError("gateway client id and secret are not configured")
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", domain.NewGatewayError(domain.KindGatewayAuth, "build token request", 0, "", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	start := c.now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveGatewayRequest("token", start)
	if err != nil {
		c.log.ErrorContext(ctx, "token request failed", "err", err)
		return "", domain.NewGatewayError(domain.KindGatewayAuth, "token request failed", 0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return "", domain.NewGatewayError(domain.KindGatewayAuth, "read token response", resp.StatusCode, "", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.log.ErrorContext(ctx, "token request rejected", "status", resp.StatusCode)
		return "", domain.NewGatewayError(domain.KindGatewayAuth, "token request rejected", resp.StatusCode, string(body), nil)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", domain.NewGatewayError(domain.KindGatewayAuth, "decode token response", resp.StatusCode, string(body), err)
	}
	if tr.AccessToken == "" {
		return "", domain.NewGatewayError(domain.KindGatewayAuth, "token response has no access_token", resp.StatusCode, string(body), nil)
	}

	lifetime := defaultTokenLifetime
	if tr.ExpiresIn > 0 {
		lifetime = time.Duration(tr.ExpiresIn) * time.Second
	}
	if lifetime > 2*expirySkew {
		lifetime -= expirySkew
	}

	if err := c.tokens.Set(ctx, tr.AccessToken, c.now().Add(lifetime)); err != nil {
		// The token is still usable for this call.
		c.log.WarnContext(ctx, "cache token failed", "err", err)
	}

	c.log.InfoContext(ctx, "gateway token acquired", "expires_in", tr.ExpiresIn)
	return tr.AccessToken, nil
}

// bearer returns the cached token, acquiring a new one when absent or expired.
func (c *Client) bearer(ctx context.Context) (string, error) {
	token, ok, err := c.tokens.Get(ctx)
	if err != nil {
		c.log.WarnContext(ctx, "read cached token failed", "err", err)
	}
	if ok {
		return token, nil
	}
	return c.AcquireToken(ctx)
}

// SubmitMessage sends body to phoneNumber. phoneNumber should already be in
// international form; bare local numbers get the country code prepended.
func (c *Client) SubmitMessage(ctx context.Context, phoneNumber, body string) (ports.SubmitResult, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return ports.SubmitResult{}, err
	}

	payload, err := json.Marshal(submitEnvelope{
		OutboundSMSMessageRequest: &outboundRequest{
			Address:                "tel:" + phone.International(phoneNumber),
			SenderAddress:          "tel:" + c.cfg.SenderName,
			OutboundSMSTextMessage: textMessage{Message: body},
		},
	})
	if err != nil {
		return ports.SubmitResult{}, domain.NewGatewayError(domain.KindGatewaySubmit, "marshal submit request", 0, "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.SMSURL+"/requests", bytes.NewReader(payload))
	if err != nil {
		return ports.SubmitResult{}, domain.NewGatewayError(domain.KindGatewaySubmit, "build submit request", 0, "", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	status, respBody, err := c.do(ctx, "submit", req)
	if err != nil {
		return ports.SubmitResult{}, domain.NewGatewayError(domain.KindGatewaySubmit, "submit request failed", status, "", err)
	}

	if status != http.StatusOK && status != http.StatusCreated {
		c.log.ErrorContext(ctx, "submit rejected", "status", status)
		return ports.SubmitResult{}, domain.NewGatewayError(domain.KindGatewaySubmit, "submit rejected", status, string(respBody), nil)
	}

	var env submitEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return ports.SubmitResult{}, domain.NewGatewayError(domain.KindGatewaySubmit, "decode submit response", status, string(respBody), err)
	}
	if env.OutboundSMSMessageRequest == nil || env.OutboundSMSMessageRequest.ResourceURL == "" {
		return ports.SubmitResult{}, domain.NewGatewayError(domain.KindGatewaySubmit, "submit response has no resourceURL", status, string(respBody), nil)
	}

	resourceURL := env.OutboundSMSMessageRequest.ResourceURL
	id := lastSegment(resourceURL)
	if id == "" {
		return ports.SubmitResult{}, domain.NewGatewayError(domain.KindGatewaySubmit, "resourceURL has no message id", status, string(respBody), nil)
	}

	c.log.InfoContext(ctx, "message submitted", "gateway_message_id", id)
	return ports.SubmitResult{ResourceURL: resourceURL, GatewayMessageID: id}, nil
}

// FetchDeliveryStatus reads the delivery descriptor of a submitted message.
func (c *Client) FetchDeliveryStatus(ctx context.Context, gatewayMessageID string) (ports.DeliveryInfo, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return ports.DeliveryInfo{}, err
	}

	endpoint := fmt.Sprintf("%s/requests/%s/deliveryInfos", c.cfg.SMSURL, url.PathEscape(gatewayMessageID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ports.DeliveryInfo{}, domain.NewGatewayError(domain.KindGatewayStatus, "build status request", 0, "", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	status, respBody, err := c.do(ctx, "delivery_status", req)
	if err != nil {
		return ports.DeliveryInfo{}, domain.NewGatewayError(domain.KindGatewayStatus, "status request failed", status, "", err)
	}

	if status != http.StatusOK {
		c.log.ErrorContext(ctx, "status request rejected", "status", status, "gateway_message_id", gatewayMessageID)
		return ports.DeliveryInfo{}, domain.NewGatewayError(domain.KindGatewayStatus, "status request rejected", status, string(respBody), nil)
	}

	var dr deliveryInfoResponse
	if err := json.Unmarshal(respBody, &dr); err != nil {
		return ports.DeliveryInfo{}, domain.NewGatewayError(domain.KindGatewayStatus, "decode status response", status, string(respBody), err)
	}
	if len(dr.DeliveryInfos) == 0 || string(dr.DeliveryInfos) == "null" {
		return ports.DeliveryInfo{}, domain.NewGatewayError(domain.KindGatewayStatus, "status response has no deliveryInfos", status, string(respBody), nil)
	}

	deliveryStatus, err := parseDeliveryStatus(dr.DeliveryInfos)
	if err != nil {
		return ports.DeliveryInfo{}, domain.NewGatewayError(domain.KindGatewayStatus, "decode deliveryInfos", status, string(respBody), err)
	}

	return ports.DeliveryInfo{DeliveryStatus: deliveryStatus, Details: dr.DeliveryInfos}, nil
}

// do executes req and returns the status code and a bounded copy of the body.
// A 401 drops the cached token so the next call re-authenticates.
func (c *Client) do(ctx context.Context, operation string, req *http.Request) (int, []byte, error) {
	start := c.now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveGatewayRequest(operation, start)
	if err != nil {
		c.log.ErrorContext(ctx, "gateway request failed", "operation", operation, "err", err)
		return 0, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if err := c.tokens.Invalidate(ctx); err != nil {
			c.log.WarnContext(ctx, "invalidate token failed", "err", err)
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// parseDeliveryStatus accepts either a single delivery descriptor or a list of them.
func parseDeliveryStatus(raw json.RawMessage) (string, error) {
	var single deliveryInfo
	if err := json.Unmarshal(raw, &single); err == nil {
		return single.DeliveryStatus, nil
	}

	var list []deliveryInfo
	if err := json.Unmarshal(raw, &list); err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", nil
	}
	return list[0].DeliveryStatus, nil
}

func lastSegment(resourceURL string) string {
	trimmed := strings.TrimRight(resourceURL, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
