package ports

import (
	"context"
	"encoding/json"
)

// SubmitResult is the gateway's answer to an accepted submission.
type SubmitResult struct {
	ResourceURL      string // Locator of the created request
	GatewayMessageID string // Trailing path segment of ResourceURL
}

// DeliveryInfo is the gateway's delivery descriptor for a submitted message.
type DeliveryInfo struct {
	DeliveryStatus string          // Provider enumeration, e.g. DeliveredToTerminal
	Details        json.RawMessage // Provider payload, passed through untouched
}

// Gateway abstracts the external SMS gateway.
type Gateway interface {
	// SubmitMessage sends body to phoneNumber and returns the gateway-assigned id.
	SubmitMessage(ctx context.Context, phoneNumber, body string) (SubmitResult, error)

	// FetchDeliveryStatus queries the delivery state of a previously submitted message.
	FetchDeliveryStatus(ctx context.Context, gatewayMessageID string) (DeliveryInfo, error)
}
