package orange

import "encoding/json"

type tokenResponse struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type textMessage struct {
	Message string `json:"message"`
}

type outboundRequest struct {
	Address                string      `json:"address"`
	SenderAddress          string      `json:"senderAddress"`
	OutboundSMSTextMessage textMessage `json:"outboundSMSTextMessage"`
	ResourceURL            string      `json:"resourceURL,omitempty"`
}

// submitEnvelope is both the body posted to /requests and the shape of its response.
type submitEnvelope struct {
	OutboundSMSMessageRequest *outboundRequest `json:"outboundSMSMessageRequest"`
}

type deliveryInfoResponse struct {
	DeliveryInfos json.RawMessage `json:"deliveryInfos"`
}

type deliveryInfo struct {
	DeliveryStatus string `json:"deliveryStatus"`
}
