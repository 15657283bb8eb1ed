package stream

import "stockcache/internal/stock/httpapi"

const (
	OpPrice = "price"
	OpPing  = "ping"
	OpPong  = "pong"
	OpError = "error"
)

// RequestMessage is a client frame, e.g. {"op":"price","symbol":"IBM","days":5}.
type RequestMessage struct {
	Op        string `json:"op"`
	Symbol    string `json:"symbol,omitempty"`
	Days      *int   `json:"days,omitempty"` // nil uses the server default
	RequestID string `json:"requestId,omitempty"`
}

// ReplyMessage is a server frame. Exactly one of Document and Error is set
// for price replies.
type ReplyMessage struct {
	Op        string                 `json:"op"`
	RequestID string                 `json:"request-id,omitempty"`
	Status    int                    `json:"status,omitempty"` // HTTP status the same request would get
	Document  *httpapi.PriceDocument `json:"document,omitempty"`
	Error     string                 `json:"error,omitempty"`
}
