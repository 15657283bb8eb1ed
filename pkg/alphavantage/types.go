package alphavantage

import "encoding/json"

const (
	metadataKey   = "Meta Data"
	timeSeriesKey = "Time Series (Daily)"
	errorKey      = "Error Message"
	noteKey       = "Note"
	infoKey       = "Information"
)

// DailySeriesResponse is the TIME_SERIES_DAILY response envelope.
// Alpha Vantage answers HTTP 200 for unknown symbols and throttling, so the
// body has to be inspected: decoding is delayed until the shape is known.
type DailySeriesResponse struct {
	MetaData     map[string]string          `json:"Meta Data"`           // "2. Symbol", "3. Last Refreshed", "5. Time Zone", ...
	TimeSeries   map[string]DailyBarMessage `json:"Time Series (Daily)"` // keyed by yyyy-mm-dd
	ErrorMessage string                     `json:"Error Message"`       // e.g. "Invalid API call. Please retry or visit the documentation..."
	Note         string                     `json:"Note"`                // rate limit notice
	Information  string                     `json:"Information"`         // premium endpoint / daily limit notice
}

// DailyBarMessage is one entry of "Time Series (Daily)". Values arrive as strings.
type DailyBarMessage struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// decodeEnvelope reports which top-level keys are present.
func decodeEnvelope(body []byte) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
