package stream

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// testClient is a minimal request/reply client for the /ws endpoint.
type testClient struct {
	url    string
	mu     sync.Mutex
	conn   *websocket.Conn
	logger *zap.Logger
}

func newTestClient(url string, logger *zap.Logger) *testClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &testClient{url: url, logger: logger}
}

// Connect dials the server. It does not send anything.
func (c *testClient) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.logger.Error("failed to connect to websocket", zap.String("url", c.url), zap.Error(err))
		return err
	}
	c.conn = conn
	c.logger.Debug("websocket connected", zap.String("url", c.url))
	return nil
}

// Do sends req and waits for its reply.
func (c *testClient) Do(req RequestMessage) (*ReplyMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil, fmt.Errorf("websocket not connected")
	}

	if err := c.conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("websocket write failed: %w", err)
	}
	var reply ReplyMessage
	if err := c.conn.ReadJSON(&reply); err != nil {
		return nil, fmt.Errorf("websocket read failed: %w", err)
	}
	return &reply, nil
}

// Price requests the most recent days prices for symbol.
func (c *testClient) Price(symbol string, days int) (*ReplyMessage, error) {
	return c.Do(RequestMessage{Op: OpPrice, Symbol: symbol, Days: &days})
}

func (c *testClient) Close() error {
	if c.conn == nil {
		return nil
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}
