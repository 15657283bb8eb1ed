// Package stream serves price requests over a WebSocket connection. Each
// request frame gets one reply frame carrying the same document as GET /price.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"stockcache/internal/stock/httpapi"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	writeWait  = 10 * time.Second
)

type Server struct {
	prices      httpapi.PriceService
	docs        *httpapi.Handler
	defaultDays int
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// NewServer serves prices; docs supplies the request date and timezone
// stamped into each document.
func NewServer(prices httpapi.PriceService, docs *httpapi.Handler, defaultDays int, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		prices:      prices,
		docs:        docs,
		defaultDays: defaultDays,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (s *Server) RegisterRoutes(router gin.IRouter) {
	router.GET("/ws", s.ServeWS)
}

// ServeWS upgrades the connection and answers frames until the client leaves.
func (s *Server) ServeWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	s.logger.Info("websocket connected", zap.String("remote", remote))

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	replies := make(chan ReplyMessage, 16)
	done := make(chan struct{})
	go s.writeLoop(conn, replies, done)

	handle := s.MakeMessageHandler(ctx)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read error", zap.String("remote", remote), zap.Error(err))
			}
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		select {
		case replies <- handle(msg):
		case <-done:
		}
	}

	close(replies)
	<-done
	s.logger.Info("websocket disconnected", zap.String("remote", remote))
}

// writeLoop owns all writes on conn.
func (s *Server) writeLoop(conn *websocket.Conn, replies <-chan ReplyMessage, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case reply, ok := <-replies:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(reply); err != nil {
				s.logger.Warn("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// MakeMessageHandler returns a function that turns one client frame into its reply.
func (s *Server) MakeMessageHandler(ctx context.Context) func(msg []byte) ReplyMessage {
	return func(msg []byte) ReplyMessage {
		var req RequestMessage
		if err := json.Unmarshal(msg, &req); err != nil {
			return ReplyMessage{Op: OpError, Status: http.StatusBadRequest, Error: "malformed message"}
		}

		requestID := req.RequestID
		if requestID == "" {
			requestID = uuid.NewString()
		}

		switch strings.ToLower(req.Op) {
		case OpPing:
			return ReplyMessage{Op: OpPong, RequestID: requestID}
		case OpPrice:
		default:
			return ReplyMessage{Op: OpError, RequestID: requestID, Status: http.StatusBadRequest,
				Error: "unsupported op: " + req.Op}
		}

		days := s.defaultDays
		if req.Days != nil {
			days = *req.Days
		}

		res, err := s.prices.Prices(ctx, req.Symbol, days)
		if err != nil {
			status := httpapi.StatusFor(err)
			if status >= http.StatusInternalServerError {
				s.logger.Error("websocket price request failed", zap.String("request_id", requestID),
					zap.String("symbol", req.Symbol), zap.Error(err))
			}
			return ReplyMessage{Op: OpPrice, RequestID: requestID, Status: status, Error: httpapi.PublicMessage(err, status)}
		}

		doc := httpapi.NewPriceDocument(res, s.docs.DocumentInfo(requestID))
		return ReplyMessage{Op: OpPrice, RequestID: requestID, Status: http.StatusOK, Document: &doc}
	}
}
