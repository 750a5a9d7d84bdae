// Package openai connects the bridge to the OpenAI realtime endpoint and
// performs the one-time session setup for each call.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/telvoice/bridge/internal/config"
)

const (
	subprotocol = "realtime"
	betaHeader  = "OpenAI-Beta"
	betaVersion = "realtime=v1"

	// Both legs of the bridge carry the same telephony codec, so the
	// backend is configured symmetrically and no transcoding happens.
	audioFormat = "g711_ulaw"

	handshakeTimeout = 10 * time.Second
)

// Connector dials the realtime endpoint for one call at a time. It is safe
// for concurrent use; every call gets its own connection.
type Connector struct {
	cfg    *config.OpenAIConfig
	logger *zap.Logger
}

func NewConnector(cfg *config.OpenAIConfig, logger *zap.Logger) *Connector {
	return &Connector{cfg: cfg, logger: logger}
}

// DialCall opens the backend connection for one call, negotiating the
// realtime subprotocol, then sends the session.update and response.create
// setup messages in order. There is no retry: any failure here is terminal
// for the call.
func (c *Connector) DialCall(ctx context.Context, prompt string) (*websocket.Conn, error) {
	endpoint, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing realtime base URL: %w", err)
	}
	q := endpoint.Query()
	q.Set("model", c.cfg.Model)
	endpoint.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	header.Set(betaHeader, betaVersion)

	dialer := websocket.Dialer{
		Subprotocols:     []string{subprotocol},
		HandshakeTimeout: handshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, endpoint.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dialing realtime endpoint (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dialing realtime endpoint: %w", err)
	}

	if err := c.setupSession(conn, prompt); err != nil {
		conn.Close()
		return nil, err
	}
	c.logger.Info("backend session configured",
		zap.String("model", c.cfg.Model),
		zap.String("voice", c.cfg.Voice))
	return conn, nil
}

func (c *Connector) setupSession(conn *websocket.Conn, prompt string) error {
	update := SessionUpdate{
		Type: TypeSessionUpdate,
		Session: Session{
			TurnDetection:     &TurnDetection{Type: "server_vad"},
			InputAudioFormat:  audioFormat,
			OutputAudioFormat: audioFormat,
			Voice:             c.cfg.Voice,
			Instructions:      c.cfg.Instructions,
			Modalities:        []string{"text", "audio"},
			Temperature:       c.cfg.Temperature,
		},
	}
	data, err := sonic.Marshal(&update)
	if err != nil {
		return fmt.Errorf("marshaling session update: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("sending session update: %w", err)
	}

	create := ResponseCreate{
		Type: TypeResponseCreate,
		Response: Response{
			Modalities:   []string{"text", "audio"},
			Instructions: initialInstructions(prompt),
		},
	}
	data, err = sonic.Marshal(&create)
	if err != nil {
		return fmt.Errorf("marshaling response create: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("sending response create: %w", err)
	}
	return nil
}

// initialInstructions turns the caller-supplied prompt into the instruction
// for the agent's opening reply.
func initialInstructions(prompt string) string {
	if prompt == "" {
		return "Greet the caller and ask how you can help."
	}
	return fmt.Sprintf("Greet the caller based on this message: %q", prompt)
}
