package realtime

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"odatanode/internal/node"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSBridge subscribes to run progress subjects and pushes messages into the Hub.
type NATSBridge struct {
	conn   *nats.Conn
	hub    *Hub
	logger zerolog.Logger
	sub    *nats.Subscription
}

func NewNATSBridge(conn *nats.Conn, hub *Hub, logger zerolog.Logger) *NATSBridge {
	return &NATSBridge{conn: conn, hub: hub, logger: logger}
}

// Subscribe listens for progress messages of every node run
func (b *NATSBridge) Subscribe() error {
	subject := node.ProgressWildcard
	sub, err := b.conn.Subscribe(subject, b.handle)
	if err != nil {
		return fmt.Errorf("nats subscribe %q: %w", subject, err)
	}
	b.sub = sub

	b.logger.Info().Str("subject", subject).Msg("NATS bridge subscribed")
	return nil
}

func (b *NATSBridge) handle(msg *nats.Msg) {
	data, nodeID, err := envelope(msg.Subject, msg.Data)
	if err != nil {
		b.logger.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping progress message")
		return
	}
	b.hub.Broadcast(nodeID, data)
}

// Close stops the subscription, the connection itself is owned by the caller.
func (b *NATSBridge) Close() {
	if b.sub == nil {
		return
	}
	if err := b.sub.Unsubscribe(); err != nil {
		b.logger.Warn().Err(err).Msg("nats unsubscribe")
	}
}

// envelope wraps a raw progress payload in the message sent to clients
func envelope(subject string, payload []byte) ([]byte, uint, error) {
	nodeID, runID, err := parseSubject(subject)
	if err != nil {
		return nil, 0, err
	}
	data, err := json.Marshal(outgoingMsg{
		Type:    "node.progress",
		NodeID:  nodeID,
		RunID:   runID,
		Payload: json.RawMessage(payload),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("marshal envelope: %w", err)
	}
	return data, nodeID, nil
}

// parseSubject extracts nodeID and runID from "node.<nodeID>.run.<runID>.progress"
func parseSubject(subject string) (uint, string, error) {
	parts := strings.Split(subject, ".")
	if len(parts) != 5 || parts[0] != "node" || parts[2] != "run" || parts[4] != "progress" {
		return 0, "", fmt.Errorf("unexpected subject %q", subject)
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid node id %q: %w", parts[1], err)
	}
	return uint(id), parts[3], nil
}
