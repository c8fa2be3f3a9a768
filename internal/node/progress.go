package node

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// ProgressWildcard matches the progress subjects of every node run
const ProgressWildcard = "node.*.run.*.progress"

// ProgressSubject returns the NATS subject progress of a run is published on
func ProgressSubject(nodeID uint, runID string) string {
	return fmt.Sprintf("node.%d.run.%s.progress", nodeID, runID)
}

// ProgressPublisher sends progress updates via NATS.
// Best-effort: without a connection it only logs, it never fails a run.
type ProgressPublisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

func NewProgressPublisher(conn *nats.Conn, logger zerolog.Logger) *ProgressPublisher {
	if conn == nil {
		logger.Warn().Msg("NATS not connected, progress publishing disabled")
	}
	return &ProgressPublisher{conn: conn, logger: logger}
}

// ReportFunc returns a ProgressFunc that publishes updates of one run
func (p *ProgressPublisher) ReportFunc(nodeID uint, runID string) ProgressFunc {
	if p == nil || p.conn == nil {
		return func(pr Progress) {
			if p != nil {
				p.logger.Debug().Uint("nodeId", pr.NodeID).Str("status", string(pr.Status)).Float64("fraction", pr.Fraction).Msg(pr.Message)
			}
		}
	}

	subject := ProgressSubject(nodeID, runID)
	return func(pr Progress) {
		data, err := json.Marshal(pr)
		if err != nil {
			p.logger.Error().Err(err).Msg("progress marshal error")
			return
		}
		if err := p.conn.Publish(subject, data); err != nil {
			p.logger.Error().Err(err).Str("subject", subject).Msg("progress publish error")
		}
	}
}
