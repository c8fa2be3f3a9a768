package node

import (
	"context"
	"errors"

	"odatanode/internal/api/models"
	"odatanode/internal/odata"
)

// Progress represents a progress update for a node run
type Progress struct {
	NodeID   uint             `json:"nodeId"`
	RunID    string           `json:"runId"`
	Status   models.RunStatus `json:"status"`
	Fraction float64          `json:"fraction"`
	Message  string           `json:"message"`
}

// ProgressFunc is a function that reports progress for a node run
type ProgressFunc func(Progress)

// ExecutionMonitor ties a run's context to its progress reporting.
// Cancelling the context is how a run gets aborted.
type ExecutionMonitor struct {
	ctx    context.Context
	nodeID uint
	runID  string
	report ProgressFunc
}

func NewExecutionMonitor(ctx context.Context, nodeID uint, runID string, report ProgressFunc) *ExecutionMonitor {
	if report == nil {
		report = func(Progress) {}
	}
	return &ExecutionMonitor{ctx: ctx, nodeID: nodeID, runID: runID, report: report}
}

func (m *ExecutionMonitor) SetProgress(fraction float64, message string) {
	m.report(Progress{
		NodeID:   m.nodeID,
		RunID:    m.runID,
		Status:   models.RunStatusRunning,
		Fraction: fraction,
		Message:  message,
	})
}

// Finish publishes the terminal status of the run
func (m *ExecutionMonitor) Finish(status models.RunStatus, message string) {
	fraction := 0.0
	if status == models.RunStatusCompleted {
		fraction = 1
	}
	m.report(Progress{
		NodeID:   m.nodeID,
		RunID:    m.runID,
		Status:   status,
		Fraction: fraction,
		Message:  message,
	})
}

// CheckCanceled reports an explicit cancellation only; a passed deadline
// surfaces from the transport instead.
func (m *ExecutionMonitor) CheckCanceled() error {
	if errors.Is(m.ctx.Err(), context.Canceled) {
		return odata.ErrCanceled
	}
	return nil
}
