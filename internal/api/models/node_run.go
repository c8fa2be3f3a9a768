package models

import "time"

// RunStatus represents the state of a node execution
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCanceled  RunStatus = "canceled"
)

// NodeRun records one execution of a node
type NodeRun struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	RunID      string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"runId"`
	NodeID     uint       `gorm:"index;not null" json:"nodeId"`
	Status     RunStatus  `gorm:"type:varchar(20);default:running" json:"status"`
	RowCount   int        `json:"rowCount"`
	LastError  string     `json:"lastError,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// Finish stamps the terminal status of the run
func (slf *NodeRun) Finish(status RunStatus, rowCount int, err error, at time.Time) {
	slf.Status = status
	slf.RowCount = rowCount
	if err != nil {
		slf.LastError = err.Error()
	}
	slf.FinishedAt = &at
}
