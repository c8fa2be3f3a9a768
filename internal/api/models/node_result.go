package models

import (
	"bytes"
	"encoding/json"
	"time"

	"odatanode/internal/odata"
)

// NodeResult is the last committed table of a node, as kept in the result cache
type NodeResult struct {
	NodeID      uint               `json:"nodeId"`
	RunID       string             `json:"runId"`
	Schema      odata.OutputSchema `json:"schema"`
	Rows        []ResultRow        `json:"rows"`
	CommittedAt time.Time          `json:"committedAt"`
}

// ResultRow is a row flattened to plain values
type ResultRow struct {
	Key    string `json:"key"`
	Values []any  `json:"values"`
}

// UnmarshalJSON keeps numbers as json.Number so integers above 2^53 survive the cache
func (r *ResultRow) UnmarshalJSON(data []byte) error {
	var raw struct {
		Key    string `json:"key"`
		Values []any  `json:"values"`
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return err
	}
	r.Key = raw.Key
	r.Values = raw.Values
	return nil
}

func NewNodeResult(nodeID uint, runID string, table *odata.Table, committedAt time.Time) NodeResult {
	rows := make([]ResultRow, 0, table.RowCount())
	if table != nil {
		for _, row := range table.Rows {
			rows = append(rows, ResultRow{Key: row.Key, Values: row.Values()})
		}
	}
	result := NodeResult{
		NodeID:      nodeID,
		RunID:       runID,
		Rows:        rows,
		CommittedAt: committedAt,
	}
	if table != nil {
		result.Schema = table.Schema
	}
	return result
}
