package node

import (
	"errors"
	"fmt"
	"sync"

	"odatanode/internal/odata"
)

var ErrContainerClosed = errors.New("data container is closed")

// DataContainer buffers the rows of one run. Rows only become visible to
// downstream consumers through Commit. Close must be called exactly once,
// whatever the outcome; it drops rows that were never committed.
type DataContainer interface {
	odata.RowSink
	Commit() (*odata.Table, error)
	Close() error
}

// ContainerFactory creates the sink of a run for a declared schema
type ContainerFactory func(schema odata.OutputSchema) DataContainer

// BufferedContainer keeps rows in memory until commit
type BufferedContainer struct {
	mu        sync.Mutex
	schema    odata.OutputSchema
	rows      []odata.Row
	committed bool
	closed    bool
}

func NewBufferedContainer(schema odata.OutputSchema) DataContainer {
	return &BufferedContainer{schema: schema}
}

func (c *BufferedContainer) AddRow(row odata.Row) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.committed {
		return ErrContainerClosed
	}
	if len(row.Cells) != len(c.schema) {
		return fmt.Errorf("row %s has %d cells, schema declares %d columns", row.Key, len(row.Cells), len(c.schema))
	}
	for i, cell := range row.Cells {
		if !cell.Missing && cell.Type != c.schema[i].Type {
			return fmt.Errorf("row %s: cell %d is %s, column %q is %s", row.Key, i, cell.Type, c.schema[i].Name, c.schema[i].Type)
		}
	}

	c.rows = append(c.rows, row)
	return nil
}

func (c *BufferedContainer) Commit() (*odata.Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrContainerClosed
	}
	c.committed = true

	rows := c.rows
	if rows == nil {
		rows = []odata.Row{}
	}
	return &odata.Table{Schema: c.schema, Rows: rows}, nil
}

func (c *BufferedContainer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrContainerClosed
	}
	c.closed = true
	if !c.committed {
		c.rows = nil
	}
	return nil
}

// Len returns the number of buffered rows
func (c *BufferedContainer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rows)
}
