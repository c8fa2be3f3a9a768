package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type NodeData []byte

// Scan implements sql.Scanner interface
func (n *NodeData) Scan(value interface{}) error {
	if value == nil {
		*n = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*n = append(NodeData(nil), v...)
		return nil
	case string:
		*n = []byte(v)
		return nil
	default:
		return fmt.Errorf("cannot scan type %T into NodeData", value)
	}
}

// Value implements driver.Valuer interface
func (n NodeData) Value() (driver.Value, error) {
	if n == nil {
		return nil, nil
	}
	return []byte(n), nil
}

// MarshalJSON implements json.Marshaler - returns raw JSON
func (n NodeData) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	return n, nil
}

// UnmarshalJSON implements json.Unmarshaler - stores raw JSON
func (n *NodeData) UnmarshalJSON(data []byte) error {
	if data == nil {
		*n = nil
		return nil
	}
	*n = append(NodeData(nil), data...)
	return nil
}

type NodeType string

const (
	NodeTypeODataInput NodeType = "odata_input"
)

type Node struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// Type of the node. It has to be immutable
	Type      NodeType  `gorm:"type:varchar(40);not null" json:"type"`
	Name      string    `json:"name"`
	Xpos      float32   `json:"xpos"`
	Ypos      float32   `json:"ypos"`
	Data      NodeData  `json:"data" gorm:"type:jsonb"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SetData serializes and stores typed config data
func (slf *Node) SetData(data any) error {
	// Validate data type matches node type
	switch slf.Type {
	case NodeTypeODataInput:
		if _, ok := data.(ODataInputConfig); !ok {
			return errors.New("invalid data type for odata_input node")
		}
	default:
		return errors.New("unknown node type: " + string(slf.Type))
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	slf.Data = jsonData
	return nil
}

// GetTypedData deserializes the JSON data into the expected type
func GetTypedData[T any](node Node) (T, error) {
	var result T
	if node.Data == nil {
		return result, errors.New("node data is nil")
	}
	if err := json.Unmarshal(node.Data, &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return result, nil
}

// GetODataInputConfig loads the node settings, absent keys take their defaults
func (slf Node) GetODataInputConfig() (ODataInputConfig, error) {
	if slf.Type != NodeTypeODataInput {
		return ODataInputConfig{}, errors.New("node is not an odata_input type")
	}
	return LoadODataInputConfig(slf.Data)
}
