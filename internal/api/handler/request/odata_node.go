package request

import "encoding/json"

// CreateODataNode is the request for creating a new odata_input node.
// Settings keys left out take their defaults.
type CreateODataNode struct {
	Name     string          `json:"name" validate:"required"`
	Xpos     float32         `json:"xpos"`
	Ypos     float32         `json:"ypos"`
	Settings json.RawMessage `json:"settings"`
}

// UpdateODataNodeSettings carries the raw settings blob, validated by the node itself
type UpdateODataNodeSettings struct {
	Settings json.RawMessage `json:"settings" validate:"required"`
}
