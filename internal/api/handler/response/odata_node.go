package response

import (
	"time"

	"odatanode/internal/api/models"
	"odatanode/internal/odata"
)

// NodeTypeSummary describes a node type available in the editor
type NodeTypeSummary struct {
	Type        models.NodeType `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputPorts  int             `json:"inputPorts"`
	OutputPorts int             `json:"outputPorts"`
	NodeViews   int             `json:"nodeViews"`
	HasDialog   bool            `json:"hasDialog"`
}

// NodeTypeDialog is what the settings dialog of a node type needs
type NodeTypeDialog struct {
	NodeTypeSummary
	Columns  []odata.FieldDescriptor `json:"columns"`
	Defaults any                     `json:"defaults"`
}

// ODataNode is the response for a single odata_input node
type ODataNode struct {
	ID          uint                    `json:"id"`
	Name        string                  `json:"name"`
	Xpos        float32                 `json:"xpos"`
	Ypos        float32                 `json:"ypos"`
	Settings    models.ODataInputConfig `json:"settings"`
	TopNEnabled bool                    `json:"topNEnabled"`
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

// ConfigureResult is the outcome of a pre-flight check
type ConfigureResult struct {
	Schema odata.OutputSchema `json:"schema"`
}

// ExecuteResult holds the run record and its committed rows
type ExecuteResult struct {
	Run    models.NodeRun     `json:"run"`
	Schema odata.OutputSchema `json:"schema"`
	Rows   []models.ResultRow `json:"rows"`
}
