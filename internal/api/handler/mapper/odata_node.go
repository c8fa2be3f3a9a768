package mapper

import (
	"encoding/json"

	"odatanode/internal/api/handler/response"
	"odatanode/internal/api/models"
	"odatanode/internal/node"
	"odatanode/internal/odata"
)

// ODataNodeMapper handles mapping between odata_input nodes and DTOs
type ODataNodeMapper interface {
	ToConfig(settings json.RawMessage) (models.ODataInputConfig, error)
	ToODataNode(n models.Node) (response.ODataNode, error)
	ToNodeTypeSummary(f node.NodeFactory) response.NodeTypeSummary
	ToNodeTypeSummaries(factories []node.NodeFactory) []response.NodeTypeSummary
	ToNodeTypeDialog(f node.NodeFactory) response.NodeTypeDialog
	ToExecuteResult(run models.NodeRun, table *odata.Table) response.ExecuteResult
}

type ODataNodeMapperImpl struct{}

func NewODataNodeMapper() ODataNodeMapper {
	return &ODataNodeMapperImpl{}
}

// ToConfig merges the keys present in settings over the defaults
func (m *ODataNodeMapperImpl) ToConfig(settings json.RawMessage) (models.ODataInputConfig, error) {
	return models.ParseODataInputConfig(settings)
}

func (m *ODataNodeMapperImpl) ToODataNode(n models.Node) (response.ODataNode, error) {
	cfg, err := n.GetODataInputConfig()
	if err != nil {
		return response.ODataNode{}, err
	}
	return response.ODataNode{
		ID:          n.ID,
		Name:        n.Name,
		Xpos:        n.Xpos,
		Ypos:        n.Ypos,
		Settings:    cfg,
		TopNEnabled: cfg.TopNEnabled(),
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}, nil
}

func (m *ODataNodeMapperImpl) ToNodeTypeSummary(f node.NodeFactory) response.NodeTypeSummary {
	return response.NodeTypeSummary{
		Type:        f.Type(),
		Name:        f.Name(),
		Description: f.Description(),
		InputPorts:  f.InputPorts(),
		OutputPorts: f.OutputPorts(),
		NodeViews:   f.NodeViews(),
		HasDialog:   f.HasDialog(),
	}
}

func (m *ODataNodeMapperImpl) ToNodeTypeSummaries(factories []node.NodeFactory) []response.NodeTypeSummary {
	out := make([]response.NodeTypeSummary, 0, len(factories))
	for _, f := range factories {
		out = append(out, m.ToNodeTypeSummary(f))
	}
	return out
}

func (m *ODataNodeMapperImpl) ToNodeTypeDialog(f node.NodeFactory) response.NodeTypeDialog {
	dialog := f.Dialog()
	return response.NodeTypeDialog{
		NodeTypeSummary: m.ToNodeTypeSummary(f),
		Columns:         dialog.Columns,
		Defaults:        dialog.Defaults,
	}
}

func (m *ODataNodeMapperImpl) ToExecuteResult(run models.NodeRun, table *odata.Table) response.ExecuteResult {
	result := models.NewNodeResult(run.NodeID, run.RunID, table, run.StartedAt)
	return response.ExecuteResult{
		Run:    run,
		Schema: result.Schema,
		Rows:   result.Rows,
	}
}
