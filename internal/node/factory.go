package node

import (
	"fmt"
	"sort"

	"odatanode/internal/api/models"
	"odatanode/internal/odata"

	"github.com/rs/zerolog"
)

// Dialog describes what a settings editor for the node has to offer
type Dialog struct {
	Columns  []odata.FieldDescriptor `json:"columns"`
	Defaults any                     `json:"defaults"`
}

// NodeFactory creates node models and provides metadata about the node type
type NodeFactory interface {
	// Type returns the unique identifier for this node type
	Type() models.NodeType
	Name() string
	Description() string
	InputPorts() int
	OutputPorts() int
	// NodeViews is the number of result views the node provides
	NodeViews() int
	HasDialog() bool
	Dialog() Dialog
	// LoadSettings decodes stored node data into executable settings
	LoadSettings(data models.NodeData) (Settings, error)
	CreateNodeModel() NodeModel
}

// ODataNodeFactory builds OData product input nodes
type ODataNodeFactory struct {
	client Fetcher
	logger zerolog.Logger
}

func NewODataNodeFactory(client Fetcher, logger zerolog.Logger) *ODataNodeFactory {
	return &ODataNodeFactory{client: client, logger: logger}
}

func (f *ODataNodeFactory) Type() models.NodeType { return models.NodeTypeODataInput }

func (f *ODataNodeFactory) Name() string { return "OData Products" }

func (f *ODataNodeFactory) Description() string {
	return "Reads products from the OData sample service, with column selection and an optional row cap."
}

func (f *ODataNodeFactory) InputPorts() int { return 0 }

func (f *ODataNodeFactory) OutputPorts() int { return 1 }

func (f *ODataNodeFactory) NodeViews() int { return 0 }

func (f *ODataNodeFactory) HasDialog() bool { return true }

func (f *ODataNodeFactory) Dialog() Dialog {
	return Dialog{
		Columns:  odata.Fields(),
		Defaults: models.DefaultODataInputConfig(),
	}
}

func (f *ODataNodeFactory) LoadSettings(data models.NodeData) (Settings, error) {
	return models.LoadODataInputConfig(data)
}

func (f *ODataNodeFactory) CreateNodeModel() NodeModel {
	return NewODataNodeModel(f.client, f.logger)
}

// Registry indexes node factories by type
type Registry struct {
	factories map[models.NodeType]NodeFactory
}

func NewRegistry(factories ...NodeFactory) *Registry {
	r := &Registry{factories: make(map[models.NodeType]NodeFactory, len(factories))}
	for _, f := range factories {
		r.factories[f.Type()] = f
	}
	return r
}

func (r *Registry) Lookup(nodeType models.NodeType) (NodeFactory, error) {
	f, ok := r.factories[nodeType]
	if !ok {
		return nil, fmt.Errorf("unknown node type: %s", nodeType)
	}
	return f, nil
}

// List returns the registered factories sorted by type
func (r *Registry) List() []NodeFactory {
	out := make([]NodeFactory, 0, len(r.factories))
	for _, f := range r.factories {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type() < out[j].Type() })
	return out
}
