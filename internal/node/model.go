package node

import (
	"context"
	"errors"

	"odatanode/internal/odata"

	"github.com/rs/zerolog"
)

// Settings is a node configuration that can be turned into a validated query
type Settings interface {
	ToQuerySpec() (odata.QuerySpec, error)
}

// Fetcher retrieves the raw payload for a query
type Fetcher interface {
	Fetch(ctx context.Context, spec odata.QuerySpec) ([]byte, error)
}

// NodeModel is the executable side of a node
type NodeModel interface {
	// Configure validates settings and declares the output schema without any I/O
	Configure(settings Settings) (odata.OutputSchema, error)
	Execute(ctx context.Context, settings Settings, monitor odata.Monitor) (*odata.Table, error)
}

// ODataNodeModel reads products from the OData service into a table
type ODataNodeModel struct {
	client       Fetcher
	logger       zerolog.Logger
	newContainer ContainerFactory
}

func NewODataNodeModel(client Fetcher, logger zerolog.Logger) *ODataNodeModel {
	return &ODataNodeModel{
		client:       client,
		logger:       logger,
		newContainer: NewBufferedContainer,
	}
}

// WithContainerFactory replaces the sink used by Execute
func (m *ODataNodeModel) WithContainerFactory(factory ContainerFactory) *ODataNodeModel {
	m.newContainer = factory
	return m
}

func (m *ODataNodeModel) Configure(settings Settings) (odata.OutputSchema, error) {
	spec, err := settings.ToQuerySpec()
	if err != nil {
		return nil, err
	}
	return odata.DeriveSchema(spec), nil
}

func (m *ODataNodeModel) Execute(ctx context.Context, settings Settings, monitor odata.Monitor) (table *odata.Table, err error) {
	m.logger.Info().Msg("Starting OData product retrieval")

	spec, err := settings.ToQuerySpec()
	if err != nil {
		return nil, err
	}

	container := m.newContainer(odata.DeriveSchema(spec))
	defer func() {
		if closeErr := container.Close(); closeErr != nil && err == nil {
			table, err = nil, closeErr
		}
	}()

	if err = monitor.CheckCanceled(); err != nil {
		return nil, err
	}

	body, err := m.client.Fetch(ctx, spec)
	if err != nil {
		m.logFailure(err)
		return nil, err
	}

	rows, err := odata.MapResponse(body, spec, container, monitor)
	if err != nil {
		m.logFailure(err)
		return nil, err
	}

	table, err = container.Commit()
	if err != nil {
		return nil, err
	}

	m.logger.Info().Int("rows", rows).Msg("Successfully retrieved products from OData service")
	return table, nil
}

func (m *ODataNodeModel) logFailure(err error) {
	if errors.Is(err, odata.ErrCanceled) {
		m.logger.Warn().Msg("OData product retrieval canceled")
		return
	}
	m.logger.Error().Err(err).Msg("Error retrieving products from OData service")
}
