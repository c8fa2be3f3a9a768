package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"odatanode"
	"odatanode/internal/api/models"
	"odatanode/internal/api/repo"
	"odatanode/internal/node"
	"odatanode/internal/odata"
	"odatanode/pkg"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	ErrNodeNotFound       = errors.New("node not found")
	ErrRunInProgress      = errors.New("node is already running")
	ErrNoRunningExecution = errors.New("node is not running")
	ErrResultNotFound     = errors.New("no committed result for node")
)

const runHistoryLimit = 50

type nodeStore interface {
	FindByID(id uint) (models.Node, error)
	FindAllByType(nodeType models.NodeType) ([]models.Node, error)
	Create(node *models.Node) error
	Update(node *models.Node) error
	Delete(id uint) error
}

type runStore interface {
	Create(run *models.NodeRun) error
	Update(run *models.NodeRun) error
	FindByNode(nodeID uint, limit int) ([]models.NodeRun, error)
	DeleteByNode(nodeID uint) error
}

type resultCache interface {
	Set(key string, value any, ttl time.Duration) error
	Get(key string, dest any) error
	Delete(key string) error
}

// redisResultCache stores committed tables through the shared Redis client
type redisResultCache struct{}

func (redisResultCache) Set(key string, value any, ttl time.Duration) error {
	return pkg.RedisSet(key, value, ttl)
}

func (redisResultCache) Get(key string, dest any) error {
	err := pkg.RedisGet(key, dest)
	if pkg.IsRedisNil(err) {
		return ErrResultNotFound
	}
	return err
}

func (redisResultCache) Delete(key string) error {
	return pkg.RedisDelete(key)
}

// ODataNodeService manages odata_input nodes: settings, pre-flight checks,
// executions and their results. One execution per node at a time.
type ODataNodeService struct {
	nodes     nodeStore
	runs      runStore
	cache     resultCache
	factory   node.NodeFactory
	publisher *node.ProgressPublisher
	resultTTL time.Duration
	logger    zerolog.Logger
	now       func() time.Time

	mu      sync.Mutex
	running map[uint]context.CancelFunc
}

func NewODataNodeService() *ODataNodeService {
	cfg := odatanode.GetConfig()
	client := odata.NewClient(odata.ClientConfig{
		ServiceURL:     cfg.ODataConfig.ServiceURL,
		ConnectTimeout: cfg.ODataConfig.ConnectTimeout,
		ReadTimeout:    cfg.ODataConfig.ReadTimeout,
	}, odatanode.Logger)

	return newODataNodeService(
		repo.NewNodeRepository(),
		repo.NewNodeRunRepository(),
		redisResultCache{},
		node.NewODataNodeFactory(client, odatanode.Logger),
		node.NewProgressPublisher(odatanode.NATS, odatanode.Logger),
		cfg.RedisConfig.ResultTTL,
		odatanode.Logger,
	)
}

func newODataNodeService(nodes nodeStore, runs runStore, cache resultCache, factory node.NodeFactory, publisher *node.ProgressPublisher, resultTTL time.Duration, logger zerolog.Logger) *ODataNodeService {
	return &ODataNodeService{
		nodes:     nodes,
		runs:      runs,
		cache:     cache,
		factory:   factory,
		publisher: publisher,
		resultTTL: resultTTL,
		logger:    logger,
		now:       time.Now,
		running:   make(map[uint]context.CancelFunc),
	}
}

// Factory returns the factory backing the service's node type
func (slf *ODataNodeService) Factory() node.NodeFactory {
	return slf.factory
}

// Create stores a new node with validated settings
func (slf *ODataNodeService) Create(name string, config models.ODataInputConfig, xpos, ypos float32) (*models.Node, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	n := models.Node{Type: models.NodeTypeODataInput, Name: name, Xpos: xpos, Ypos: ypos}
	if err := n.SetData(config); err != nil {
		return nil, err
	}
	if err := slf.nodes.Create(&n); err != nil {
		slf.logger.Error().Err(err).Msg("Error creating node")
		return nil, err
	}
	return &n, nil
}

// FindByID retrieves an odata_input node by ID
func (slf *ODataNodeService) FindByID(id uint) (*models.Node, error) {
	n, err := slf.nodes.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNodeNotFound
		}
		slf.logger.Error().Err(err).Uint("nodeId", id).Msg("Error getting node")
		return nil, err
	}
	if n.Type != slf.factory.Type() {
		return nil, ErrNodeNotFound
	}
	return &n, nil
}

// List returns every odata_input node
func (slf *ODataNodeService) List() ([]models.Node, error) {
	nodes, err := slf.nodes.FindAllByType(slf.factory.Type())
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error listing nodes")
		return nil, err
	}
	return nodes, nil
}

// UpdateSettings validates raw settings and replaces the stored ones
func (slf *ODataNodeService) UpdateSettings(id uint, raw []byte) (*models.Node, error) {
	config, err := models.ParseODataInputConfig(raw)
	if err != nil {
		return nil, err
	}

	n, err := slf.FindByID(id)
	if err != nil {
		return nil, err
	}
	if err := n.SetData(config); err != nil {
		return nil, err
	}
	if err := slf.nodes.Update(n); err != nil {
		slf.logger.Error().Err(err).Uint("nodeId", id).Msg("Error updating node settings")
		return nil, err
	}

	// a committed table no longer matches the new settings
	if err := slf.cache.Delete(resultKey(id)); err != nil && !errors.Is(err, ErrResultNotFound) {
		slf.logger.Warn().Err(err).Uint("nodeId", id).Msg("Failed to drop cached result")
	}
	return n, nil
}

// Delete removes a node with its run history and cached result
func (slf *ODataNodeService) Delete(id uint) error {
	if _, err := slf.FindByID(id); err != nil {
		return err
	}
	if err := slf.runs.DeleteByNode(id); err != nil {
		return err
	}
	if err := slf.cache.Delete(resultKey(id)); err != nil && !errors.Is(err, ErrResultNotFound) {
		slf.logger.Warn().Err(err).Uint("nodeId", id).Msg("Failed to drop cached result")
	}
	return slf.nodes.Delete(id)
}

// Configure is the pre-flight check: it validates the stored settings and
// returns the output schema without contacting the service.
func (slf *ODataNodeService) Configure(id uint) (odata.OutputSchema, error) {
	n, err := slf.FindByID(id)
	if err != nil {
		return nil, err
	}
	settings, err := slf.factory.LoadSettings(n.Data)
	if err != nil {
		return nil, err
	}
	return slf.factory.CreateNodeModel().Configure(settings)
}

// Execute runs the node and returns the run record with the committed table.
// The run record is returned on failure too, with its terminal status.
func (slf *ODataNodeService) Execute(ctx context.Context, id uint) (*models.NodeRun, *odata.Table, error) {
	n, err := slf.FindByID(id)
	if err != nil {
		return nil, nil, err
	}
	settings, err := slf.factory.LoadSettings(n.Data)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := slf.register(id, cancel); err != nil {
		return nil, nil, err
	}
	defer slf.unregister(id)

	run := &models.NodeRun{
		RunID:     uuid.NewString(),
		NodeID:    id,
		Status:    models.RunStatusRunning,
		StartedAt: slf.now(),
	}
	if err := slf.runs.Create(run); err != nil {
		slf.logger.Error().Err(err).Uint("nodeId", id).Msg("Error creating node run")
		return nil, nil, err
	}

	logger := slf.logger.With().Uint("nodeId", id).Str("runId", run.RunID).Logger()
	monitor := node.NewExecutionMonitor(ctx, id, run.RunID, slf.publisher.ReportFunc(id, run.RunID))

	table, execErr := slf.factory.CreateNodeModel().Execute(ctx, settings, monitor)

	status := runStatus(execErr)
	run.Finish(status, table.RowCount(), execErr, slf.now())
	if err := slf.runs.Update(run); err != nil {
		logger.Error().Err(err).Msg("Error updating node run")
	}
	monitor.Finish(status, finishMessage(status, table.RowCount(), execErr))

	if execErr != nil {
		return run, nil, execErr
	}

	result := models.NewNodeResult(id, run.RunID, table, *run.FinishedAt)
	if err := slf.cache.Set(resultKey(id), result, slf.resultTTL); err != nil {
		logger.Warn().Err(err).Msg("Failed to cache node result")
	}
	return run, table, nil
}

// Cancel aborts the running execution of a node
func (slf *ODataNodeService) Cancel(id uint) error {
	slf.mu.Lock()
	defer slf.mu.Unlock()

	cancel, ok := slf.running[id]
	if !ok {
		return ErrNoRunningExecution
	}
	cancel()
	return nil
}

// IsRunning reports whether an execution of the node is in flight
func (slf *ODataNodeService) IsRunning(id uint) bool {
	slf.mu.Lock()
	defer slf.mu.Unlock()
	_, ok := slf.running[id]
	return ok
}

// Result returns the last committed table of the node
func (slf *ODataNodeService) Result(id uint) (*models.NodeResult, error) {
	if _, err := slf.FindByID(id); err != nil {
		return nil, err
	}
	var result models.NodeResult
	if err := slf.cache.Get(resultKey(id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Runs returns the latest executions of the node
func (slf *ODataNodeService) Runs(id uint) ([]models.NodeRun, error) {
	if _, err := slf.FindByID(id); err != nil {
		return nil, err
	}
	return slf.runs.FindByNode(id, runHistoryLimit)
}

func (slf *ODataNodeService) register(id uint, cancel context.CancelFunc) error {
	slf.mu.Lock()
	defer slf.mu.Unlock()
	if _, ok := slf.running[id]; ok {
		return ErrRunInProgress
	}
	slf.running[id] = cancel
	return nil
}

func (slf *ODataNodeService) unregister(id uint) {
	slf.mu.Lock()
	defer slf.mu.Unlock()
	delete(slf.running, id)
}

func resultKey(id uint) string {
	return fmt.Sprintf("node:%d:result", id)
}

func runStatus(err error) models.RunStatus {
	switch {
	case err == nil:
		return models.RunStatusCompleted
	case errors.Is(err, odata.ErrCanceled):
		return models.RunStatusCanceled
	default:
		return models.RunStatusFailed
	}
}

func finishMessage(status models.RunStatus, rows int, err error) string {
	switch status {
	case models.RunStatusCompleted:
		return fmt.Sprintf("Retrieved %d products", rows)
	case models.RunStatusCanceled:
		return "Execution canceled"
	default:
		return err.Error()
	}
}
