package endpoints

import (
	"context"
	"errors"
	"net/http"

	"odatanode"
	"odatanode/internal/api/handler/mapper"
	"odatanode/internal/api/handler/middleware"
	"odatanode/internal/api/handler/request"
	"odatanode/internal/api/handler/response"
	"odatanode/internal/api/models"
	"odatanode/internal/api/service"
	"odatanode/internal/node"
	"odatanode/internal/odata"
	"odatanode/internal/realtime"
	"odatanode/pkg"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// statusClientClosedRequest is answered when a run was canceled
const statusClientClosedRequest = 499

type odataNodeService interface {
	Factory() node.NodeFactory
	Create(name string, config models.ODataInputConfig, xpos, ypos float32) (*models.Node, error)
	FindByID(id uint) (*models.Node, error)
	List() ([]models.Node, error)
	UpdateSettings(id uint, raw []byte) (*models.Node, error)
	Delete(id uint) error
	Configure(id uint) (odata.OutputSchema, error)
	Execute(ctx context.Context, id uint) (*models.NodeRun, *odata.Table, error)
	Cancel(id uint) error
	Result(id uint) (*models.NodeResult, error)
	Runs(id uint) ([]models.NodeRun, error)
}

type odataNodeHandler struct {
	nodeService odataNodeService
	registry    *node.Registry
	logger      zerolog.Logger
	config      odatanode.AppConfig
	nodeMapper  mapper.ODataNodeMapper
	hub         *realtime.Hub
}

func newODataNodeHandler(svc odataNodeService, logger zerolog.Logger, config odatanode.AppConfig) *odataNodeHandler {
	return &odataNodeHandler{
		nodeService: svc,
		registry:    node.NewRegistry(svc.Factory()),
		logger:      logger,
		config:      config,
		nodeMapper:  mapper.NewODataNodeMapper(),
	}
}

// ODataNodeHandler sets up node routes and the progress stream fed by hub
func ODataNodeHandler(router *graceful.Graceful, hub *realtime.Hub) {
	handler := newODataNodeHandler(service.NewODataNodeService(), odatanode.Logger, odatanode.GetConfig())
	handler.hub = hub

	routes := router.Group("/api/v1/nodes")
	routes.Use(middleware.AuthMiddleware(handler.config))
	handler.register(routes)

	// the websocket authenticates itself with a token query param
	router.GET("/api/v1/nodes/odata/:id/progress", handler.streamProgress)
}

func (slf *odataNodeHandler) register(routes *gin.RouterGroup) {
	types := routes.Group("/types")
	{
		types.GET("", slf.getTypes)
		types.GET("/:type", slf.getTypeDialog)
	}

	editor := middleware.RequireRole(slf.config, middleware.RoleEditor, middleware.RoleAdmin)
	nodes := routes.Group("/odata")
	{
		nodes.GET("", slf.list)
		nodes.POST("", editor, slf.create)
		nodes.GET("/:id", slf.getByID)
		nodes.PUT("/:id/settings", editor, slf.updateSettings)
		nodes.DELETE("/:id", editor, slf.delete)
		nodes.POST("/:id/configure", slf.configure)
		nodes.POST("/:id/execute", editor, slf.execute)
		nodes.POST("/:id/cancel", editor, slf.cancel)
		nodes.GET("/:id/result", slf.getResult)
		nodes.GET("/:id/runs", slf.getRuns)
	}
}

// getTypes lists the node types that can be placed in a pipeline
func (slf *odataNodeHandler) getTypes(c *gin.Context) {
	c.JSON(http.StatusOK, slf.nodeMapper.ToNodeTypeSummaries(slf.registry.List()))
}

// getTypeDialog returns what the settings dialog of a node type offers
func (slf *odataNodeHandler) getTypeDialog(c *gin.Context) {
	f, err := slf.registry.Lookup(models.NodeType(c.Param("type")))
	if err != nil {
		c.JSON(http.StatusNotFound, response.APIError{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, slf.nodeMapper.ToNodeTypeDialog(f))
}

func (slf *odataNodeHandler) create(c *gin.Context) {
	var req request.CreateODataNode
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		slf.logger.Error().Err(err).Msg("Failed to parse create node request")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	config, err := slf.nodeMapper.ToConfig(req.Settings)
	if err != nil {
		slf.writeError(c, err, "Invalid node settings")
		return
	}

	created, err := slf.nodeService.Create(req.Name, config, req.Xpos, req.Ypos)
	if err != nil {
		slf.writeError(c, err, "Failed to create node")
		return
	}
	slf.writeNode(c, http.StatusCreated, *created)
}

func (slf *odataNodeHandler) list(c *gin.Context) {
	nodes, err := slf.nodeService.List()
	if err != nil {
		slf.writeError(c, err, "Failed to list nodes")
		return
	}
	dtos := make([]response.ODataNode, 0, len(nodes))
	for _, n := range nodes {
		dto, err := slf.nodeMapper.ToODataNode(n)
		if err != nil {
			slf.logger.Error().Err(err).Uint("nodeId", n.ID).Msg("Failed to map node")
			continue
		}
		dtos = append(dtos, dto)
	}
	c.JSON(http.StatusOK, dtos)
}

func (slf *odataNodeHandler) getByID(c *gin.Context) {
	id, ok := slf.parseID(c)
	if !ok {
		return
	}
	n, err := slf.nodeService.FindByID(id)
	if err != nil {
		slf.writeError(c, err, "Failed to get node")
		return
	}
	slf.writeNode(c, http.StatusOK, *n)
}

func (slf *odataNodeHandler) updateSettings(c *gin.Context) {
	id, ok := slf.parseID(c)
	if !ok {
		return
	}
	var req request.UpdateODataNodeSettings
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	updated, err := slf.nodeService.UpdateSettings(id, req.Settings)
	if err != nil {
		slf.writeError(c, err, "Failed to update node settings")
		return
	}
	slf.writeNode(c, http.StatusOK, *updated)
}

func (slf *odataNodeHandler) delete(c *gin.Context) {
	id, ok := slf.parseID(c)
	if !ok {
		return
	}
	if err := slf.nodeService.Delete(id); err != nil {
		slf.writeError(c, err, "Failed to delete node")
		return
	}
	c.Status(http.StatusNoContent)
}

// configure is the pre-flight check, it never reaches the OData service
func (slf *odataNodeHandler) configure(c *gin.Context) {
	id, ok := slf.parseID(c)
	if !ok {
		return
	}
	schema, err := slf.nodeService.Configure(id)
	if err != nil {
		slf.writeError(c, err, "Node configuration rejected")
		return
	}
	c.JSON(http.StatusOK, response.ConfigureResult{Schema: schema})
}

func (slf *odataNodeHandler) execute(c *gin.Context) {
	id, ok := slf.parseID(c)
	if !ok {
		return
	}
	run, table, err := slf.nodeService.Execute(c.Request.Context(), id)
	if err != nil {
		slf.writeErrorWithData(c, err, "Node execution failed", run)
		return
	}
	c.JSON(http.StatusOK, slf.nodeMapper.ToExecuteResult(*run, table))
}

func (slf *odataNodeHandler) cancel(c *gin.Context) {
	id, ok := slf.parseID(c)
	if !ok {
		return
	}
	if err := slf.nodeService.Cancel(id); err != nil {
		slf.writeError(c, err, "Failed to cancel node")
		return
	}
	c.Status(http.StatusAccepted)
}

func (slf *odataNodeHandler) getResult(c *gin.Context) {
	id, ok := slf.parseID(c)
	if !ok {
		return
	}
	result, err := slf.nodeService.Result(id)
	if err != nil {
		slf.writeError(c, err, "Failed to get node result")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (slf *odataNodeHandler) getRuns(c *gin.Context) {
	id, ok := slf.parseID(c)
	if !ok {
		return
	}
	runs, err := slf.nodeService.Runs(id)
	if err != nil {
		slf.writeError(c, err, "Failed to get node runs")
		return
	}
	c.JSON(http.StatusOK, runs)
}

// streamProgress upgrades to a websocket relaying the progress of every run of the node
func (slf *odataNodeHandler) streamProgress(c *gin.Context) {
	id, ok := slf.parseID(c)
	if !ok {
		return
	}
	if slf.hub == nil {
		c.JSON(http.StatusServiceUnavailable, response.APIError{Message: "Progress streaming is disabled"})
		return
	}
	secret := slf.config.JWTConfig.Secret
	if slf.config.Mode == "dev" {
		secret = ""
	}
	realtime.ServeWS(slf.hub, secret, id, c.Writer, c.Request)
}

func (slf *odataNodeHandler) parseID(c *gin.Context) (uint, bool) {
	id, err := pkg.ParseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid ID"})
		return 0, false
	}
	return id, true
}

func (slf *odataNodeHandler) writeNode(c *gin.Context, status int, n models.Node) {
	dto, err := slf.nodeMapper.ToODataNode(n)
	if err != nil {
		slf.logger.Error().Err(err).Uint("nodeId", n.ID).Msg("Failed to map node")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to read node settings"})
		return
	}
	c.JSON(status, dto)
}

func (slf *odataNodeHandler) writeError(c *gin.Context, err error, msg string) {
	slf.writeErrorWithData(c, err, msg, nil)
}

func (slf *odataNodeHandler) writeErrorWithData(c *gin.Context, err error, msg string, data any) {
	status := statusFor(err)
	event := slf.logger.Error()
	if status < http.StatusInternalServerError {
		event = slf.logger.Warn()
	}
	event.Err(err).Str("path", c.FullPath()).Msg(msg)

	c.JSON(status, response.APIError{Message: err.Error(), Data: data})
}

func statusFor(err error) int {
	var (
		configErr    *odata.ConfigurationError
		remoteErr    *odata.RemoteServiceError
		malformedErr *odata.MalformedResponseError
		transportErr *odata.TransportError
	)
	switch {
	case errors.As(err, &configErr):
		return http.StatusBadRequest
	case errors.Is(err, odata.ErrCanceled):
		return statusClientClosedRequest
	case errors.As(err, &remoteErr), errors.As(err, &malformedErr):
		return http.StatusBadGateway
	case errors.As(err, &transportErr):
		return http.StatusGatewayTimeout
	case errors.Is(err, service.ErrNodeNotFound), errors.Is(err, service.ErrResultNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrRunInProgress), errors.Is(err, service.ErrNoRunningExecution):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
