package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/connection"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/service"
)

type ConnectionHandler struct {
	svc *service.ConnectionService
	log *zap.Logger
}

func NewConnectionHandler(svc *service.ConnectionService, log *zap.Logger) *ConnectionHandler {
	return &ConnectionHandler{svc: svc, log: log}
}

func (h *ConnectionHandler) RegisterRoutes(rg *gin.RouterGroup, patient, doctor gin.HandlerFunc) {
	rg.POST("/connections", patient, h.Request)
	rg.GET("/connections", h.List)
	rg.GET("/connections/:id", h.Get)
	rg.POST("/connections/:id/respond", doctor, h.Respond)
	rg.POST("/connections/:id/terminate", h.Terminate)
}

type connectionRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" binding:"required"`
}

func (h *ConnectionHandler) Request(c *gin.Context) {
	var req connectionRequest
	if !bindJSON(c, &req) {
		return
	}

	conn, err := h.svc.RequestConnection(c.Request.Context(), caller(c), req.DoctorID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, conn)
}

func (h *ConnectionHandler) List(c *gin.Context) {
	q := &connection.ListConnectionsQuery{Page: pageFromQuery(c)}
	if raw := c.Query("status"); raw != "" {
		status := connection.Status(raw)
		q.Status = &status
	}

	result, err := h.svc.ListConnections(c.Request.Context(), caller(c), q)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondPaged(c, result.Connections, result.TotalCount, result.Page, result.PageSize, result.TotalPages)
}

func (h *ConnectionHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	conn, err := h.svc.GetConnection(c.Request.Context(), caller(c), id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, conn)
}

type respondRequest struct {
	Decision connection.Decision `json:"decision" binding:"required"`
}

func (h *ConnectionHandler) Respond(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req respondRequest
	if !bindJSON(c, &req) {
		return
	}

	conn, err := h.svc.Respond(c.Request.Context(), caller(c), id, req.Decision)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, conn)
}

type terminateRequest struct {
	Initiator connection.Initiator `json:"initiator"`
}

// Terminate accepts an empty body; the initiator then follows from the
// caller's side of the connection.
func (h *ConnectionHandler) Terminate(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req terminateRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	conn, err := h.svc.Terminate(c.Request.Context(), caller(c), id, req.Initiator)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, conn)
}
