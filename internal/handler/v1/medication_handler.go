package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/medication"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/service"
)

type MedicationHandler struct {
	svc *service.MedicationService
	log *zap.Logger
}

func NewMedicationHandler(svc *service.MedicationService, log *zap.Logger) *MedicationHandler {
	return &MedicationHandler{svc: svc, log: log}
}

func (h *MedicationHandler) RegisterRoutes(rg *gin.RouterGroup, prescriber, admin gin.HandlerFunc) {
	rg.GET("/medications", h.List)
	rg.GET("/medications/:id", h.Get)
	rg.POST("/medications", prescriber, h.Create)
	rg.PUT("/medications/:id", admin, h.Update)
	rg.DELETE("/medications/:id", admin, h.Delete)
}

type createMedicationRequest struct {
	Name         string `json:"name" binding:"required"`
	GenericName  string `json:"generic_name"`
	Manufacturer string `json:"manufacturer"`
	Category     string `json:"category"`
	Description  string `json:"description"`
}

func (h *MedicationHandler) Create(c *gin.Context) {
	var req createMedicationRequest
	if !bindJSON(c, &req) {
		return
	}

	m, err := h.svc.CreateMedication(c.Request.Context(), caller(c), &medication.CreateMedicationCommand{
		Name:         req.Name,
		GenericName:  req.GenericName,
		Manufacturer: req.Manufacturer,
		Category:     req.Category,
		Description:  req.Description,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, m)
}

func (h *MedicationHandler) List(c *gin.Context) {
	result, err := h.svc.ListMedications(c.Request.Context(), &medication.ListMedicationsQuery{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Page:     pageFromQuery(c),
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondPaged(c, result.Medications, result.TotalCount, result.Page, result.PageSize, result.TotalPages)
}

func (h *MedicationHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	m, err := h.svc.GetMedication(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, m)
}

type updateMedicationRequest struct {
	Name         *string `json:"name"`
	GenericName  *string `json:"generic_name"`
	Manufacturer *string `json:"manufacturer"`
	Category     *string `json:"category"`
	Description  *string `json:"description"`
}

func (h *MedicationHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateMedicationRequest
	if !bindJSON(c, &req) {
		return
	}

	m, err := h.svc.UpdateMedication(c.Request.Context(), caller(c), id, &medication.UpdateMedicationCommand{
		Name:         req.Name,
		GenericName:  req.GenericName,
		Manufacturer: req.Manufacturer,
		Category:     req.Category,
		Description:  req.Description,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, m)
}

// Delete answers 409 while prescription items still reference the entry.
func (h *MedicationHandler) Delete(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteMedication(c.Request.Context(), caller(c), id); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
