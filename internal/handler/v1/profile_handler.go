package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/profile"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/service"
)

type ProfileHandler struct {
	svc *service.ProfileService
	log *zap.Logger
}

func NewProfileHandler(svc *service.ProfileService, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, log: log}
}

func (h *ProfileHandler) RegisterRoutes(rg *gin.RouterGroup, admin gin.HandlerFunc) {
	rg.GET("/doctors", h.ListDoctors)
	rg.GET("/doctors/:id", h.GetDoctor)
	rg.POST("/doctors/:id/profile", h.CreateDoctorProfile)
	rg.POST("/doctors/:id/verify", admin, h.VerifyDoctor)

	rg.GET("/patients/:id", h.GetPatient)
	rg.POST("/patients/:id/profile", h.CreatePatientProfile)
}

func (h *ProfileHandler) ListDoctors(c *gin.Context) {
	q := &profile.ListDoctorsQuery{
		Specialization: c.Query("specialization"),
		VerifiedOnly:   c.Query("verified") == "true",
		Page:           pageFromQuery(c),
	}

	result, err := h.svc.ListDoctors(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondPaged(c, result.Doctors, result.TotalCount, result.Page, result.PageSize, result.TotalPages)
}

func (h *ProfileHandler) GetDoctor(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	d, err := h.svc.GetDoctorProfile(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, d)
}

func (h *ProfileHandler) CreateDoctorProfile(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req doctorProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := req.command()
	cmd.UserID = id
	d, err := h.svc.CreateDoctorProfile(c.Request.Context(), caller(c), cmd)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, d)
}

type verifyRequest struct {
	Verified *bool `json:"verified"`
}

// VerifyDoctor defaults to verifying when the body omits the flag.
func (h *ProfileHandler) VerifyDoctor(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req verifyRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	verified := req.Verified == nil || *req.Verified

	if err := h.svc.VerifyDoctor(c.Request.Context(), caller(c), id, verified); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProfileHandler) GetPatient(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.GetPatientProfile(c.Request.Context(), caller(c), id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, p)
}

func (h *ProfileHandler) CreatePatientProfile(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req patientProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd, ok := req.command(c)
	if !ok {
		return
	}
	cmd.UserID = id
	p, err := h.svc.CreatePatientProfile(c.Request.Context(), caller(c), cmd)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, p)
}
