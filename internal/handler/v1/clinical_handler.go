package v1

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/diagnosis"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/prescription"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/service"
)

// ClinicalHandler serves diagnoses, prescriptions and prescription items.
type ClinicalHandler struct {
	svc *service.ClinicalService
	log *zap.Logger
}

func NewClinicalHandler(svc *service.ClinicalService, log *zap.Logger) *ClinicalHandler {
	return &ClinicalHandler{svc: svc, log: log}
}

func (h *ClinicalHandler) RegisterRoutes(rg *gin.RouterGroup, doctor gin.HandlerFunc) {
	rg.POST("/connections/:id/diagnoses", doctor, h.AddDiagnosis)
	rg.GET("/connections/:id/diagnoses", h.ListDiagnoses)
	rg.GET("/diagnoses/:id", h.GetDiagnosis)

	rg.POST("/diagnoses/:id/prescriptions", doctor, h.IssuePrescription)
	rg.GET("/diagnoses/:id/prescriptions", h.ListPrescriptions)
	rg.GET("/prescriptions/:id", h.GetPrescription)
	rg.POST("/prescriptions/:id/items", doctor, h.AddItem)
	rg.POST("/prescriptions/:id/deactivate", doctor, h.Deactivate)
}

type diagnosisRequest struct {
	RecordedAt    *time.Time `json:"recorded_at"`
	Symptoms      string     `json:"symptoms"`
	Details       string     `json:"diagnosis_details"`
	TreatmentPlan string     `json:"treatment_plan"`
	FollowUpDate  string     `json:"follow_up_date"`
}

func (h *ClinicalHandler) AddDiagnosis(c *gin.Context) {
	connID, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req diagnosisRequest
	if !bindJSON(c, &req) {
		return
	}
	followUp, ok := parseDate(c, "follow_up_date", req.FollowUpDate)
	if !ok {
		return
	}

	d, err := h.svc.AddDiagnosis(c.Request.Context(), caller(c), &diagnosis.CreateDiagnosisCommand{
		ConnectionID:  connID,
		RecordedAt:    req.RecordedAt,
		Symptoms:      req.Symptoms,
		Details:       req.Details,
		TreatmentPlan: req.TreatmentPlan,
		FollowUpDate:  followUp,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, d)
}

func (h *ClinicalHandler) ListDiagnoses(c *gin.Context) {
	connID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.svc.ListDiagnoses(c.Request.Context(), caller(c), connID, pageFromQuery(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondPaged(c, result.Diagnoses, result.TotalCount, result.Page, result.PageSize, result.TotalPages)
}

func (h *ClinicalHandler) GetDiagnosis(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	d, err := h.svc.GetDiagnosis(c.Request.Context(), caller(c), id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, d)
}

type itemRequest struct {
	MedicationID   uuid.UUID                          `json:"medication_id"`
	Dosage         string                             `json:"dosage"`
	Route          prescription.RouteOfAdministration `json:"route"`
	Frequency      string                             `json:"frequency"`
	DurationValue  *int                               `json:"duration_value"`
	DurationUnit   *prescription.DurationUnit         `json:"duration_unit"`
	StartDate      string                             `json:"start_date"`
	EndDate        string                             `json:"end_date"`
	Instructions   string                             `json:"instructions"`
	RefillsAllowed int                                `json:"refills_allowed"`
}

// input returns false after writing a 400 response.
func (r *itemRequest) input(c *gin.Context, prefix string) (prescription.ItemInput, bool) {
	start, ok := parseDate(c, prefix+"start_date", r.StartDate)
	if !ok {
		return prescription.ItemInput{}, false
	}
	end, ok := parseDate(c, prefix+"end_date", r.EndDate)
	if !ok {
		return prescription.ItemInput{}, false
	}
	return prescription.ItemInput{
		MedicationID:   r.MedicationID,
		Dosage:         r.Dosage,
		Route:          r.Route,
		Frequency:      r.Frequency,
		DurationValue:  r.DurationValue,
		DurationUnit:   r.DurationUnit,
		StartDate:      start,
		EndDate:        end,
		Instructions:   r.Instructions,
		RefillsAllowed: r.RefillsAllowed,
	}, true
}

type prescriptionRequest struct {
	PrescribedAt    *time.Time    `json:"prescribed_at"`
	NotesForPatient string        `json:"notes_for_patient"`
	Items           []itemRequest `json:"items"`
}

func (h *ClinicalHandler) IssuePrescription(c *gin.Context) {
	diagID, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req prescriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &prescription.CreatePrescriptionCommand{
		DiagnosisID:     diagID,
		PrescribedAt:    req.PrescribedAt,
		NotesForPatient: req.NotesForPatient,
		Items:           make([]prescription.ItemInput, 0, len(req.Items)),
	}
	for i := range req.Items {
		in, ok := req.Items[i].input(c, fmt.Sprintf("items[%d].", i))
		if !ok {
			return
		}
		cmd.Items = append(cmd.Items, in)
	}

	p, err := h.svc.IssuePrescription(c.Request.Context(), caller(c), cmd)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, p)
}

func (h *ClinicalHandler) ListPrescriptions(c *gin.Context) {
	diagID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	list, err := h.svc.ListPrescriptions(c.Request.Context(), caller(c), diagID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	if list == nil {
		list = []*prescription.Prescription{}
	}
	respondOK(c, list)
}

func (h *ClinicalHandler) GetPrescription(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.GetPrescription(c.Request.Context(), caller(c), id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, p)
}

func (h *ClinicalHandler) AddItem(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req itemRequest
	if !bindJSON(c, &req) {
		return
	}
	in, ok := req.input(c, "")
	if !ok {
		return
	}

	item, err := h.svc.AddPrescriptionItem(c.Request.Context(), caller(c), id, in)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, item)
}

func (h *ClinicalHandler) Deactivate(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.DeactivatePrescription(c.Request.Context(), caller(c), id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, p)
}
