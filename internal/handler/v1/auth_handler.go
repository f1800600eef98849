package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/profile"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/service"
)

type AuthHandler struct {
	auth     *service.AuthService
	profiles *service.ProfileService
	log      *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, profiles *service.ProfileService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, profiles: profiles, log: log}
}

// RegisterPublicRoutes mounts the unauthenticated endpoints.
func (h *AuthHandler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/register", h.Register)
	rg.POST("/auth/login", h.Login)
	rg.POST("/auth/refresh", h.Refresh)
}

func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, admin gin.HandlerFunc) {
	rg.GET("/me", h.Me)
	rg.POST("/auth/password", h.ChangePassword)
	rg.POST("/auth/mfa/enroll", h.EnrollMFA)
	rg.POST("/auth/mfa/confirm", h.ConfirmMFA)
	rg.DELETE("/auth/account", h.DeleteAccount)
	rg.DELETE("/users/:id", admin, h.DeleteUser)
}

type emergencyContactRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

type patientProfileRequest struct {
	DateOfBirth       string                  `json:"date_of_birth"`
	BloodGroup        string                  `json:"blood_group"`
	Allergies         string                  `json:"allergies"`
	MedicalConditions string                  `json:"medical_conditions"`
	EmergencyContact  emergencyContactRequest `json:"emergency_contact"`
}

// command returns false after writing a 400 response.
func (r *patientProfileRequest) command(c *gin.Context) (*profile.CreatePatientCommand, bool) {
	dob, ok := parseDate(c, "date_of_birth", r.DateOfBirth)
	if !ok {
		return nil, false
	}
	return &profile.CreatePatientCommand{
		DateOfBirth:       dob,
		BloodGroup:        profile.BloodGroup(strings.TrimSpace(r.BloodGroup)),
		Allergies:         r.Allergies,
		MedicalConditions: r.MedicalConditions,
		EmergencyContact: profile.EmergencyContact{
			Name:         r.EmergencyContact.Name,
			Phone:        r.EmergencyContact.Phone,
			Relationship: r.EmergencyContact.Relationship,
		},
	}, true
}

type doctorProfileRequest struct {
	Specialization     string   `json:"specialization"`
	LicenseNumber      string   `json:"license_number"`
	ClinicHospitalName string   `json:"clinic_hospital_name"`
	YearsOfExperience  *int     `json:"years_of_experience"`
	ConsultationFee    *float64 `json:"consultation_fee"`
}

func (r *doctorProfileRequest) command() *profile.CreateDoctorCommand {
	return &profile.CreateDoctorCommand{
		Specialization:     r.Specialization,
		LicenseNumber:      r.LicenseNumber,
		ClinicHospitalName: r.ClinicHospitalName,
		YearsOfExperience:  r.YearsOfExperience,
		ConsultationFee:    r.ConsultationFee,
	}
}

type registerRequest struct {
	Email          string                 `json:"email" binding:"required"`
	Username       string                 `json:"username"`
	Password       string                 `json:"password" binding:"required"`
	FirstName      string                 `json:"first_name"`
	LastName       string                 `json:"last_name"`
	Role           domain.Role            `json:"role" binding:"required"`
	PhoneNumber    string                 `json:"phone_number"`
	PatientProfile *patientProfileRequest `json:"patient_profile"`
	DoctorProfile  *doctorProfileRequest  `json:"doctor_profile"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &service.RegisterCommand{
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Role:        req.Role,
		PhoneNumber: req.PhoneNumber,
	}
	if req.PatientProfile != nil {
		p, ok := req.PatientProfile.command(c)
		if !ok {
			return
		}
		cmd.Patient = p
	}
	if req.DoctorProfile != nil {
		cmd.Doctor = req.DoctorProfile.command()
	}

	user, err := h.auth.Register(c.Request.Context(), cmd)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	OTP      string `json:"otp"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	tokens, err := h.auth.Login(c.Request.Context(), &service.LoginCommand{
		Email:    req.Email,
		Password: req.Password,
		OTP:      req.OTP,
		IP:       c.ClientIP(),
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, tokens)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	tokens, err := h.auth.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, tokens)
}

func (h *AuthHandler) Me(c *gin.Context) {
	me, err := h.profiles.Me(c.Request.Context(), caller(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, me)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), caller(c).UserID, req.CurrentPassword, req.NewPassword); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) EnrollMFA(c *gin.Context) {
	enrollment, err := h.auth.EnrollMFA(c.Request.Context(), caller(c).UserID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, enrollment)
}

type confirmMFARequest struct {
	Code string `json:"code" binding:"required"`
}

func (h *AuthHandler) ConfirmMFA(c *gin.Context) {
	var req confirmMFARequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.auth.ConfirmMFA(c.Request.Context(), caller(c).UserID, req.Code); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type deleteAccountRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	var req deleteAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.auth.DeleteAccount(c.Request.Context(), caller(c), req.Password); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) DeleteUser(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.auth.DeleteUser(c.Request.Context(), caller(c), id); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
