package profile

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
)

type BloodGroup string

const (
	BloodGroupAPos  BloodGroup = "A+"
	BloodGroupANeg  BloodGroup = "A-"
	BloodGroupBPos  BloodGroup = "B+"
	BloodGroupBNeg  BloodGroup = "B-"
	BloodGroupABPos BloodGroup = "AB+"
	BloodGroupABNeg BloodGroup = "AB-"
	BloodGroupOPos  BloodGroup = "O+"
	BloodGroupONeg  BloodGroup = "O-"
)

// IsValid accepts the empty value; blood group is optional.
func (b BloodGroup) IsValid() bool {
	switch b {
	case "", BloodGroupAPos, BloodGroupANeg, BloodGroupBPos, BloodGroupBNeg,
		BloodGroupABPos, BloodGroupABNeg, BloodGroupOPos, BloodGroupONeg:
		return true
	}
	return false
}

type EmergencyContact struct {
	Name         string `gorm:"column:emergency_contact_name;type:varchar(100)" json:"name,omitempty"`
	Phone        string `gorm:"column:emergency_contact_phone;type:varchar(20)" json:"phone,omitempty"`
	Relationship string `gorm:"column:emergency_contact_relationship;type:varchar(50)" json:"relationship,omitempty"`
}

// PatientProfile shares its primary key with the owning user.
type PatientProfile struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	DateOfBirth       *datatypes.Date `gorm:"column:date_of_birth" json:"date_of_birth,omitempty"`
	BloodGroup        BloodGroup      `gorm:"column:blood_group;type:varchar(10);index" json:"blood_group,omitempty"`
	Allergies         string          `gorm:"column:allergies;type:text" json:"allergies,omitempty"`
	MedicalConditions string          `gorm:"column:medical_conditions;type:text" json:"medical_conditions,omitempty"`

	EmergencyContact EmergencyContact `gorm:"embedded" json:"emergency_contact"`

	User *domain.User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (PatientProfile) TableName() string {
	return "patient_profiles"
}

// DoctorProfile shares its primary key with the owning user.
type DoctorProfile struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Specialization string `gorm:"column:specialization;type:varchar(100);index" json:"specialization,omitempty"`
	// Nil when unknown; uniqueness only applies to present values.
	LicenseNumber      *string  `gorm:"column:medical_license_number;type:varchar(50);uniqueIndex" json:"license_number,omitempty"`
	ClinicHospitalName string   `gorm:"column:clinic_hospital_name;type:varchar(200)" json:"clinic_hospital_name,omitempty"`
	YearsOfExperience  *int     `gorm:"column:years_of_experience" json:"years_of_experience,omitempty"`
	ConsultationFee    *float64 `gorm:"column:consultation_fee;type:decimal(10,2)" json:"consultation_fee,omitempty"`
	IsVerified         bool     `gorm:"column:is_verified;default:false;index" json:"is_verified"`

	User *domain.User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (DoctorProfile) TableName() string {
	return "doctor_profiles"
}

// ProfileRoleFor returns the only role allowed to own a profile of the
// given kind.
func ProfileRoleFor(v any) domain.Role {
	switch v.(type) {
	case *PatientProfile, PatientProfile:
		return domain.RolePatient
	case *DoctorProfile, DoctorProfile:
		return domain.RoleDoctor
	}
	return ""
}

// CheckOwner rejects attaching a profile to a user whose role differs.
func CheckOwner(user *domain.User, p any) error {
	if ProfileRoleFor(p) != user.Role {
		return ErrRoleMismatch
	}
	return nil
}

type CreatePatientCommand struct {
	UserID            uuid.UUID
	DateOfBirth       *time.Time
	BloodGroup        BloodGroup
	Allergies         string
	MedicalConditions string
	EmergencyContact  EmergencyContact
}

type CreateDoctorCommand struct {
	UserID             uuid.UUID
	Specialization     string
	LicenseNumber      string
	ClinicHospitalName string
	YearsOfExperience  *int
	ConsultationFee    *float64
}

type ListDoctorsQuery struct {
	Specialization string
	VerifiedOnly   bool
	domain.Page
}

type PagedDoctors struct {
	Doctors    []*DoctorProfile
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
