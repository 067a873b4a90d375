package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"melco-care-server/internal/cache"
	"melco-care-server/internal/models"
)

// symptomDepartmentMap maps symptom keywords (English and Hinglish) to
// departments for the keyword fallback when the model gives no suggestion.
var symptomDepartmentMap = map[string]models.DepartmentType{
	// General Medicine
	"fever":    models.DeptGeneralMedicine,
	"bukhar":   models.DeptGeneralMedicine,
	"cold":     models.DeptGeneralMedicine,
	"cough":    models.DeptGeneralMedicine,
	"weakness": models.DeptGeneralMedicine,
	"fatigue":  models.DeptGeneralMedicine,
	"stomach":  models.DeptGeneralMedicine,
	"pet":      models.DeptGeneralMedicine,
	"vomit":    models.DeptGeneralMedicine,
	"diarrhea": models.DeptGeneralMedicine,

	// Dermatology
	"skin":    models.DeptDermatology,
	"rash":    models.DeptDermatology,
	"itching": models.DeptDermatology,
	"khujli":  models.DeptDermatology,
	"allergy": models.DeptDermatology,

	// ENT
	"ear":    models.DeptENT,
	"kaan":   models.DeptENT,
	"throat": models.DeptENT,
	"gala":   models.DeptENT,
	"nose":   models.DeptENT,
	"naak":   models.DeptENT,

	// Ophthalmology
	"eye":    models.DeptOphthalmology,
	"aankh":  models.DeptOphthalmology,
	"vision": models.DeptOphthalmology,

	// Orthopedics
	"joint":     models.DeptOrthopedics,
	"bone":      models.DeptOrthopedics,
	"knee":      models.DeptOrthopedics,
	"back pain": models.DeptOrthopedics,
	"kamar":     models.DeptOrthopedics,

	// Pediatrics
	"baby":   models.DeptPediatrics,
	"child":  models.DeptPediatrics,
	"baccha": models.DeptPediatrics,

	// Gynecology
	"periods":   models.DeptGynecology,
	"pregnancy": models.DeptGynecology,
	"menstrual": models.DeptGynecology,

	// Psychiatry
	"anxiety":    models.DeptPsychiatry,
	"depression": models.DeptPsychiatry,
	"stress":     models.DeptPsychiatry,
	"sleep":      models.DeptPsychiatry,
	"neend":      models.DeptPsychiatry,

	// Cardiology
	"heart":      models.DeptCardiology,
	"chest pain": models.DeptCardiology,
	"dil":        models.DeptCardiology,
	"breathless": models.DeptCardiology,

	// Dental
	"tooth": models.DeptDental,
	"teeth": models.DeptDental,
	"daant": models.DeptDental,
	"gums":  models.DeptDental,

	// Emergency
	"accident":    models.DeptEmergency,
	"bleeding":    models.DeptEmergency,
	"unconscious": models.DeptEmergency,
	"severe":      models.DeptEmergency,
}

// InferDepartment performs keyword-based department inference over the raw
// symptom text. The second return is false when no keyword matches.
func InferDepartment(symptoms string) (models.DepartmentType, bool) {
	lower := strings.ToLower(symptoms)
	for keyword, dept := range symptomDepartmentMap {
		if strings.Contains(lower, keyword) {
			return dept, true
		}
	}
	return models.DeptGeneralMedicine, false
}

// DoctorOption is one bookable doctor presented to the patient.
type DoctorOption struct {
	DoctorID          string `json:"doctorId"`
	DoctorName        string `json:"doctorName"`
	Specialization    string `json:"specialization"`
	HospitalName      string `json:"hospitalName"`
	HospitalLocality  string `json:"hospitalLocality"`
	QueueLength       int    `json:"queueLength"`
	EstimatedWaitMins int    `json:"estimatedWaitMins"`
	ConsultationFee   string `json:"consultationFee"`
	IsGovernment      bool   `json:"isGovernment"`
}

// HospitalSummary is the per-hospital slice of the hospital-info context.
type HospitalSummary struct {
	HospitalID    string   `json:"hospitalId"`
	Name          string   `json:"name"`
	Locality      string   `json:"locality"`
	TotalBeds     int      `json:"totalBeds"`
	AvailableBeds int      `json:"availableBeds"`
	IsGovernment  bool     `json:"isGovernment"`
	Departments   []string `json:"departments"`
}

// HospitalInfo aggregates hospitals for a city.
type HospitalInfo struct {
	City      string            `json:"city"`
	Hospitals []HospitalSummary `json:"hospitals"`
	Total     int               `json:"total"`
}

// ContextBuilder assembles database context for model prompts.
type ContextBuilder struct {
	DB    *gorm.DB
	Cache *cache.Cache
}

// NewContextBuilder creates a ContextBuilder. Cache may be nil.
func NewContextBuilder(db *gorm.DB, c *cache.Cache) *ContextBuilder {
	return &ContextBuilder{DB: db, Cache: c}
}

// AvailableDoctors returns bookable doctors for a department in a city,
// shortest queue first.
func (b *ContextBuilder) AvailableDoctors(city string, dept models.DepartmentType) ([]DoctorOption, error) {
	var doctors []models.Doctor
	err := b.DB.
		Joins("JOIN departments ON departments.id = doctors.department_id").
		Joins("JOIN hospitals ON hospitals.id = departments.hospital_id").
		Where("hospitals.city = ? AND departments.name = ? AND departments.is_active = ?", city, dept, true).
		Where("doctors.status IN ?", []models.DoctorStatus{models.DoctorAvailable, models.DoctorInConsultation}).
		Order("doctors.queue_length asc").
		Preload("User").
		Preload("Department.Hospital").
		Find(&doctors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query available doctors: %w", err)
	}

	options := make([]DoctorOption, 0, len(doctors))
	for _, doc := range doctors {
		hospital := doc.Department.Hospital
		fee := fmt.Sprintf("₹%d", doc.ConsultationFee)
		if hospital.IsGovernment {
			fee = "Free (Government Hospital)"
		}
		options = append(options, DoctorOption{
			DoctorID:          doc.ID,
			DoctorName:        doc.User.Name,
			Specialization:    doc.Specialization,
			HospitalName:      hospital.Name,
			HospitalLocality:  hospital.Locality,
			QueueLength:       doc.QueueLength,
			EstimatedWaitMins: doc.EstimatedWaitMins(),
			ConsultationFee:   fee,
			IsGovernment:      hospital.IsGovernment,
		})
	}
	return options, nil
}

// HospitalInfoContext returns hospitals with department names for a city.
// Results are cached for a short TTL since admins update beds infrequently.
func (b *ContextBuilder) HospitalInfoContext(ctx context.Context, city string) (*HospitalInfo, error) {
	cacheKey := "hospital_info:" + city

	var cached HospitalInfo
	if b.Cache.GetJSON(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	var hospitals []models.Hospital
	if err := b.DB.Where("city = ?", city).Preload("Departments").Find(&hospitals).Error; err != nil {
		return nil, fmt.Errorf("failed to query hospitals: %w", err)
	}

	info := &HospitalInfo{City: city, Total: len(hospitals)}
	for _, h := range hospitals {
		summary := HospitalSummary{
			HospitalID:    h.ID,
			Name:          h.Name,
			Locality:      h.Locality,
			TotalBeds:     h.TotalBeds,
			AvailableBeds: h.AvailableBeds(),
			IsGovernment:  h.IsGovernment,
		}
		for i, d := range h.Departments {
			if i >= 8 { // keep the prompt context small
				break
			}
			summary.Departments = append(summary.Departments, string(d.Name))
		}
		info.Hospitals = append(info.Hospitals, summary)
	}

	b.Cache.SetJSON(ctx, cacheKey, info, 5*time.Minute)
	return info, nil
}

// InvalidateHospitalInfo drops the cached context for a city after admin
// updates.
func (b *ContextBuilder) InvalidateHospitalInfo(ctx context.Context, city string) {
	b.Cache.Invalidate(ctx, "hospital_info:"+city)
}

// FormatDoctorOptions renders doctor options as prompt context.
func FormatDoctorOptions(dept models.DepartmentType, priority string, options []DoctorOption) string {
	if len(options) == 0 {
		return "No doctors currently available. Please try again later or visit the hospital directly."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Suggested Department: %s\n", dept)
	fmt.Fprintf(&b, "Priority: %s\n\n", priority)
	b.WriteString("Available Doctors:\n")

	for i, opt := range options {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, opt.DoctorName, opt.Specialization)
		fmt.Fprintf(&b, "   Hospital: %s, %s\n", opt.HospitalName, opt.HospitalLocality)
		fmt.Fprintf(&b, "   Wait Time: ~%d mins (%d patients)\n", opt.EstimatedWaitMins, opt.QueueLength)
		fmt.Fprintf(&b, "   Fee: %s\n\n", opt.ConsultationFee)
	}
	return b.String()
}

// FormatHospitalInfo renders the hospital-info context for the reply prompt.
func FormatHospitalInfo(info *HospitalInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d hospitals:\n", len(info.Hospitals))
	for i, h := range info.Hospitals {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "- %s (%s): %d beds available\n", h.Name, h.Locality, h.AvailableBeds)
	}
	return b.String()
}
