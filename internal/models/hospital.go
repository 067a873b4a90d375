package models

// DepartmentType enumerates the medical departments known to the assistant.
type DepartmentType string

const (
	DeptGeneralMedicine DepartmentType = "General Medicine"
	DeptPediatrics      DepartmentType = "Pediatrics"
	DeptDermatology     DepartmentType = "Dermatology"
	DeptGynecology      DepartmentType = "Gynecology"
	DeptOrthopedics     DepartmentType = "Orthopedics"
	DeptENT             DepartmentType = "ENT"
	DeptOphthalmology   DepartmentType = "Ophthalmology"
	DeptPsychiatry      DepartmentType = "Psychiatry"
	DeptCardiology      DepartmentType = "Cardiology"
	DeptPulmonology     DepartmentType = "Pulmonology"
	DeptDental          DepartmentType = "Dental"
	DeptRadiology       DepartmentType = "Radiology"
	DeptEmergency       DepartmentType = "Emergency"
	DeptHomeopathy      DepartmentType = "Homeopathy"
	DeptNeurology       DepartmentType = "Neurology"
)

// ParseDepartmentType maps a free-form department name from the model onto a
// known department, falling back to General Medicine.
func ParseDepartmentType(name string) DepartmentType {
	switch DepartmentType(name) {
	case DeptGeneralMedicine, DeptPediatrics, DeptDermatology, DeptGynecology,
		DeptOrthopedics, DeptENT, DeptOphthalmology, DeptPsychiatry,
		DeptCardiology, DeptPulmonology, DeptDental, DeptRadiology,
		DeptEmergency, DeptHomeopathy, DeptNeurology:
		return DepartmentType(name)
	default:
		return DeptGeneralMedicine
	}
}

// Hospital represents a hospital with location and capacity info
type Hospital struct {
	BaseModel
	Name         string  `gorm:"size:200;not null" json:"name"`
	City         string  `gorm:"size:50;index" json:"city"`
	State        string  `gorm:"size:50;default:'Telangana'" json:"state"`
	Locality     string  `gorm:"size:100" json:"locality"`
	Address      string  `gorm:"size:300" json:"address,omitempty"`
	Pincode      string  `gorm:"size:10" json:"pincode,omitempty"`
	Phone        string  `gorm:"size:15" json:"phone,omitempty"`
	TotalBeds    int     `gorm:"default:100" json:"totalBeds"`
	OccupiedBeds int     `gorm:"default:0" json:"occupiedBeds"`
	IsGovernment bool    `gorm:"default:true" json:"isGovernment"`
	Latitude     float64 `json:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty"`

	// Relations
	Departments []Department `gorm:"foreignKey:HospitalID" json:"departments,omitempty"`
}

// AvailableBeds returns the number of free beds.
func (h *Hospital) AvailableBeds() int {
	return h.TotalBeds - h.OccupiedBeds
}

// Department represents a department within a hospital
type Department struct {
	BaseModel
	HospitalID  string         `gorm:"size:36;index" json:"hospitalId"`
	Name        DepartmentType `gorm:"size:50;index" json:"name"`
	IsEmergency bool           `gorm:"default:false" json:"isEmergency"`
	Floor       int            `json:"floor,omitempty"`
	RoomCount   int            `gorm:"default:5" json:"roomCount"`
	IsActive    bool           `gorm:"default:true" json:"isActive"`

	// Relations
	Hospital Hospital `gorm:"foreignKey:HospitalID" json:"-"`
	Doctors  []Doctor `gorm:"foreignKey:DepartmentID" json:"-"`
}
