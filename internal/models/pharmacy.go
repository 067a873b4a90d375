package models

import (
	"time"
)

// MedicineCategory classifies inventory items
type MedicineCategory string

const (
	MedicineTablet     MedicineCategory = "tablet"
	MedicineSyrup      MedicineCategory = "syrup"
	MedicineInjection  MedicineCategory = "injection"
	MedicineOintment   MedicineCategory = "ointment"
	MedicineDrops      MedicineCategory = "drops"
	MedicineSupplement MedicineCategory = "supplement"
)

// Pharmacy represents a medicine outlet, optionally attached to a hospital
type Pharmacy struct {
	BaseModel
	Name           string  `gorm:"size:200;not null" json:"name"`
	HospitalID     string  `gorm:"size:36;index" json:"hospitalId,omitempty"`
	City           string  `gorm:"size:50;index" json:"city"`
	Locality       string  `gorm:"size:100" json:"locality"`
	Address        string  `gorm:"size:300" json:"address"`
	Phone          string  `gorm:"size:15" json:"phone,omitempty"`
	OperatingHours string  `gorm:"size:50" json:"operatingHours"`
	Is24Hr         bool    `gorm:"default:false" json:"is24hr"`
	IsActive       bool    `gorm:"default:true" json:"isActive"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`

	// Relations
	Inventory []InventoryItem `gorm:"foreignKey:PharmacyID" json:"-"`
}

// InventoryItem is one medicine stocked by a pharmacy
type InventoryItem struct {
	BaseModel
	PharmacyID           string           `gorm:"size:36;index" json:"pharmacyId"`
	MedicineName         string           `gorm:"size:200;index" json:"medicineName"`
	SaltComposition      string           `gorm:"size:300" json:"saltComposition,omitempty"`
	Category             MedicineCategory `gorm:"size:20" json:"category"`
	StockCount           int              `gorm:"default:0" json:"stockCount"`
	PriceINR             float64          `json:"priceInr"`
	RequiresPrescription bool             `gorm:"default:true" json:"requiresPrescription"`

	// Relations
	Pharmacy Pharmacy `gorm:"foreignKey:PharmacyID" json:"-"`
}

// DoctorSignature holds a verifiable medical registration number
type DoctorSignature struct {
	BaseModel
	DoctorID         string `gorm:"size:36;index" json:"doctorId"`
	MedicalRegNumber string `gorm:"size:50;uniqueIndex" json:"medicalRegNumber"`
	IsVerified       bool   `gorm:"default:false" json:"isVerified"`

	// Relations
	Doctor Doctor `gorm:"foreignKey:DoctorID" json:"-"`
}

// PrescriptionRecord stores the outcome of a prescription validation
type PrescriptionRecord struct {
	BaseModel
	UserID             string    `gorm:"size:36;index" json:"userId"`
	DoctorRegNumber    string    `gorm:"size:50" json:"doctorRegNumber"`
	ImagePath          string    `gorm:"size:300" json:"imagePath"`
	ExtractedMedicines string    `gorm:"type:text" json:"extractedMedicines"` // JSON array
	IsValid            bool      `gorm:"default:false" json:"isValid"`
	ValidationNotes    string    `gorm:"size:500" json:"validationNotes,omitempty"`
	PrescriptionDate   time.Time `json:"prescriptionDate"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}
