package models

// DoctorStatus represents a doctor's current duty status
type DoctorStatus string

const (
	DoctorAvailable      DoctorStatus = "available"
	DoctorOnBreak        DoctorStatus = "on_break"
	DoctorOffDuty        DoctorStatus = "off_duty"
	DoctorInConsultation DoctorStatus = "in_consultation"
)

// Doctor represents a doctor profile linked to a user and a department
type Doctor struct {
	BaseModel
	UserID              string       `gorm:"size:36;uniqueIndex" json:"userId"`
	DepartmentID        string       `gorm:"size:36;index" json:"departmentId"`
	Specialization      string       `gorm:"size:100" json:"specialization"`
	Qualification       string       `gorm:"size:200;default:'MBBS'" json:"qualification"`
	ExperienceYears     int          `gorm:"default:5" json:"experienceYears"`
	QueueLength         int          `gorm:"default:0" json:"queueLength"`
	Status              DoctorStatus `gorm:"size:20;default:'available'" json:"status"`
	ConsultationFee     int          `gorm:"default:0" json:"consultationFee"` // 0 for government hospitals
	AvgConsultationMins int          `gorm:"default:15" json:"avgConsultationMins"`

	// Relations
	User       User          `gorm:"foreignKey:UserID" json:"-"`
	Department Department    `gorm:"foreignKey:DepartmentID" json:"-"`
	Queue      []Appointment `gorm:"foreignKey:DoctorID" json:"-"`
}

// EstimatedWaitMins returns the queue-based wait estimate in minutes.
func (d *Doctor) EstimatedWaitMins() int {
	return d.QueueLength * d.AvgConsultationMins
}
