package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"melco-care-server/internal/models"
	"melco-care-server/internal/vlm"
)

// prescriptionMaxAgeDays is how old a prescription may be and still count as
// valid.
const prescriptionMaxAgeDays = 30

// MedicineAvailability is one requested medicine matched against a
// pharmacy's inventory.
type MedicineAvailability struct {
	Name                 string  `json:"name"`
	Salt                 string  `json:"salt,omitempty"`
	Price                float64 `json:"price,omitempty"`
	Stock                int     `json:"stock"`
	InStock              bool    `json:"inStock"`
	RequiresPrescription bool    `json:"requiresPrescription"`
}

// PharmacyResult is one pharmacy with availability for the requested
// medicines.
type PharmacyResult struct {
	PharmacyID     string                 `json:"pharmacyId"`
	Name           string                 `json:"name"`
	Address        string                 `json:"address"`
	Locality       string                 `json:"locality"`
	DistanceKm     float64                `json:"distanceKm"`
	OperatingHours string                 `json:"operatingHours"`
	Is24Hr         bool                   `json:"is24hr"`
	Phone          string                 `json:"phone,omitempty"`
	Medicines      []MedicineAvailability `json:"medicines"`
	AllAvailable   bool                   `json:"allAvailable"`
	AvailableCount int                    `json:"availableCount"`
}

// SearchResult aggregates pharmacies for a medicine search.
type SearchResult struct {
	Pharmacies       []PharmacyResult `json:"pharmacies"`
	AllFound         bool             `json:"allFound"`
	MissingMedicines []string         `json:"missingMedicines"`
	TotalSearched    int              `json:"totalPharmaciesSearched"`
}

// ValidationResult reports the outcome of prescription validation.
type ValidationResult struct {
	Valid          bool                  `json:"valid"`
	ExtractedData  *vlm.PrescriptionData `json:"extractedData,omitempty"`
	DoctorVerified bool                  `json:"doctorVerified"`
	DateValid      bool                  `json:"dateValid"`
	Error          string                `json:"error,omitempty"`
}

// PharmacyAgent handles prescription validation and medicine search.
type PharmacyAgent struct {
	DB  *gorm.DB
	VLM vlm.Service
}

// NewPharmacyAgent creates a PharmacyAgent.
func NewPharmacyAgent(db *gorm.DB, svc vlm.Service) *PharmacyAgent {
	return &PharmacyAgent{DB: db, VLM: svc}
}

// ValidatePrescription extracts prescription data from an image, verifies the
// doctor's registration number and the prescription date, and records the
// outcome.
func (p *PharmacyAgent) ValidatePrescription(ctx context.Context, imagePath, userID string) (*ValidationResult, error) {
	extracted, err := p.VLM.ExtractPrescription(ctx, imagePath)
	if err != nil || extracted == nil || len(extracted.Medicines) == 0 {
		return &ValidationResult{
			Valid: false,
			Error: "Could not extract prescription data. Please upload a clearer image.",
		}, nil
	}

	doctorVerified := false
	if extracted.RegNumber != "" {
		doctorVerified, err = p.verifyDoctorRegistration(extracted.RegNumber)
		if err != nil {
			return nil, err
		}
	}

	dateValid := true
	if extracted.Date != "" {
		dateValid = checkPrescriptionAge(extracted.Date, prescriptionMaxAgeDays)
	}

	valid := len(extracted.Medicines) > 0

	medicinesJSON, _ := json.Marshal(extracted.Medicines)
	regNumber := extracted.RegNumber
	if regNumber == "" {
		regNumber = "UNKNOWN"
	}
	record := models.PrescriptionRecord{
		UserID:             userID,
		DoctorRegNumber:    regNumber,
		ImagePath:          imagePath,
		ExtractedMedicines: string(medicinesJSON),
		IsValid:            valid && doctorVerified,
		ValidationNotes:    fmt.Sprintf("Doctor verified: %t, Date valid: %t", doctorVerified, dateValid),
		PrescriptionDate:   time.Now(),
	}
	if err := p.DB.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to record prescription: %w", err)
	}

	result := &ValidationResult{
		Valid:          valid,
		ExtractedData:  extracted,
		DoctorVerified: doctorVerified,
		DateValid:      dateValid,
	}
	if !valid {
		result.Error = "Prescription validation failed"
	}
	return result, nil
}

// verifyDoctorRegistration checks the registration number against verified
// doctor signatures.
func (p *PharmacyAgent) verifyDoctorRegistration(regNumber string) (bool, error) {
	var count int64
	err := p.DB.Model(&models.DoctorSignature{}).
		Where("medical_reg_number = ? AND is_verified = ?", regNumber, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to verify doctor registration: %w", err)
	}
	return count > 0, nil
}

// checkPrescriptionAge parses common date formats and checks the prescription
// is at most maxDays old. Unparseable dates are allowed through.
func checkPrescriptionAge(dateStr string, maxDays int) bool {
	formats := []string{"02/01/2006", "2006-01-02", "02-01-2006", "2 Jan 2006"}
	for _, format := range formats {
		rxDate, err := time.Parse(format, dateStr)
		if err != nil {
			continue
		}
		age := time.Since(rxDate)
		return age >= 0 && age <= time.Duration(maxDays)*24*time.Hour
	}
	return true
}

// SearchMedicines finds pharmacies in a city stocking the requested
// medicines within maxDistanceKm of the given point. Results are sorted
// best-stocked first, then nearest.
func (p *PharmacyAgent) SearchMedicines(medicineNames []string, userLat, userLon, maxDistanceKm float64, city string) (*SearchResult, error) {
	var pharmacies []models.Pharmacy
	err := p.DB.Where("city = ? AND is_active = ?", city, true).Find(&pharmacies).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query pharmacies: %w", err)
	}

	var results []PharmacyResult
	for _, pharmacy := range pharmacies {
		distance := haversineKm(userLat, userLon, pharmacy.Latitude, pharmacy.Longitude)
		if distance > maxDistanceKm {
			continue
		}

		medicines := make([]MedicineAvailability, 0, len(medicineNames))
		for _, name := range medicineNames {
			medicines = append(medicines, p.lookupMedicine(pharmacy.ID, name))
		}

		allAvailable := true
		availableCount := 0
		for _, m := range medicines {
			if m.InStock {
				availableCount++
			} else {
				allAvailable = false
			}
		}

		results = append(results, PharmacyResult{
			PharmacyID:     pharmacy.ID,
			Name:           pharmacy.Name,
			Address:        pharmacy.Address,
			Locality:       pharmacy.Locality,
			DistanceKm:     math.Round(distance*100) / 100,
			OperatingHours: pharmacy.OperatingHours,
			Is24Hr:         pharmacy.Is24Hr,
			Phone:          pharmacy.Phone,
			Medicines:      medicines,
			AllAvailable:   allAvailable,
			AvailableCount: availableCount,
		})
	}

	sortPharmacyResults(results)

	missing := missingMedicines(medicineNames, results)

	if len(results) > 10 {
		results = results[:10]
	}

	return &SearchResult{
		Pharmacies:       results,
		AllFound:         len(missing) == 0,
		MissingMedicines: missing,
		TotalSearched:    len(pharmacies),
	}, nil
}

// lookupMedicine matches a medicine by name first, then by salt composition.
func (p *PharmacyAgent) lookupMedicine(pharmacyID, name string) MedicineAvailability {
	pattern := "%" + strings.ToLower(name) + "%"

	var item models.InventoryItem
	err := p.DB.Where("pharmacy_id = ? AND LOWER(medicine_name) LIKE ?", pharmacyID, pattern).
		First(&item).Error
	if err == gorm.ErrRecordNotFound {
		err = p.DB.Where("pharmacy_id = ? AND LOWER(salt_composition) LIKE ?", pharmacyID, pattern).
			First(&item).Error
	}
	if err != nil {
		return MedicineAvailability{Name: name, RequiresPrescription: true}
	}

	return MedicineAvailability{
		Name:                 item.MedicineName,
		Salt:                 item.SaltComposition,
		Price:                math.Round(item.PriceINR*100) / 100,
		Stock:                item.StockCount,
		InStock:              item.StockCount > 0,
		RequiresPrescription: item.RequiresPrescription,
	}
}

// sortPharmacyResults orders by full availability, then partial availability,
// then distance.
func sortPharmacyResults(results []PharmacyResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.AllAvailable != b.AllAvailable {
			return a.AllAvailable
		}
		if a.AvailableCount != b.AvailableCount {
			return a.AvailableCount > b.AvailableCount
		}
		return a.DistanceKm < b.DistanceKm
	})
}

// missingMedicines lists requested medicines that no pharmacy has in stock.
func missingMedicines(requested []string, results []PharmacyResult) []string {
	var missing []string
	for _, name := range requested {
		found := false
		for _, r := range results {
			for _, m := range r.Medicines {
				if m.InStock && strings.Contains(strings.ToLower(m.Name), strings.ToLower(name)) {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			missing = append(missing, name)
		}
	}
	return missing
}

// haversineKm computes the great-circle distance between two coordinates.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// Recommendations formats a medicine search as human-readable text suitable
// for inclusion in an assistant reply.
func (p *PharmacyAgent) Recommendations(medicines []string, city string, userLat, userLon float64) (string, error) {
	result, err := p.SearchMedicines(medicines, userLat, userLon, 10.0, city)
	if err != nil {
		return "", err
	}

	if len(result.Pharmacies) == 0 {
		return "No pharmacies found in your area with the requested medicines.", nil
	}

	var b strings.Builder
	if result.AllFound {
		b.WriteString("All medicines are available!\n")
	} else {
		fmt.Fprintf(&b, "Some medicines may not be available: %s\n", strings.Join(result.MissingMedicines, ", "))
	}
	b.WriteString("\nRecommended Pharmacies:\n\n")

	for i, pharmacy := range result.Pharmacies {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&b, "%d. %s (%.2f km)\n", i+1, pharmacy.Name, pharmacy.DistanceKm)
		fmt.Fprintf(&b, "   Address: %s\n", pharmacy.Address)
		fmt.Fprintf(&b, "   Hours: %s\n", pharmacy.OperatingHours)
		if pharmacy.Phone != "" {
			fmt.Fprintf(&b, "   Phone: %s\n", pharmacy.Phone)
		}
		b.WriteString("   Medicines:\n")
		for _, med := range pharmacy.Medicines {
			status := "Out of Stock"
			if med.InStock {
				status = "In Stock"
			}
			price := "N/A"
			if med.Price > 0 {
				price = fmt.Sprintf("₹%.2f", med.Price)
			}
			fmt.Fprintf(&b, "      - %s: %s (%s)\n", med.Name, price, status)
		}
		b.WriteString("\n")
	}

	return b.String(), nil
}
