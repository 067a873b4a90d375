package agents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm(t *testing.T) {
	// Charminar to Secunderabad railway station, roughly 8.5 km apart.
	distance := haversineKm(17.3616, 78.4747, 17.4344, 78.5013)
	assert.InDelta(t, 8.5, distance, 1.0)
}

func TestHaversineKmSamePoint(t *testing.T) {
	assert.Equal(t, 0.0, haversineKm(17.36, 78.47, 17.36, 78.47))
}

func TestCheckPrescriptionAgeRecentDate(t *testing.T) {
	recent := time.Now().AddDate(0, 0, -5).Format("02/01/2006")
	assert.True(t, checkPrescriptionAge(recent, 30))
}

func TestCheckPrescriptionAgeExpiredDate(t *testing.T) {
	old := time.Now().AddDate(0, 0, -60).Format("02/01/2006")
	assert.False(t, checkPrescriptionAge(old, 30))

	oldISO := time.Now().AddDate(0, 0, -60).Format("2006-01-02")
	assert.False(t, checkPrescriptionAge(oldISO, 30))
}

func TestCheckPrescriptionAgeFutureDate(t *testing.T) {
	future := time.Now().AddDate(0, 0, 10).Format("02/01/2006")
	assert.False(t, checkPrescriptionAge(future, 30))
}

func TestCheckPrescriptionAgeUnparseableAllowed(t *testing.T) {
	assert.True(t, checkPrescriptionAge("sometime last week", 30))
}

func TestSortPharmacyResults(t *testing.T) {
	results := []PharmacyResult{
		{Name: "Far Partial", AllAvailable: false, AvailableCount: 1, DistanceKm: 8.0},
		{Name: "Near Full", AllAvailable: true, AvailableCount: 2, DistanceKm: 2.0},
		{Name: "Far Full", AllAvailable: true, AvailableCount: 2, DistanceKm: 6.0},
		{Name: "Near Partial", AllAvailable: false, AvailableCount: 1, DistanceKm: 1.0},
		{Name: "Near Empty", AllAvailable: false, AvailableCount: 0, DistanceKm: 0.5},
	}

	sortPharmacyResults(results)

	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"Near Full", "Far Full", "Near Partial", "Far Partial", "Near Empty"}, names)
}

func TestMissingMedicines(t *testing.T) {
	results := []PharmacyResult{
		{Medicines: []MedicineAvailability{
			{Name: "Paracetamol 500mg", InStock: true},
			{Name: "Azithromycin", InStock: false},
		}},
		{Medicines: []MedicineAvailability{
			{Name: "Paracetamol 500mg", InStock: true},
		}},
	}

	missing := missingMedicines([]string{"paracetamol", "azithromycin"}, results)
	assert.Equal(t, []string{"azithromycin"}, missing)
}

func TestMissingMedicinesAllFound(t *testing.T) {
	results := []PharmacyResult{
		{Medicines: []MedicineAvailability{{Name: "Cetirizine", InStock: true}}},
	}
	assert.Empty(t, missingMedicines([]string{"cetirizine"}, results))
}
