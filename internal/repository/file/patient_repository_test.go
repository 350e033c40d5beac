package file

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ng12-assistant-be/internal/apperr"
)

const samplePatients = `[
  {
    "patient_id": "PT-101",
    "name": "Arthur Benson",
    "age": 55,
    "gender": "Male",
    "smoking_history": "Current Smoker",
    "symptoms": ["Haemoptysis", "Unexplained weight loss"],
    "symptom_duration_days": 21
  },
  {
    "patient_id": "PT-102",
    "name": "Mary Collins",
    "age": 62,
    "gender": "Female",
    "smoking_history": "Never Smoked",
    "symptoms": ["Visible haematuria"],
    "symptom_duration_days": 7
  }
]`

func writePatientsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patients.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestGet(t *testing.T) {
	repo := NewPatientRepository(writePatientsFile(t, samplePatients))

	p, err := repo.Get("PT-101")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Name != "Arthur Benson" || p.Age != 55 {
		t.Errorf("unexpected patient: %+v", p)
	}
	if len(p.Symptoms) != 2 {
		t.Errorf("symptoms = %v, want 2 entries", p.Symptoms)
	}
}

func TestGetNotFound(t *testing.T) {
	repo := NewPatientRepository(writePatientsFile(t, samplePatients))

	_, err := repo.Get("PT-999")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListSorted(t *testing.T) {
	repo := NewPatientRepository(writePatientsFile(t, samplePatients))

	patients, err := repo.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(patients) != 2 {
		t.Fatalf("len = %d, want 2", len(patients))
	}
	if patients[0].PatientID != "PT-101" || patients[1].PatientID != "PT-102" {
		t.Errorf("unexpected order: %s, %s", patients[0].PatientID, patients[1].PatientID)
	}
}

func TestMissingFile(t *testing.T) {
	repo := NewPatientRepository(filepath.Join(t.TempDir(), "nope.json"))

	if _, err := repo.List(); err == nil {
		t.Fatal("expected error for missing file")
	}
}
