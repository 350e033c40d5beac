// Package file provides the JSON-backed demo patient repository.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"ng12-assistant-be/internal/apperr"
	"ng12-assistant-be/pkg/store"
)

type PatientRepository struct {
	path string

	once     sync.Once
	loadErr  error
	patients map[string]store.Patient
}

func NewPatientRepository(path string) *PatientRepository {
	return &PatientRepository{
		path: path,
	}
}

func (r *PatientRepository) load() {
	r.patients = map[string]store.Patient{}

	raw, err := os.ReadFile(r.path)
	if err != nil {
		r.loadErr = fmt.Errorf("read patients file: %w", err)
		return
	}

	var records []store.Patient
	if err := json.Unmarshal(raw, &records); err != nil {
		r.loadErr = fmt.Errorf("parse patients file: %w", err)
		return
	}

	for _, p := range records {
		r.patients[p.PatientID] = p
	}
}

// Get looks up a patient record by ID.
func (r *PatientRepository) Get(patientID string) (*store.Patient, error) {
	r.once.Do(r.load)
	if r.loadErr != nil {
		return nil, r.loadErr
	}

	p, ok := r.patients[patientID]
	if !ok {
		return nil, fmt.Errorf("patient %s: %w", patientID, apperr.ErrNotFound)
	}
	return &p, nil
}

// List returns all patient records ordered by ID.
func (r *PatientRepository) List() ([]store.Patient, error) {
	r.once.Do(r.load)
	if r.loadErr != nil {
		return nil, r.loadErr
	}

	patients := make([]store.Patient, 0, len(r.patients))
	for _, p := range r.patients {
		patients = append(patients, p)
	}
	sort.Slice(patients, func(i, j int) bool {
		return patients[i].PatientID < patients[j].PatientID
	})
	return patients, nil
}
