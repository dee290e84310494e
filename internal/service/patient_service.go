package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"hospital-api/internal/model"
	"hospital-api/pkg/apierror"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

type PatientStore interface {
	Create(ctx context.Context, p model.Patient) error
	FindByID(ctx context.Context, id string) (model.Patient, error)
	Update(ctx context.Context, p model.Patient) error
	SetStatus(ctx context.Context, id string, status model.PatientStatus) error
	List(ctx context.Context, filter model.PatientFilter) ([]model.Patient, int, error)
	CountByCodePrefix(ctx context.Context, prefix string) (int, error)
	Stats(ctx context.Context) (model.PatientStats, error)
}

type PatientCollector interface {
	RecordPatientCreated()
}

type noopPatientCollector struct{}

func (noopPatientCollector) RecordPatientCreated() {}

type PatientService struct {
	patients PatientStore
	metrics  PatientCollector
}

func NewPatientService(patients PatientStore, metrics PatientCollector) *PatientService {
	if metrics == nil {
		metrics = noopPatientCollector{}
	}
	return &PatientService{patients: patients, metrics: metrics}
}

func validateDemographics(firstName string, lastName string, age int, gender model.Gender) error {
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return apierror.BadRequest("first name and last name are required", "")
	}
	if age < 0 || age > 150 {
		return apierror.BadRequest("age must be between 0 and 150", "age")
	}
	if !gender.Valid() {
		return apierror.BadRequest("gender must be male, female or other", "gender")
	}
	return nil
}

func (s *PatientService) Create(ctx context.Context, req model.CreatePatientRequest, createdBy string) (model.Patient, error) {
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	gender := model.Gender(strings.ToLower(strings.TrimSpace(req.Gender)))

	if err := validateDemographics(firstName, lastName, req.Age, gender); err != nil {
		return model.Patient{}, err
	}

	status := model.PatientActive
	if strings.TrimSpace(req.Status) != "" {
		status = model.PatientStatus(strings.ToLower(strings.TrimSpace(req.Status)))
		if !status.Valid() {
			return model.Patient{}, apierror.BadRequest("invalid status", req.Status)
		}
	}
	if req.BloodGroup != nil && !model.ValidBloodGroup(*req.BloodGroup) {
		return model.Patient{}, apierror.BadRequest("invalid blood group", *req.BloodGroup)
	}

	code, err := s.nextPatientCode(ctx)
	if err != nil {
		return model.Patient{}, err
	}

	now := time.Now().UTC()
	patient := model.Patient{
		ID:                 uuid.NewString(),
		PatientCode:        code,
		FirstName:          firstName,
		LastName:           lastName,
		FullName:           firstName + " " + lastName,
		Age:                req.Age,
		Gender:             gender,
		DateOfBirth:        req.DateOfBirth,
		Phone:              req.Phone,
		Email:              req.Email,
		Address:            req.Address,
		EmergencyContact:   req.EmergencyContact,
		MedicalHistory:     req.MedicalHistory,
		BloodGroup:         req.BloodGroup,
		Allergies:          req.Allergies,
		CurrentMedications: req.CurrentMedications,
		Notes:              req.Notes,
		Status:             status,
		CreatedBy:          &createdBy,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if patient.MedicalHistory == nil {
		patient.MedicalHistory = []model.MedicalHistoryEntry{}
	}
	if patient.Allergies == nil {
		patient.Allergies = []string{}
	}
	if patient.CurrentMedications == nil {
		patient.CurrentMedications = []string{}
	}

	if err := s.patients.Create(ctx, patient); err != nil {
		return model.Patient{}, err
	}

	s.metrics.RecordPatientCreated()
	return patient, nil
}

// nextPatientCode derives PAT-<year>-NNNNN from the per-year count. Under a
// concurrent insert race the unique index on patient_code rejects the loser.
func (s *PatientService) nextPatientCode(ctx context.Context) (string, error) {
	prefix := fmt.Sprintf("PAT-%d-", time.Now().UTC().Year())
	count, err := s.patients.CountByCodePrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

func (s *PatientService) List(ctx context.Context, filter model.PatientFilter) ([]model.Patient, *model.Meta, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, apierror.BadRequest("invalid status filter", string(filter.Status))
	}

	patients, total, err := s.patients.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}

	meta := &model.Meta{
		Page:       filter.Page,
		Limit:      filter.Limit,
		Total:      total,
		TotalPages: (total + filter.Limit - 1) / filter.Limit,
	}
	return patients, meta, nil
}

func (s *PatientService) Get(ctx context.Context, id string) (model.Patient, error) {
	return s.patients.FindByID(ctx, id)
}

func (s *PatientService) Update(ctx context.Context, id string, req model.UpdatePatientRequest) (model.Patient, error) {
	patient, err := s.patients.FindByID(ctx, id)
	if err != nil {
		return model.Patient{}, err
	}

	if req.FirstName != nil {
		patient.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		patient.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Age != nil {
		patient.Age = *req.Age
	}
	if req.Gender != nil {
		patient.Gender = model.Gender(strings.ToLower(strings.TrimSpace(*req.Gender)))
	}
	if err := validateDemographics(patient.FirstName, patient.LastName, patient.Age, patient.Gender); err != nil {
		return model.Patient{}, err
	}
	patient.FullName = patient.FirstName + " " + patient.LastName

	if req.DateOfBirth != nil {
		patient.DateOfBirth = req.DateOfBirth
	}
	if req.Phone != nil {
		patient.Phone = req.Phone
	}
	if req.Email != nil {
		patient.Email = req.Email
	}
	if req.Address != nil {
		patient.Address = *req.Address
	}
	if req.EmergencyContact != nil {
		patient.EmergencyContact = *req.EmergencyContact
	}
	if req.MedicalHistory != nil {
		patient.MedicalHistory = req.MedicalHistory
	}
	if req.BloodGroup != nil {
		if !model.ValidBloodGroup(*req.BloodGroup) {
			return model.Patient{}, apierror.BadRequest("invalid blood group", *req.BloodGroup)
		}
		patient.BloodGroup = req.BloodGroup
	}
	if req.Allergies != nil {
		patient.Allergies = req.Allergies
	}
	if req.CurrentMedications != nil {
		patient.CurrentMedications = req.CurrentMedications
	}
	if req.Notes != nil {
		patient.Notes = req.Notes
	}
	if req.Status != nil {
		status := model.PatientStatus(strings.ToLower(strings.TrimSpace(*req.Status)))
		if !status.Valid() {
			return model.Patient{}, apierror.BadRequest("invalid status", *req.Status)
		}
		patient.Status = status
	}

	patient.UpdatedAt = time.Now().UTC()

	if err := s.patients.Update(ctx, patient); err != nil {
		return model.Patient{}, err
	}
	return patient, nil
}

// Delete is a soft delete; the record is kept and marked inactive.
func (s *PatientService) Delete(ctx context.Context, id string) error {
	return s.patients.SetStatus(ctx, id, model.PatientInactive)
}

func (s *PatientService) Stats(ctx context.Context) (model.PatientStats, error) {
	return s.patients.Stats(ctx)
}
