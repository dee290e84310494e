package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hospital-api/internal/model"
)

type mockPatientStore struct {
	mock.Mock
}

func (m *mockPatientStore) Create(ctx context.Context, p model.Patient) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockPatientStore) FindByID(ctx context.Context, id string) (model.Patient, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Patient), args.Error(1)
}

func (m *mockPatientStore) Update(ctx context.Context, p model.Patient) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockPatientStore) SetStatus(ctx context.Context, id string, status model.PatientStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockPatientStore) List(ctx context.Context, filter model.PatientFilter) ([]model.Patient, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]model.Patient), args.Int(1), args.Error(2)
}

func (m *mockPatientStore) CountByCodePrefix(ctx context.Context, prefix string) (int, error) {
	args := m.Called(ctx, prefix)
	return args.Int(0), args.Error(1)
}

func (m *mockPatientStore) Stats(ctx context.Context) (model.PatientStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.PatientStats), args.Error(1)
}

func TestPatientCreate(t *testing.T) {
	prefix := fmt.Sprintf("PAT-%d-", time.Now().UTC().Year())

	store := new(mockPatientStore)
	store.On("CountByCodePrefix", mock.Anything, prefix).Return(41, nil)

	var created model.Patient
	store.On("Create", mock.Anything, mock.AnythingOfType("model.Patient")).
		Run(func(args mock.Arguments) { created = args.Get(1).(model.Patient) }).
		Return(nil)

	svc := NewPatientService(store, nil)
	patient, err := svc.Create(context.Background(), model.CreatePatientRequest{
		FirstName: " Jane ",
		LastName:  "Roe",
		Age:       34,
		Gender:    "Female",
	}, "creator-id")

	require.NoError(t, err)
	assert.Equal(t, prefix+"00042", patient.PatientCode)
	assert.Equal(t, "Jane Roe", patient.FullName)
	assert.Equal(t, model.GenderFemale, patient.Gender)
	assert.Equal(t, model.PatientActive, patient.Status)
	require.NotNil(t, patient.CreatedBy)
	assert.Equal(t, "creator-id", *patient.CreatedBy)

	// Collection fields are persisted as empty, never nil.
	assert.NotNil(t, created.MedicalHistory)
	assert.NotNil(t, created.Allergies)
	assert.NotNil(t, created.CurrentMedications)
	store.AssertExpectations(t)
}

func TestPatientCreate_Validation(t *testing.T) {
	bg := "X+"
	tests := []struct {
		name string
		req  model.CreatePatientRequest
	}{
		{"missing names", model.CreatePatientRequest{Age: 30, Gender: "male"}},
		{"negative age", model.CreatePatientRequest{FirstName: "Jane", LastName: "Roe", Age: -1, Gender: "female"}},
		{"age too large", model.CreatePatientRequest{FirstName: "Jane", LastName: "Roe", Age: 200, Gender: "female"}},
		{"bad gender", model.CreatePatientRequest{FirstName: "Jane", LastName: "Roe", Age: 30, Gender: "unknown"}},
		{"bad status", model.CreatePatientRequest{FirstName: "Jane", LastName: "Roe", Age: 30, Gender: "female", Status: "archived"}},
		{"bad blood group", model.CreatePatientRequest{FirstName: "Jane", LastName: "Roe", Age: 30, Gender: "female", BloodGroup: &bg}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mockPatientStore)
			svc := NewPatientService(store, nil)

			_, err := svc.Create(context.Background(), tt.req, "creator-id")
			assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))
			store.AssertNotCalled(t, "Create")
		})
	}
}

func TestPatientList_Pagination(t *testing.T) {
	store := new(mockPatientStore)
	store.On("List", mock.Anything, model.PatientFilter{Page: 1, Limit: 10}).
		Return([]model.Patient{{ID: "p1"}, {ID: "p2"}}, 23, nil)

	svc := NewPatientService(store, nil)
	patients, meta, err := svc.List(context.Background(), model.PatientFilter{})

	require.NoError(t, err)
	assert.Len(t, patients, 2)
	assert.Equal(t, 1, meta.Page)
	assert.Equal(t, 10, meta.Limit)
	assert.Equal(t, 23, meta.Total)
	assert.Equal(t, 3, meta.TotalPages)
}

func TestPatientList_ClampsLimit(t *testing.T) {
	store := new(mockPatientStore)
	store.On("List", mock.Anything, model.PatientFilter{Page: 2, Limit: 100}).
		Return([]model.Patient{}, 0, nil)

	svc := NewPatientService(store, nil)
	_, meta, err := svc.List(context.Background(), model.PatientFilter{Page: 2, Limit: 5000})

	require.NoError(t, err)
	assert.Equal(t, 100, meta.Limit)
	assert.Equal(t, 0, meta.TotalPages)
}

func TestPatientList_InvalidStatusFilter(t *testing.T) {
	store := new(mockPatientStore)
	svc := NewPatientService(store, nil)

	_, _, err := svc.List(context.Background(), model.PatientFilter{Status: "archived"})

	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))
	store.AssertNotCalled(t, "List")
}

func TestPatientUpdate_PartialAndFullName(t *testing.T) {
	existing := model.Patient{
		ID:          "p1",
		PatientCode: "PAT-2026-00001",
		FirstName:   "Jane",
		LastName:    "Roe",
		FullName:    "Jane Roe",
		Age:         34,
		Gender:      model.GenderFemale,
		Status:      model.PatientActive,
	}

	store := new(mockPatientStore)
	store.On("FindByID", mock.Anything, "p1").Return(existing, nil)

	var updated model.Patient
	store.On("Update", mock.Anything, mock.AnythingOfType("model.Patient")).
		Run(func(args mock.Arguments) { updated = args.Get(1).(model.Patient) }).
		Return(nil)

	lastName := "Doe"
	svc := NewPatientService(store, nil)
	got, err := svc.Update(context.Background(), "p1", model.UpdatePatientRequest{LastName: &lastName})

	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.FullName)
	assert.Equal(t, "Jane", got.FirstName)
	assert.Equal(t, 34, got.Age)
	assert.Equal(t, "PAT-2026-00001", updated.PatientCode)
	store.AssertExpectations(t)
}

func TestPatientUpdate_RevalidatesMergedRecord(t *testing.T) {
	existing := model.Patient{
		ID:        "p1",
		FirstName: "Jane",
		LastName:  "Roe",
		Age:       34,
		Gender:    model.GenderFemale,
		Status:    model.PatientActive,
	}

	store := new(mockPatientStore)
	store.On("FindByID", mock.Anything, "p1").Return(existing, nil)

	badAge := 300
	svc := NewPatientService(store, nil)
	_, err := svc.Update(context.Background(), "p1", model.UpdatePatientRequest{Age: &badAge})

	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))
	store.AssertNotCalled(t, "Update")
}

func TestPatientUpdate_NotFound(t *testing.T) {
	store := new(mockPatientStore)
	store.On("FindByID", mock.Anything, "gone").Return(model.Patient{}, model.ErrPatientNotFound)

	svc := NewPatientService(store, nil)
	_, err := svc.Update(context.Background(), "gone", model.UpdatePatientRequest{})

	assert.ErrorIs(t, err, model.ErrPatientNotFound)
}

func TestPatientDelete_IsSoftDelete(t *testing.T) {
	store := new(mockPatientStore)
	store.On("SetStatus", mock.Anything, "p1", model.PatientInactive).Return(nil)

	svc := NewPatientService(store, nil)
	require.NoError(t, svc.Delete(context.Background(), "p1"))
	store.AssertExpectations(t)
}

func TestPatientStats(t *testing.T) {
	want := model.PatientStats{
		Total: 5,
		Statuses: []model.StatusCount{
			{Status: model.PatientActive, Count: 4},
			{Status: model.PatientInactive, Count: 1},
		},
		Genders: []model.GenderCount{
			{Gender: model.GenderFemale, Count: 3},
			{Gender: model.GenderMale, Count: 2},
		},
		AgeBuckets: []model.AgeBucket{
			{Bucket: "18-29", Count: 2},
			{Bucket: "30-49", Count: 3},
		},
	}

	store := new(mockPatientStore)
	store.On("Stats", mock.Anything).Return(want, nil)

	svc := NewPatientService(store, nil)
	got, err := svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, want, got)
}
