package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hospital-api/internal/model"
)

const patientColumns = `id, patient_code, first_name, last_name, full_name, age, gender,
	date_of_birth, phone, email, address_street, address_city, address_state, address_postal_code,
	emergency_name, emergency_relation, emergency_phone, medical_history, blood_group,
	allergies, current_medications, notes, status, created_by, created_at, updated_at`

type PatientRepository struct {
	pool *pgxpool.Pool
}

func NewPatientRepository(pool *pgxpool.Pool) *PatientRepository {
	return &PatientRepository{pool: pool}
}

func scanPatient(row pgx.Row) (model.Patient, error) {
	var (
		p       model.Patient
		street  *string
		city    *string
		state   *string
		postal  *string
		emName  *string
		emRel   *string
		emPhone *string
		history []byte
	)

	err := row.Scan(&p.ID, &p.PatientCode, &p.FirstName, &p.LastName, &p.FullName, &p.Age, &p.Gender,
		&p.DateOfBirth, &p.Phone, &p.Email, &street, &city, &state, &postal,
		&emName, &emRel, &emPhone, &history, &p.BloodGroup,
		&p.Allergies, &p.CurrentMedications, &p.Notes, &p.Status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.Patient{}, err
	}

	p.Address = model.Address{
		Street:     deref(street),
		City:       deref(city),
		State:      deref(state),
		PostalCode: deref(postal),
	}
	p.EmergencyContact = model.EmergencyContact{
		Name:         deref(emName),
		Relationship: deref(emRel),
		Phone:        deref(emPhone),
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &p.MedicalHistory); err != nil {
			return model.Patient{}, fmt.Errorf("decode medical history: %w", err)
		}
	}
	if p.MedicalHistory == nil {
		p.MedicalHistory = []model.MedicalHistoryEntry{}
	}
	if p.Allergies == nil {
		p.Allergies = []string{}
	}
	if p.CurrentMedications == nil {
		p.CurrentMedications = []string{}
	}

	return p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nilIfEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func (r *PatientRepository) Create(ctx context.Context, p model.Patient) error {
	history, err := json.Marshal(p.MedicalHistory)
	if err != nil {
		return fmt.Errorf("encode medical history: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO patients (id, patient_code, first_name, last_name, full_name, age, gender,
		    date_of_birth, phone, email, address_street, address_city, address_state, address_postal_code,
		    emergency_name, emergency_relation, emergency_phone, medical_history, blood_group,
		    allergies, current_medications, notes, status, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		         $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`,
		p.ID, p.PatientCode, p.FirstName, p.LastName, p.FullName, p.Age, p.Gender,
		p.DateOfBirth, p.Phone, p.Email,
		nilIfEmpty(p.Address.Street), nilIfEmpty(p.Address.City), nilIfEmpty(p.Address.State), nilIfEmpty(p.Address.PostalCode),
		nilIfEmpty(p.EmergencyContact.Name), nilIfEmpty(p.EmergencyContact.Relationship), nilIfEmpty(p.EmergencyContact.Phone),
		history, p.BloodGroup, p.Allergies, p.CurrentMedications, p.Notes, p.Status, p.CreatedBy, p.CreatedAt, p.UpdatedAt)
	if isUniqueViolation(err) {
		return model.ErrPatientCodeTaken
	}
	if err != nil {
		return fmt.Errorf("create patient: %w", err)
	}
	return nil
}

func (r *PatientRepository) FindByID(ctx context.Context, id string) (model.Patient, error) {
	p, err := scanPatient(r.pool.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE id = $1`, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Patient{}, model.ErrPatientNotFound
	}
	if err != nil {
		return model.Patient{}, fmt.Errorf("find patient by id: %w", err)
	}
	return p, nil
}

func (r *PatientRepository) Update(ctx context.Context, p model.Patient) error {
	history, err := json.Marshal(p.MedicalHistory)
	if err != nil {
		return fmt.Errorf("encode medical history: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE patients SET first_name = $2, last_name = $3, full_name = $4, age = $5, gender = $6,
		    date_of_birth = $7, phone = $8, email = $9,
		    address_street = $10, address_city = $11, address_state = $12, address_postal_code = $13,
		    emergency_name = $14, emergency_relation = $15, emergency_phone = $16,
		    medical_history = $17, blood_group = $18, allergies = $19, current_medications = $20,
		    notes = $21, status = $22, updated_at = $23
		 WHERE id = $1`,
		p.ID, p.FirstName, p.LastName, p.FullName, p.Age, p.Gender,
		p.DateOfBirth, p.Phone, p.Email,
		nilIfEmpty(p.Address.Street), nilIfEmpty(p.Address.City), nilIfEmpty(p.Address.State), nilIfEmpty(p.Address.PostalCode),
		nilIfEmpty(p.EmergencyContact.Name), nilIfEmpty(p.EmergencyContact.Relationship), nilIfEmpty(p.EmergencyContact.Phone),
		history, p.BloodGroup, p.Allergies, p.CurrentMedications, p.Notes, p.Status, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) SetStatus(ctx context.Context, id string, status model.PatientStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE patients SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set patient status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) List(ctx context.Context, filter model.PatientFilter) ([]model.Patient, int, error) {
	where := make([]string, 0, 2)
	args := make([]any, 0, 4)

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			`(patient_code ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d
			  OR full_name ILIKE $%d OR phone ILIKE $%d OR email ILIKE $%d)`,
			n, n, n, n, n, n))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM patients%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		patientColumns, clause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	patients := make([]model.Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}

// CountByCodePrefix backs the PAT-<year>-NNNNN sequence. The unique index on
// patient_code is the correctness backstop under concurrent inserts.
func (r *PatientRepository) CountByCodePrefix(ctx context.Context, prefix string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM patients WHERE patient_code LIKE $1`, prefix+"%").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count patients by code prefix: %w", err)
	}
	return count, nil
}

func (r *PatientRepository) Stats(ctx context.Context) (model.PatientStats, error) {
	stats := model.PatientStats{
		Statuses:   []model.StatusCount{},
		Genders:    []model.GenderCount{},
		AgeBuckets: []model.AgeBucket{},
	}

	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM patients GROUP BY status ORDER BY status`)
	if err != nil {
		return stats, fmt.Errorf("status stats: %w", err)
	}
	for rows.Next() {
		var sc model.StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			rows.Close()
			return stats, fmt.Errorf("scan status stats: %w", err)
		}
		stats.Statuses = append(stats.Statuses, sc)
		stats.Total += sc.Count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return stats, err
	}

	rows, err = r.pool.Query(ctx,
		`SELECT gender, COUNT(*) FROM patients GROUP BY gender ORDER BY gender`)
	if err != nil {
		return stats, fmt.Errorf("gender stats: %w", err)
	}
	for rows.Next() {
		var gc model.GenderCount
		if err := rows.Scan(&gc.Gender, &gc.Count); err != nil {
			rows.Close()
			return stats, fmt.Errorf("scan gender stats: %w", err)
		}
		stats.Genders = append(stats.Genders, gc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return stats, err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT bucket, COUNT(*) FROM (
		    SELECT CASE
		        WHEN age < 18 THEN '0-17'
		        WHEN age < 30 THEN '18-29'
		        WHEN age < 50 THEN '30-49'
		        WHEN age < 70 THEN '50-69'
		        ELSE '70+'
		    END AS bucket
		    FROM patients
		) buckets
		GROUP BY bucket ORDER BY bucket`)
	if err != nil {
		return stats, fmt.Errorf("age stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ab model.AgeBucket
		if err := rows.Scan(&ab.Bucket, &ab.Count); err != nil {
			return stats, fmt.Errorf("scan age stats: %w", err)
		}
		stats.AgeBuckets = append(stats.AgeBuckets, ab)
	}

	return stats, rows.Err()
}
