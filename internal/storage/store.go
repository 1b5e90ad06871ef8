package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bpa/internal/errors"
	"bpa/internal/gaps"
	"bpa/internal/matrix"
)

// Project is a tracked business plan
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Readiness int       `json:"readiness"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DiagnosisRecord is one persisted diagnosis run with its gap list
type DiagnosisRecord struct {
	ID               string     `json:"id"`
	ProjectID        string     `json:"projectId"`
	RegistryVersion  string     `json:"registryVersion"`
	OverallReadiness int        `json:"overallReadiness"`
	Gaps             []gaps.Gap `json:"gaps"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// timeFormat keeps timestamps sortable as text
const timeFormat = time.RFC3339Nano

// CreateProject inserts a new project and returns it
func (db *DB) CreateProject(name string) (*Project, error) {
	now := time.Now().UTC()
	project := &Project{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := db.conn.Exec(
		"INSERT INTO projects (id, name, readiness, created_at, updated_at) VALUES (?, ?, 0, ?, ?)",
		project.ID, project.Name, now.Format(timeFormat), now.Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	db.logger.Info("project created", map[string]interface{}{
		"id":   project.ID,
		"name": project.Name,
	})
	return project, nil
}

// GetProject looks a project up by id
func (db *DB) GetProject(id string) (*Project, error) {
	return db.scanProject(db.conn.QueryRow(
		"SELECT id, name, readiness, created_at, updated_at FROM projects WHERE id = ?", id))
}

// GetProjectByName looks a project up by its unique name
func (db *DB) GetProjectByName(name string) (*Project, error) {
	return db.scanProject(db.conn.QueryRow(
		"SELECT id, name, readiness, created_at, updated_at FROM projects WHERE name = ?", name))
}

// EnsureProject returns the named project, creating it on first use
func (db *DB) EnsureProject(name string) (*Project, error) {
	project, err := db.GetProjectByName(name)
	if err == nil {
		return project, nil
	}
	if errors.CodeOf(err) != errors.ProjectNotFound {
		return nil, err
	}
	return db.CreateProject(name)
}

func (db *DB) scanProject(row *sql.Row) (*Project, error) {
	var p Project
	var createdAt, updatedAt string
	err := row.Scan(&p.ID, &p.Name, &p.Readiness, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ProjectNotFound, "project does not exist", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	p.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	p.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
	return &p, nil
}

// UpdateProjectReadiness stores the current readiness percentage
func (db *DB) UpdateProjectReadiness(id string, readiness int) error {
	result, err := db.conn.Exec(
		"UPDATE projects SET readiness = ?, updated_at = ? WHERE id = ?",
		readiness, time.Now().UTC().Format(timeFormat), id)
	if err != nil {
		return fmt.Errorf("failed to update readiness: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.New(errors.ProjectNotFound, "project does not exist", nil)
	}
	return nil
}

// SaveMatrix upserts the project's strategic matrix as a JSON snapshot
func (db *DB) SaveMatrix(projectID string, m matrix.StrategicMatrix) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode matrix: %w", err)
	}

	_, err = db.conn.Exec(`
		INSERT INTO matrices (project_id, data, generated_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET data = excluded.data,
			generated_at = excluded.generated_at, updated_at = excluded.updated_at`,
		projectID, string(data), m.GeneratedAt, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("failed to save matrix: %w", err)
	}
	return nil
}

// LoadMatrix returns the stored matrix. A project without a stored matrix
// gets an empty one and found=false.
func (db *DB) LoadMatrix(projectID string) (matrix.StrategicMatrix, bool, error) {
	var data string
	err := db.conn.QueryRow(
		"SELECT data FROM matrices WHERE project_id = ?", projectID).Scan(&data)
	if err == sql.ErrNoRows {
		return matrix.New(), false, nil
	}
	if err != nil {
		return matrix.New(), false, fmt.Errorf("failed to load matrix: %w", err)
	}

	var m matrix.StrategicMatrix
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return matrix.New(), false, errors.New(errors.SnapshotCorrupt, "stored matrix snapshot is not decodable", err)
	}
	return m, true, nil
}

// AppendDiagnosis stores one diagnosis run with its gap list
func (db *DB) AppendDiagnosis(record *DiagnosisRecord) error {
	gapsJSON, err := json.Marshal(record.Gaps)
	if err != nil {
		return fmt.Errorf("failed to encode gaps: %w", err)
	}

	_, err = db.conn.Exec(
		"INSERT INTO diagnoses (id, project_id, registry_version, readiness, gaps, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		record.ID, record.ProjectID, record.RegistryVersion, record.OverallReadiness,
		string(gapsJSON), record.CreatedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("failed to store diagnosis: %w", err)
	}

	db.logger.Info("diagnosis stored", map[string]interface{}{
		"id":        record.ID,
		"project":   record.ProjectID,
		"gaps":      len(record.Gaps),
		"readiness": record.OverallReadiness,
	})
	return nil
}

// LatestDiagnosis returns the most recent diagnosis for a project
func (db *DB) LatestDiagnosis(projectID string) (*DiagnosisRecord, error) {
	row := db.conn.QueryRow(`
		SELECT id, project_id, registry_version, readiness, gaps, created_at
		FROM diagnoses WHERE project_id = ? ORDER BY created_at DESC LIMIT 1`, projectID)

	record, err := scanDiagnosis(row)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.DiagnosisMissing, "no diagnosis has been run for this project", nil)
	}
	return record, err
}

// ListDiagnoses returns all diagnosis runs for a project, newest first
func (db *DB) ListDiagnoses(projectID string) ([]*DiagnosisRecord, error) {
	rows, err := db.conn.Query(`
		SELECT id, project_id, registry_version, readiness, gaps, created_at
		FROM diagnoses WHERE project_id = ? ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list diagnoses: %w", err)
	}
	defer rows.Close()

	var records []*DiagnosisRecord
	for rows.Next() {
		record, err := scanDiagnosis(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// UpdateDiagnosisGaps rewrites the gap list of a stored diagnosis, used
// after a gap re-evaluation
func (db *DB) UpdateDiagnosisGaps(id string, gapList []gaps.Gap, readiness int) error {
	gapsJSON, err := json.Marshal(gapList)
	if err != nil {
		return fmt.Errorf("failed to encode gaps: %w", err)
	}

	result, err := db.conn.Exec(
		"UPDATE diagnoses SET gaps = ?, readiness = ? WHERE id = ?",
		string(gapsJSON), readiness, id)
	if err != nil {
		return fmt.Errorf("failed to update diagnosis: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.New(errors.DiagnosisMissing, "diagnosis does not exist", nil)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDiagnosis(row rowScanner) (*DiagnosisRecord, error) {
	var record DiagnosisRecord
	var gapsJSON, createdAt string
	err := row.Scan(&record.ID, &record.ProjectID, &record.RegistryVersion,
		&record.OverallReadiness, &gapsJSON, &createdAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(gapsJSON), &record.Gaps); err != nil {
		return nil, errors.New(errors.SnapshotCorrupt, "stored gap list is not decodable", err)
	}
	record.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return &record, nil
}
