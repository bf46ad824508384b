package sqlite

import (
	"fmt"
	"time"

	"github.com/salonso/geconsultas-bot/internal/domain"
)

// RegistryRepository implements domain.RegistryRepository using SQLite
type RegistryRepository struct {
	db *Database
}

// NewRegistryRepository creates a new RegistryRepository
func NewRegistryRepository(db *Database) *RegistryRepository {
	return &RegistryRepository{db: db}
}

// Insert writes one completed record into the registry
func (r *RegistryRepository) Insert(record *domain.Consulta, courseCode string) error {
	query := `
		INSERT INTO registry (student_name, course_name, course_code, received_at, started_at, ended_at, assistant_name, auxiliary_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.GetDB().Exec(query,
		record.StudentName,
		record.CourseName,
		courseCode,
		record.ReceivedAt,
		record.StartedAt,
		record.EndedAt,
		record.AssistantName,
		record.AuxiliaryName,
		time.Now(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	return nil
}

// Count returns the number of registry rows
func (r *RegistryRepository) Count() (int, error) {
	var count int
	if err := r.db.GetDB().QueryRow("SELECT COUNT(*) FROM registry").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count registry rows: %w", err)
	}

	return count, nil
}
