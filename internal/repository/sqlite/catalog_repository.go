package sqlite

import (
	"database/sql"
	"fmt"
)

// CatalogRepository implements domain.CatalogRepository using SQLite
type CatalogRepository struct {
	db *Database
}

// NewCatalogRepository creates a new CatalogRepository
func NewCatalogRepository(db *Database) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// CourseNames retrieves all course names in catalog order
func (r *CatalogRepository) CourseNames() ([]string, error) {
	return r.queryNames("SELECT name FROM courses ORDER BY id")
}

// MemberNames retrieves all staff member names in catalog order
func (r *CatalogRepository) MemberNames() ([]string, error) {
	return r.queryNames("SELECT name FROM members ORDER BY id")
}

// CourseCode resolves the code for a course name, returning "N/A" for
// courses not in the catalog
func (r *CatalogRepository) CourseCode(courseName string) (string, error) {
	query := `SELECT code FROM courses WHERE name = ?`

	var code string
	err := r.db.GetDB().QueryRow(query, courseName).Scan(&code)

	if err == sql.ErrNoRows {
		return "N/A", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get course code: %w", err)
	}

	return code, nil
}

// AddCourse inserts or updates a catalog course
func (r *CatalogRepository) AddCourse(name, code string) error {
	query := `
		INSERT INTO courses (name, code) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET code = excluded.code
	`

	if _, err := r.db.GetDB().Exec(query, name, code); err != nil {
		return fmt.Errorf("failed to add course: %w", err)
	}

	return nil
}

// AddMember inserts a catalog member if not already present
func (r *CatalogRepository) AddMember(name string) error {
	query := `INSERT OR IGNORE INTO members (name) VALUES (?)`

	if _, err := r.db.GetDB().Exec(query, name); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

func (r *CatalogRepository) queryNames(query string) ([]string, error) {
	rows, err := r.db.GetDB().Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog rows: %w", err)
	}

	return names, nil
}
