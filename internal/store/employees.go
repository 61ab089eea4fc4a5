package store

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrEmployeeExists   = errors.New("employee already exists")
	ErrEmployeeNotFound = errors.New("employee not found")
)

// AddEmployee registers a new employee name. Names are trimmed and
// must be unique and non-empty.
func (s *Store) AddEmployee(name string) (*Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("add employee: empty name")
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM employees WHERE name = ?`, name).Scan(&n); err != nil {
		return nil, fmt.Errorf("add employee: %w", err)
	}
	if n > 0 {
		return nil, ErrEmployeeExists
	}

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`INSERT INTO employees (name, created_at) VALUES (?, ?)`, name, now)
	if err != nil {
		return nil, fmt.Errorf("insert employee: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetEmployee(id)
}

func (s *Store) GetEmployee(id int64) (*Employee, error) {
	e := &Employee{}
	var createdAt string
	err := s.db.QueryRow(
		`SELECT id, name, created_at FROM employees WHERE id = ?`, id,
	).Scan(&e.ID, &e.Name, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("get employee %d: %w", id, err)
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return e, nil
}

func (s *Store) ListEmployees() ([]Employee, error) {
	rows, err := s.db.Query(`SELECT id, name, created_at FROM employees ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var e Employee
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Name, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// DeleteEmployee removes a name from the registry. Existing shift
// records keep the name; only new entries are constrained to the
// registry.
func (s *Store) DeleteEmployee(name string) error {
	res, err := s.db.Exec(`DELETE FROM employees WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete employee %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

// HasEmployee reports whether name is in the registry.
func (s *Store) HasEmployee(name string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM employees WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("has employee: %w", err)
	}
	return n > 0, nil
}
