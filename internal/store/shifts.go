package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/rotalog/internal/timesheet"
	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicateShift means a record with the same
	// (date, employee, start, finish) already exists.
	ErrDuplicateShift = errors.New("duplicate shift")

	// ErrShiftNotFound means the edit/delete target does not exist.
	ErrShiftNotFound = errors.New("shift not found")
)

const shiftColumns = `id, week_start, day, employee, start_time, finish_time,
	break_minutes, hours_worked, notes, created_at`

// AddShift appends a record to the ledger. It fails with
// ErrDuplicateShift (ledger untouched) when the uniqueness key is
// already present. Derived fields are expected to be computed by the
// caller; the store does not second-guess them.
func (s *Store) AddShift(r ShiftRecord) (*ShiftRecord, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("add shift: %w", err)
	}
	defer tx.Rollback()

	exists, err := shiftKeyExists(tx, r, 0)
	if err != nil {
		return nil, fmt.Errorf("add shift: %w", err)
	}
	if exists {
		return nil, ErrDuplicateShift
	}

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := tx.Exec(
		`INSERT INTO shifts (week_start, day, employee, start_time, finish_time,
			break_minutes, hours_worked, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.WeekStart.Format(dateFormat), r.Date.Format(dateFormat), r.Employee,
		r.Start.String(), r.Finish.String(),
		r.BreakMinutes, r.HoursWorked.StringFixed(2), r.Notes, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert shift: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("add shift: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetShift(id)
}

// shiftKeyExists reports whether the uniqueness key of r is already in
// the ledger, ignoring the row with id excludeID (0 to exclude none).
func shiftKeyExists(tx *sql.Tx, r ShiftRecord, excludeID int64) (bool, error) {
	var n int
	err := tx.QueryRow(
		`SELECT COUNT(*) FROM shifts
		 WHERE day = ? AND employee = ? AND start_time = ? AND finish_time = ? AND id != ?`,
		r.Date.Format(dateFormat), r.Employee, r.Start.String(), r.Finish.String(), excludeID,
	).Scan(&n)
	return n > 0, err
}

func (s *Store) GetShift(id int64) (*ShiftRecord, error) {
	row := s.db.QueryRow(`SELECT `+shiftColumns+` FROM shifts WHERE id = ?`, id)
	r, err := scanShift(row)
	if err == sql.ErrNoRows {
		return nil, ErrShiftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get shift %d: %w", id, err)
	}
	return &r, nil
}

// FindShifts returns every shift for one employee on one date, ordered
// by start time. Split shifts make employee+date ambiguous, so callers
// must pick among the candidates before editing or deleting.
func (s *Store) FindShifts(employee string, day time.Time) ([]ShiftRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+shiftColumns+` FROM shifts
		 WHERE employee = ? AND day = ? ORDER BY start_time, id`,
		employee, day.Format(dateFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("find shifts: %w", err)
	}
	defer rows.Close()
	return collectShifts(rows)
}

// UpdateShift replaces the times, break, hours, and notes of an
// existing record. Date and employee are fixed; editing those is a
// delete-and-re-add. Fails with ErrShiftNotFound if id is absent, and
// with ErrDuplicateShift if the new times would collide with another
// record's key.
func (s *Store) UpdateShift(id int64, start, finish timesheet.Clock, breakMinutes int, hoursWorked decimal.Decimal, notes string) error {
	existing, err := s.GetShift(id)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("update shift: %w", err)
	}
	defer tx.Rollback()

	candidate := *existing
	candidate.Start = start
	candidate.Finish = finish
	exists, err := shiftKeyExists(tx, candidate, id)
	if err != nil {
		return fmt.Errorf("update shift: %w", err)
	}
	if exists {
		return ErrDuplicateShift
	}

	_, err = tx.Exec(
		`UPDATE shifts SET start_time = ?, finish_time = ?, break_minutes = ?,
			hours_worked = ?, notes = ? WHERE id = ?`,
		start.String(), finish.String(), breakMinutes, hoursWorked.StringFixed(2), notes, id,
	)
	if err != nil {
		return fmt.Errorf("update shift %d: %w", id, err)
	}
	return tx.Commit()
}

func (s *Store) DeleteShift(id int64) error {
	res, err := s.db.Exec(`DELETE FROM shifts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete shift %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrShiftNotFound
	}
	return nil
}

// Deduplicate removes every record whose uniqueness key duplicates an
// earlier row, keeping the first occurrence. Returns how many rows
// were removed; a second run removes nothing.
func (s *Store) Deduplicate() (int64, error) {
	res, err := s.db.Exec(`
		DELETE FROM shifts WHERE id NOT IN (
			SELECT MIN(id) FROM shifts
			GROUP BY day, employee, start_time, finish_time
		)`)
	if err != nil {
		return 0, fmt.Errorf("deduplicate: %w", err)
	}
	return res.RowsAffected()
}

// ListShifts returns a filtered view ordered by date, employee, and
// start time for display.
func (s *Store) ListShifts(f ShiftFilter) ([]ShiftRecord, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE 1=1`
	var args []any

	if f.Employee != "" {
		query += ` AND employee = ?`
		args = append(args, f.Employee)
	}
	if f.From != nil {
		query += ` AND day >= ?`
		args = append(args, f.From.Format(dateFormat))
	}
	if f.To != nil {
		query += ` AND day <= ?`
		args = append(args, f.To.Format(dateFormat))
	}
	if f.Search != "" {
		query += ` AND (instr(lower(employee), lower(?)) > 0
			OR instr(day, ?) > 0
			OR instr(lower(notes), lower(?)) > 0)`
		args = append(args, f.Search, f.Search, f.Search)
	}
	query += ` ORDER BY day, employee, start_time, id`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	defer rows.Close()
	return collectShifts(rows)
}

// AllShifts is the full ledger snapshot in insertion order.
func (s *Store) AllShifts() ([]ShiftRecord, error) {
	rows, err := s.db.Query(`SELECT ` + shiftColumns + ` FROM shifts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("all shifts: %w", err)
	}
	defer rows.Close()
	return collectShifts(rows)
}

// ImportShifts bulk-loads records in one transaction. In replace mode
// the prior ledger content is discarded first; in merge mode incoming
// rows whose key already exists are skipped. Duplicates inside the
// batch itself are skipped the same way, keeping the first occurrence.
// Any failure rolls the whole import back.
func (s *Store) ImportShifts(records []ShiftRecord, replace bool) (added, skipped int, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("import shifts: %w", err)
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.Exec(`DELETE FROM shifts`); err != nil {
			return 0, 0, fmt.Errorf("import shifts: clear ledger: %w", err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range records {
		exists, err := shiftKeyExists(tx, r, 0)
		if err != nil {
			return 0, 0, fmt.Errorf("import shifts: %w", err)
		}
		if exists {
			skipped++
			continue
		}
		_, err = tx.Exec(
			`INSERT INTO shifts (week_start, day, employee, start_time, finish_time,
				break_minutes, hours_worked, notes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.WeekStart.Format(dateFormat), r.Date.Format(dateFormat), r.Employee,
			r.Start.String(), r.Finish.String(),
			r.BreakMinutes, r.HoursWorked.StringFixed(2), r.Notes, now,
		)
		if err != nil {
			return 0, 0, fmt.Errorf("import shifts: %w", err)
		}
		added++
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("import shifts: %w", err)
	}
	return added, skipped, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShift(row rowScanner) (ShiftRecord, error) {
	var r ShiftRecord
	var weekStart, day, start, finish, hours, createdAt string
	err := row.Scan(&r.ID, &weekStart, &day, &r.Employee, &start, &finish,
		&r.BreakMinutes, &hours, &r.Notes, &createdAt)
	if err != nil {
		return r, err
	}
	r.WeekStart, _ = time.Parse(dateFormat, weekStart)
	r.Date, _ = time.Parse(dateFormat, day)
	r.Start, _ = timesheet.ParseClock(start)
	r.Finish, _ = timesheet.ParseClock(finish)
	r.HoursWorked, _ = decimal.NewFromString(hours)
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return r, nil
}

func collectShifts(rows *sql.Rows) ([]ShiftRecord, error) {
	var records []ShiftRecord
	for rows.Next() {
		r, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
