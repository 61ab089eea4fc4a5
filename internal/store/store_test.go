package store

import (
	"errors"
	"testing"
	"time"

	"github.com/sadopc/rotalog/internal/timesheet"
	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse day %q: %v", s, err)
	}
	return d
}

func testClock(t *testing.T, s string) timesheet.Clock {
	t.Helper()
	c, err := timesheet.ParseClock(s)
	if err != nil {
		t.Fatalf("parse clock %q: %v", s, err)
	}
	return c
}

// testShift builds a computed record ready for AddShift.
func testShift(t *testing.T, day, employee, start, finish string) ShiftRecord {
	t.Helper()
	d := testDay(t, day)
	sc, fc := testClock(t, start), testClock(t, finish)
	totals := timesheet.ComputeShift(d, sc, fc,
		timesheet.BreakRules{ThresholdHours: 6, MinutesIfOver: 30}, nil)
	return ShiftRecord{
		WeekStart:    timesheet.PeriodStart(timesheet.Weekly, d),
		Date:         d,
		Employee:     employee,
		Start:        sc,
		Finish:       fc,
		BreakMinutes: totals.BreakMinutes,
		HoursWorked:  totals.HoursWorked,
		Notes:        "",
	}
}

func countShifts(t *testing.T, s *Store) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM shifts`).Scan(&n); err != nil {
		t.Fatalf("count shifts: %v", err)
	}
	return n
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// Should have run migration v1
	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/rotalog.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen — should succeed and not re-migrate
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s2.Close()
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

func TestSeededSettings(t *testing.T) {
	s := newTestStore(t)
	v, err := s.GetSetting("auto_break_threshold")
	if err != nil {
		t.Fatal(err)
	}
	if v != "6" {
		t.Fatalf("auto_break_threshold = %q, want 6", v)
	}
	rules := s.BreakRules()
	if rules.ThresholdHours != 6 || rules.MinutesIfOver != 30 {
		t.Fatalf("unexpected break rules: %+v", rules)
	}
}

func TestBreakRulesMalformedFallsBack(t *testing.T) {
	s := newTestStore(t)
	s.SetSetting("auto_break_threshold", "not-a-number")
	s.SetSetting("auto_break_minutes", "-5")
	rules := s.BreakRules()
	if rules.ThresholdHours != 6 || rules.MinutesIfOver != 30 {
		t.Fatalf("expected defaults, got %+v", rules)
	}
}

// ============================================================
// Shifts: add / get / uniqueness
// ============================================================

func TestAddAndGetShift(t *testing.T) {
	s := newTestStore(t)
	r, err := s.AddShift(testShift(t, "2025-11-03", "Amira", "09:00", "17:00"))
	if err != nil {
		t.Fatal(err)
	}
	if r.ID == 0 {
		t.Fatal("expected non-zero ID")
	}
	if r.Employee != "Amira" || r.Start.String() != "09:00" || r.Finish.String() != "17:00" {
		t.Fatalf("unexpected record: %+v", r)
	}
	// 8h gross crosses the 6h threshold: 30m break, 7.50h net.
	if r.BreakMinutes != 30 {
		t.Fatalf("break = %d, want 30", r.BreakMinutes)
	}
	if r.HoursWorked.StringFixed(2) != "7.50" {
		t.Fatalf("hours = %s, want 7.50", r.HoursWorked.StringFixed(2))
	}
	if r.WeekStart.Format("2006-01-02") != "2025-11-03" {
		t.Fatalf("week start = %s", r.WeekStart.Format("2006-01-02"))
	}
	if r.CreatedAt.IsZero() {
		t.Fatal("CreatedAt should be set")
	}
}

func TestAddShiftDuplicateKey(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddShift(testShift(t, "2025-11-03", "Amira", "09:00", "17:00")); err != nil {
		t.Fatal(err)
	}
	_, err := s.AddShift(testShift(t, "2025-11-03", "Amira", "09:00", "17:00"))
	if !errors.Is(err, ErrDuplicateShift) {
		t.Fatalf("expected ErrDuplicateShift, got %v", err)
	}
	if n := countShifts(t, s); n != 1 {
		t.Fatalf("ledger size = %d, want 1", n)
	}
}

func TestAddShiftSplitShiftsAllowed(t *testing.T) {
	s := newTestStore(t)
	// Same employee and date, different times: both allowed.
	if _, err := s.AddShift(testShift(t, "2025-11-03", "Amira", "09:00", "12:00")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddShift(testShift(t, "2025-11-03", "Amira", "17:00", "22:00")); err != nil {
		t.Fatal(err)
	}
	if n := countShifts(t, s); n != 2 {
		t.Fatalf("ledger size = %d, want 2", n)
	}
}

func TestGetShiftNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetShift(999)
	if !errors.Is(err, ErrShiftNotFound) {
		t.Fatalf("expected ErrShiftNotFound, got %v", err)
	}
}

// ============================================================
// Shifts: find / update / delete
// ============================================================

func TestFindShiftsCandidates(t *testing.T) {
	s := newTestStore(t)
	s.AddShift(testShift(t, "2025-11-03", "Amira", "17:00", "22:00"))
	s.AddShift(testShift(t, "2025-11-03", "Amira", "09:00", "12:00"))
	s.AddShift(testShift(t, "2025-11-03", "Ben", "09:00", "12:00"))
	s.AddShift(testShift(t, "2025-11-04", "Amira", "09:00", "12:00"))

	got, err := s.FindShifts("Amira", testDay(t, "2025-11-03"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	// Ordered by start time.
	if got[0].Start.String() != "09:00" || got[1].Start.String() != "17:00" {
		t.Fatalf("candidates not ordered: %s, %s", got[0].Start, got[1].Start)
	}
}

func TestUpdateShift(t *testing.T) {
	s := newTestStore(t)
	r, _ := s.AddShift(testShift(t, "2025-11-03", "Amira", "09:00", "17:00"))

	hours, _ := decimal.NewFromString("2.50")
	err := s.UpdateShift(r.ID, testClock(t, "09:00"), testClock(t, "12:00"), 30, hours, "left early")
	if err != nil {
		t.Fatal(err)
	}

	updated, _ := s.GetShift(r.ID)
	if updated.Finish.String() != "12:00" || updated.Notes != "left early" {
		t.Fatalf("unexpected record after update: %+v", updated)
	}
	if updated.HoursWorked.StringFixed(2) != "2.50" {
		t.Fatalf("hours = %s, want 2.50", updated.HoursWorked.StringFixed(2))
	}
}

func TestUpdateShiftNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateShift(42, testClock(t, "09:00"), testClock(t, "12:00"), 0, decimal.Zero, "")
	if !errors.Is(err, ErrShiftNotFound) {
		t.Fatalf("expected ErrShiftNotFound, got %v", err)
	}
}

func TestUpdateShiftIntoDuplicate(t *testing.T) {
	s := newTestStore(t)
	s.AddShift(testShift(t, "2025-11-03", "Amira", "09:00", "12:00"))
	r, _ := s.AddShift(testShift(t, "2025-11-03", "Amira", "13:00", "18:00"))

	// Changing the second record's times to match the first collides.
	err := s.UpdateShift(r.ID, testClock(t, "09:00"), testClock(t, "12:00"), 0, decimal.Zero, "")
	if !errors.Is(err, ErrDuplicateShift) {
		t.Fatalf("expected ErrDuplicateShift, got %v", err)
	}
	// Original untouched.
	unchanged, _ := s.GetShift(r.ID)
	if unchanged.Start.String() != "13:00" {
		t.Fatalf("record mutated on failed update: %+v", unchanged)
	}
}

func TestDeleteShift(t *testing.T) {
	s := newTestStore(t)
	r, _ := s.AddShift(testShift(t, "2025-11-03", "Amira", "09:00", "17:00"))
	if err := s.DeleteShift(r.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteShift(r.ID); !errors.Is(err, ErrShiftNotFound) {
		t.Fatalf("expected ErrShiftNotFound, got %v", err)
	}
}

// ============================================================
// Deduplication
// ============================================================

func TestDeduplicate(t *testing.T) {
	s := newTestStore(t)
	s.AddShift(testShift(t, "2025-11-03", "Amira", "09:00", "17:00"))
	s.AddShift(testShift(t, "2025-11-04", "Ben", "10:00", "14:00"))

	// Force duplicates past the AddShift guard, as a raw import might.
	for i := 0; i < 3; i++ {
		s.db.Exec(`INSERT INTO shifts (week_start, day, employee, start_time, finish_time, hours_worked)
			VALUES ('2025-11-03', '2025-11-03', 'Amira', '09:00', '17:00', '7.50')`)
	}

	removed, err := s.Deduplicate()
	if err != nil {
		t.Fatal(err)
	}
	if removed != 3 {
		t.Fatalf("removed = %d, want 3", removed)
	}
	if n := countShifts(t, s); n != 2 {
		t.Fatalf("ledger size = %d, want 2", n)
	}

	// Idempotent: a second sweep removes nothing.
	removed, err = s.Deduplicate()
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Fatalf("second sweep removed %d, want 0", removed)
	}
}

func TestDeduplicateKeepsFirst(t *testing.T) {
	s := newTestStore(t)
	first, _ := s.AddShift(testShift(t, "2025-11-03", "Amira", "09:00", "17:00"))
	s.db.Exec(`INSERT INTO shifts (week_start, day, employee, start_time, finish_time, hours_worked, notes)
		VALUES ('2025-11-03', '2025-11-03', 'Amira', '09:00', '17:00', '7.50', 'later copy')`)

	s.Deduplicate()

	remaining, _ := s.AllShifts()
	if len(remaining) != 1 {
		t.Fatalf("expected 1 record, got %d", len(remaining))
	}
	if remaining[0].ID != first.ID {
		t.Fatalf("kept id %d, want first id %d", remaining[0].ID, first.ID)
	}
}

// ============================================================
// Listing and search
// ============================================================

func TestListShiftsFilters(t *testing.T) {
	s := newTestStore(t)
	s.AddShift(testShift(t, "2025-11-03", "Amira", "09:00", "17:00"))
	s.AddShift(testShift(t, "2025-11-05", "Ben", "10:00", "14:00"))
	s.AddShift(testShift(t, "2025-11-10", "Amira", "09:00", "13:00"))

	byEmployee, err := s.ListShifts(ShiftFilter{Employee: "Amira"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byEmployee) != 2 {
		t.Fatalf("by employee = %d, want 2", len(byEmployee))
	}

	from := testDay(t, "2025-11-04")
	to := testDay(t, "2025-11-09")
	byRange, err := s.ListShifts(ShiftFilter{From: &from, To: &to})
	if err != nil {
		t.Fatal(err)
	}
	if len(byRange) != 1 || byRange[0].Employee != "Ben" {
		t.Fatalf("by range: %+v", byRange)
	}
}

func TestListShiftsSearch(t *testing.T) {
	s := newTestStore(t)
	r := testShift(t, "2025-11-03", "Amira", "09:00", "17:00")
	r.Notes = "Morning delivery"
	s.AddShift(r)
	s.AddShift(testShift(t, "2025-11-05", "Ben", "10:00", "14:00"))

	byNote, err := s.ListShifts(ShiftFilter{Search: "delivery"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byNote) != 1 || byNote[0].Employee != "Amira" {
		t.Fatalf("search by note: %+v", byNote)
	}

	byName, _ := s.ListShifts(ShiftFilter{Search: "ben"})
	if len(byName) != 1 || byName[0].Employee != "Ben" {
		t.Fatalf("search by name (case-insensitive): %+v", byName)
	}

	byDate, _ := s.ListShifts(ShiftFilter{Search: "2025-11-05"})
	if len(byDate) != 1 {
		t.Fatalf("search by date: %+v", byDate)
	}

	none, _ := s.ListShifts(ShiftFilter{Search: "no-such-thing"})
	if len(none) != 0 {
		t.Fatalf("expected no matches, got %d", len(none))
	}
}

func TestAllShiftsInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	// Insert out of date order: snapshot must keep insertion order.
	s.AddShift(testShift(t, "2025-11-10", "Amira", "09:00", "13:00"))
	s.AddShift(testShift(t, "2025-11-03", "Ben", "10:00", "14:00"))

	all, err := s.AllShifts()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
	if all[0].Employee != "Amira" || all[1].Employee != "Ben" {
		t.Fatalf("snapshot not in insertion order: %s, %s", all[0].Employee, all[1].Employee)
	}
}

// ============================================================
// Bulk import
// ============================================================

func TestImportShiftsMerge(t *testing.T) {
	s := newTestStore(t)
	s.AddShift(testShift(t, "2025-11-03", "Amira", "09:00", "17:00"))

	batch := []ShiftRecord{
		testShift(t, "2025-11-03", "Amira", "09:00", "17:00"), // existing key
		testShift(t, "2025-11-04", "Ben", "10:00", "14:00"),
		testShift(t, "2025-11-04", "Ben", "10:00", "14:00"), // duplicate inside batch
	}
	added, skipped, err := s.ImportShifts(batch, false)
	if err != nil {
		t.Fatal(err)
	}
	if added != 1 || skipped != 2 {
		t.Fatalf("added=%d skipped=%d, want 1/2", added, skipped)
	}
	if n := countShifts(t, s); n != 2 {
		t.Fatalf("ledger size = %d, want 2", n)
	}
}

func TestImportShiftsReplace(t *testing.T) {
	s := newTestStore(t)
	s.AddShift(testShift(t, "2025-11-03", "Amira", "09:00", "17:00"))

	batch := []ShiftRecord{
		testShift(t, "2025-12-01", "Ben", "10:00", "14:00"),
	}
	added, skipped, err := s.ImportShifts(batch, true)
	if err != nil {
		t.Fatal(err)
	}
	if added != 1 || skipped != 0 {
		t.Fatalf("added=%d skipped=%d, want 1/0", added, skipped)
	}
	all, _ := s.AllShifts()
	if len(all) != 1 || all[0].Employee != "Ben" {
		t.Fatalf("replace did not discard prior content: %+v", all)
	}
}

// ============================================================
// Employees
// ============================================================

func TestAddAndListEmployees(t *testing.T) {
	s := newTestStore(t)
	s.AddEmployee("Ben")
	e, err := s.AddEmployee("  Amira ")
	if err != nil {
		t.Fatal(err)
	}
	if e.Name != "Amira" {
		t.Fatalf("name not trimmed: %q", e.Name)
	}

	employees, err := s.ListEmployees()
	if err != nil {
		t.Fatal(err)
	}
	if len(employees) != 2 {
		t.Fatalf("expected 2 employees, got %d", len(employees))
	}
	if employees[0].Name != "Amira" || employees[1].Name != "Ben" {
		t.Fatalf("not sorted by name: %v", employees)
	}
}

func TestAddEmployeeValidation(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddEmployee("   "); err == nil {
		t.Fatal("expected error for blank name")
	}
	s.AddEmployee("Amira")
	if _, err := s.AddEmployee("Amira"); !errors.Is(err, ErrEmployeeExists) {
		t.Fatalf("expected ErrEmployeeExists, got %v", err)
	}
}

func TestDeleteEmployee(t *testing.T) {
	s := newTestStore(t)
	s.AddEmployee("Amira")
	if err := s.DeleteEmployee("Amira"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteEmployee("Amira"); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
	ok, _ := s.HasEmployee("Amira")
	if ok {
		t.Fatal("employee should be gone")
	}
}

// ============================================================
// Settings
// ============================================================

func TestSetAndGetSetting(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetSetting("auto_break_minutes", "45"); err != nil {
		t.Fatal(err)
	}
	v, err := s.GetSetting("auto_break_minutes")
	if err != nil {
		t.Fatal(err)
	}
	if v != "45" {
		t.Fatalf("value = %q, want 45", v)
	}
	rules := s.BreakRules()
	if rules.MinutesIfOver != 45 {
		t.Fatalf("break minutes = %d, want 45", rules.MinutesIfOver)
	}
}

func TestGetAllSettings(t *testing.T) {
	s := newTestStore(t)
	settings, err := s.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(settings) != 4 {
		t.Fatalf("expected 4 seeded settings, got %d", len(settings))
	}
}
