package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Base model fields shared by all persisted entities
type Base struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ShiftStatus defines the lifecycle status of a shift
type ShiftStatus string

const (
	// ShiftStatusPending represents a shift awaiting EIC approval
	ShiftStatusPending ShiftStatus = "PENDING"
	// ShiftStatusApproved represents a shift approved by an EIC
	ShiftStatusApproved ShiftStatus = "APPROVED"
	// ShiftStatusRejected represents a shift rejected by an EIC
	ShiftStatusRejected ShiftStatus = "REJECTED"
	// ShiftStatusExpired represents a pending shift whose date passed without action
	ShiftStatusExpired ShiftStatus = "EXPIRED"
	// ShiftStatusActive represents a shift whose trip is underway
	ShiftStatusActive ShiftStatus = "ACTIVE"
	// ShiftStatusCompleted represents a shift whose trip has finished
	ShiftStatusCompleted ShiftStatus = "COMPLETED"
)

// ShiftStatusFromString converts a string to a ShiftStatus.
// Unknown strings are rejected at the boundary rather than passed through.
func ShiftStatusFromString(status string) (ShiftStatus, bool) {
	switch ShiftStatus(strings.ToUpper(status)) {
	case ShiftStatusPending, ShiftStatusApproved, ShiftStatusRejected,
		ShiftStatusExpired, ShiftStatusActive, ShiftStatusCompleted:
		return ShiftStatus(strings.ToUpper(status)), true
	default:
		return "", false
	}
}

// IsTerminal reports whether no further approval transition is permitted.
func (s ShiftStatus) IsTerminal() bool {
	switch s {
	case ShiftStatusRejected, ShiftStatusExpired, ShiftStatusCompleted:
		return true
	}
	return false
}

// CountsAgainstCapacity reports whether a shift in this status occupies a
// vehicle seat for capacity checks.
func (s ShiftStatus) CountsAgainstCapacity() bool {
	switch s {
	case ShiftStatusPending, ShiftStatusApproved, ShiftStatusActive:
		return true
	}
	return false
}

// ShiftType defines the type of shift
type ShiftType string

const (
	// ShiftTypeMorning represents a morning shift
	ShiftTypeMorning ShiftType = "MORNING"
	// ShiftTypeAfternoon represents an afternoon shift
	ShiftTypeAfternoon ShiftType = "AFTERNOON"
	// ShiftTypeNight represents a night shift
	ShiftTypeNight ShiftType = "NIGHT"
	// ShiftTypeCustom represents a shift with caller-provided times
	ShiftTypeCustom ShiftType = "CUSTOM"
)

// ShiftTypeFromTemplateCode derives the shift type from a template code.
// Codes that do not map to a named slot fall back to CUSTOM.
func ShiftTypeFromTemplateCode(code string) ShiftType {
	switch strings.ToUpper(code) {
	case "MORNING":
		return ShiftTypeMorning
	case "AFTERNOON":
		return ShiftTypeAfternoon
	case "NIGHT":
		return ShiftTypeNight
	default:
		return ShiftTypeCustom
	}
}

// RecurrencePattern defines how a shift recurs
type RecurrencePattern string

const (
	// RecurrenceDaily labels a shift stamped as part of a daily series.
	// Each day is still a separate row; the pattern is a label, not a rule.
	RecurrenceDaily RecurrencePattern = "DAILY"
)

// Driver is a read model of the driver-management collaborator's records.
// The scheduler only consumes the id, display fields, and the default
// vehicle hint.
type Driver struct {
	Base
	Name              string     `json:"name" gorm:"column:name"`
	EmployeeNo        string     `json:"employee_no" gorm:"column:employee_no;uniqueIndex"`
	AssignedVehicleID *uuid.UUID `json:"assigned_vehicle_id" gorm:"column:assigned_vehicle_id;type:uuid"`
	Active            bool       `json:"active" gorm:"column:active"`
}

// Vehicle is a read model of the vehicle-management collaborator's records.
// The scheduler treats it as an opaque capacity unit.
type Vehicle struct {
	Base
	Registration string `json:"registration" gorm:"column:registration;uniqueIndex"`
	Active       bool   `json:"active" gorm:"column:active"`
}

// ShiftTemplate is a named reusable (start, end, color) tuple used to stamp
// new shifts. Shifts store resolved times, never a live template reference,
// so deleting a template does not alter existing shifts.
type ShiftTemplate struct {
	Base
	Name      string `json:"name" gorm:"column:name"`
	Code      string `json:"code" gorm:"column:code;uniqueIndex"`
	StartTime string `json:"start_time" gorm:"column:start_time"` // HH:MM
	EndTime   string `json:"end_time" gorm:"column:end_time"`     // HH:MM
	Color     string `json:"color" gorm:"column:color"`
	IsActive  bool   `json:"is_active" gorm:"column:is_active"`
}

// TemplateCode derives the unique uppercase-snake code from a template name.
func TemplateCode(name string) string {
	code := strings.TrimSpace(name)
	code = strings.Join(strings.Fields(code), "_")
	return strings.ToUpper(code)
}

// Shift represents a driver/vehicle assignment for a time-boxed window on a
// single calendar date.
type Shift struct {
	Base
	DriverID          uuid.UUID          `json:"driver_id" gorm:"column:driver_id;type:uuid;index:idx_shifts_driver_date"`
	Driver            *Driver            `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
	VehicleID         uuid.UUID          `json:"vehicle_id" gorm:"column:vehicle_id;type:uuid;index:idx_shifts_vehicle_date"`
	Vehicle           *Vehicle           `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID"`
	ShiftDate         time.Time          `json:"shift_date" gorm:"column:shift_date;index:idx_shifts_driver_date;index:idx_shifts_vehicle_date"`
	StartTime         time.Time          `json:"start_time" gorm:"column:start_time"`
	EndTime           time.Time          `json:"end_time" gorm:"column:end_time"`
	ShiftType         ShiftType          `json:"shift_type" gorm:"column:shift_type"`
	Status            ShiftStatus        `json:"status" gorm:"column:status;index"`
	IsRecurring       bool               `json:"is_recurring" gorm:"column:is_recurring"`
	RecurrencePattern *RecurrencePattern `json:"recurrence_pattern,omitempty" gorm:"column:recurrence_pattern"`
	RejectionReason   *string            `json:"rejection_reason,omitempty" gorm:"column:rejection_reason"`
	Notes             string             `json:"notes" gorm:"column:notes"`
	CreatedBy         string             `json:"created_by" gorm:"column:created_by"`
	ApprovedBy        *string            `json:"approved_by,omitempty" gorm:"column:approved_by"`
	ApprovedAt        *time.Time         `json:"approved_at,omitempty" gorm:"column:approved_at"`
	RejectedBy        *string            `json:"rejected_by,omitempty" gorm:"column:rejected_by"`
	RejectedAt        *time.Time         `json:"rejected_at,omitempty" gorm:"column:rejected_at"`
}

// Overlaps reports whether the shift's [start, end) interval overlaps the
// given interval. End boundaries touching do not overlap.
func (s *Shift) Overlaps(start, end time.Time) bool {
	return s.StartTime.Before(end) && start.Before(s.EndTime)
}

// OnDate reports whether the shift falls on the given calendar date.
func (s *Shift) OnDate(date time.Time) bool {
	return SameDate(s.ShiftDate, date)
}

// DateOnly truncates a timestamp to its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether two timestamps fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
