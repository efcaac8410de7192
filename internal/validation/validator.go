// Package validation holds the capacity and overlap checks for shift drafts.
// The checks are pure: callers load the relevant existing shifts and pass them
// in, so the same code serves single assignments and bulk items alike.
package validation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"example.com/fleetops/services/scheduler/internal/models"
)

// VehicleCapacity is the maximum number of distinct drivers that may hold
// overlapping shifts on one vehicle on the same date.
const VehicleCapacity = 2

// ConflictKind identifies the validation rule a draft violated
type ConflictKind string

const (
	// ConflictInvalidTimeRange means the draft's start is not before its end
	ConflictInvalidTimeRange ConflictKind = "INVALID_TIME_RANGE"
	// ConflictOverlap means the driver already holds an overlapping shift
	ConflictOverlap ConflictKind = "OVERLAP"
	// ConflictCapacityExceeded means the vehicle already carries its maximum drivers
	ConflictCapacityExceeded ConflictKind = "CAPACITY_EXCEEDED"
)

// Conflict describes a validation failure for one shift draft
type Conflict struct {
	Kind                ConflictKind `json:"kind"`
	Message             string       `json:"message"`
	ConflictingShiftIDs []uuid.UUID  `json:"conflicting_shift_ids,omitempty"`
}

// Error implements the error interface
func (c *Conflict) Error() string {
	return fmt.Sprintf("%s: %s", c.Kind, c.Message)
}

// ShiftDraft is a candidate shift before it is written
type ShiftDraft struct {
	// ShiftID is set when editing an existing shift so the shift does not
	// conflict with itself.
	ShiftID   *uuid.UUID
	DriverID  uuid.UUID
	VehicleID uuid.UUID
	ShiftDate time.Time
	StartTime time.Time
	EndTime   time.Time
}

// blocks reports whether an existing shift participates in conflict checks
// against the draft. Rejected and expired shifts never block a new assignment;
// a recreate after rejection is an explicit new row.
func blocks(draft ShiftDraft, shift models.Shift) bool {
	if draft.ShiftID != nil && shift.ID == *draft.ShiftID {
		return false
	}
	if !shift.Status.CountsAgainstCapacity() {
		return false
	}
	return shift.OnDate(draft.ShiftDate)
}

// CheckFunc validates one draft against the existing shifts on its date
type CheckFunc func(draft ShiftDraft, existing []models.Shift) *Conflict

// CheckShift validates a draft against the existing shifts on the same date.
// The first conflict found wins; bulk callers aggregate per item. A nil return
// means the draft passes.
func CheckShift(draft ShiftDraft, existing []models.Shift) *Conflict {
	if !draft.StartTime.Before(draft.EndTime) {
		return &Conflict{
			Kind:    ConflictInvalidTimeRange,
			Message: "shift start time must be before end time",
		}
	}

	if c := checkDriverOverlap(draft, existing); c != nil {
		return c
	}
	return checkVehicleCapacity(draft, existing)
}

// CheckCopy validates a week-copy draft. Copies keep the vehicle capacity
// rule but not the driver self-overlap rule: repeating a copy duplicates the
// driver's own rows rather than rejecting them, matching how operators use
// copy plus clear to iterate on a week.
func CheckCopy(draft ShiftDraft, existing []models.Shift) *Conflict {
	if !draft.StartTime.Before(draft.EndTime) {
		return &Conflict{
			Kind:    ConflictInvalidTimeRange,
			Message: "shift start time must be before end time",
		}
	}
	return checkVehicleCapacity(draft, existing)
}

// checkDriverOverlap enforces that the draft's driver holds no other shift
// with an overlapping [start, end) interval on the same date, regardless of
// vehicle.
func checkDriverOverlap(draft ShiftDraft, existing []models.Shift) *Conflict {
	for _, shift := range existing {
		if !blocks(draft, shift) {
			continue
		}
		if shift.DriverID != draft.DriverID {
			continue
		}
		if shift.Overlaps(draft.StartTime, draft.EndTime) {
			return &Conflict{
				Kind:                ConflictOverlap,
				Message:             "driver already has an overlapping shift on this date",
				ConflictingShiftIDs: []uuid.UUID{shift.ID},
			}
		}
	}
	return nil
}

// checkVehicleCapacity enforces that at most VehicleCapacity distinct drivers
// hold overlapping shifts on the draft's vehicle and date. The draft's own
// driver does not count against the limit: re-assigning or editing the same
// driver never trips capacity.
func checkVehicleCapacity(draft ShiftDraft, existing []models.Shift) *Conflict {
	occupants := make(map[uuid.UUID][]uuid.UUID)
	for _, shift := range existing {
		if !blocks(draft, shift) {
			continue
		}
		if shift.VehicleID != draft.VehicleID || shift.DriverID == draft.DriverID {
			continue
		}
		if shift.Overlaps(draft.StartTime, draft.EndTime) {
			occupants[shift.DriverID] = append(occupants[shift.DriverID], shift.ID)
		}
	}

	if len(occupants) < VehicleCapacity {
		return nil
	}

	var ids []uuid.UUID
	for _, shiftIDs := range occupants {
		ids = append(ids, shiftIDs...)
	}
	return &Conflict{
		Kind:                ConflictCapacityExceeded,
		Message:             fmt.Sprintf("vehicle already has %d drivers assigned for this window", len(occupants)),
		ConflictingShiftIDs: ids,
	}
}
