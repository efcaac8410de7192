package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"example.com/fleetops/services/scheduler/internal/models"
	"example.com/fleetops/services/scheduler/internal/repository"
)

// DecisionEvent is published to the decision queue after an approval action
type DecisionEvent struct {
	ShiftID   uuid.UUID `json:"shift_id"`
	DriverID  uuid.UUID `json:"driver_id"`
	VehicleID uuid.UUID `json:"vehicle_id"`
	ShiftDate string    `json:"shift_date"`
	Decision  string    `json:"decision"`
	Actor     string    `json:"actor"`
	Reason    string    `json:"reason,omitempty"`
}

// decide reloads the shift inside a transaction, checks it is still pending,
// and applies the mutation. Approvals racing each other settle here: the
// second reload sees the first one's terminal status.
func (s *service) decide(ctx context.Context, id uuid.UUID, mutate func(shift *models.Shift)) (*models.Shift, error) {
	var decided *models.Shift
	var expired bool
	err := s.shiftRepo.WithTransaction(ctx, func(txRepo repository.ShiftRepository) error {
		shift, err := txRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if shift.Status == models.ShiftStatusPending && shift.ShiftDate.Before(models.DateOnly(time.Now())) {
			// The date passed before anyone acted; settle the expiry now.
			// The transaction must commit, so the error is surfaced after.
			shift.Status = models.ShiftStatusExpired
			shift.Driver = nil
			shift.Vehicle = nil
			expired = true
			_, err := txRepo.Update(ctx, shift)
			return err
		}
		if shift.Status != models.ShiftStatusPending {
			return ErrInvalidTransition
		}

		mutate(shift)
		shift.Driver = nil
		shift.Vehicle = nil
		decided, err = txRepo.Update(ctx, shift)
		return err
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, ErrInvalidTransition
	}
	return decided, nil
}

// publishDecision sends the decision event to the bus and indexes it for
// audit search. Both are best effort and never fail the decision itself.
func (s *service) publishDecision(ctx context.Context, shift *models.Shift, actor, decision, reason string) {
	if s.bus != nil {
		event := DecisionEvent{
			ShiftID:   shift.ID,
			DriverID:  shift.DriverID,
			VehicleID: shift.VehicleID,
			ShiftDate: shift.ShiftDate.Format(DateFormat),
			Decision:  decision,
			Actor:     actor,
			Reason:    reason,
		}
		if err := s.bus.SendMessage(ctx, event); err != nil {
			s.log.WithError(err).Warn("Failed to publish decision event")
		}
	}

	if s.esClient != nil {
		if err := s.esClient.IndexDecision(ctx, shift, actor, decision); err != nil {
			s.log.WithError(err).Warn("Failed to index decision")
		}
	}
}

// ApproveShift approves a pending shift, recording the actor and timestamp.
// The approver capability itself is checked at the API boundary.
func (s *service) ApproveShift(ctx context.Context, id uuid.UUID, actor string) (*models.Shift, error) {
	shift, err := s.decide(ctx, id, func(shift *models.Shift) {
		now := time.Now()
		shift.Status = models.ShiftStatusApproved
		shift.ApprovedBy = &actor
		shift.ApprovedAt = &now
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(map[string]interface{}{
		"shift_id": shift.ID,
		"actor":    actor,
	}).Info("Shift approved")

	s.publishDecision(ctx, shift, actor, "approved", "")
	return shift, nil
}

// RejectShift rejects a pending shift with a reason. An empty reason falls
// back to a fixed placeholder.
func (s *service) RejectShift(ctx context.Context, id uuid.UUID, actor, reason string) (*models.Shift, error) {
	if reason == "" {
		reason = DefaultRejectionReason
	}

	shift, err := s.decide(ctx, id, func(shift *models.Shift) {
		now := time.Now()
		shift.Status = models.ShiftStatusRejected
		shift.RejectionReason = &reason
		shift.RejectedBy = &actor
		shift.RejectedAt = &now
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(map[string]interface{}{
		"shift_id": shift.ID,
		"actor":    actor,
		"reason":   reason,
	}).Info("Shift rejected")

	s.publishDecision(ctx, shift, actor, "rejected", reason)
	return shift, nil
}
