package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"example.com/fleetops/services/scheduler/internal/models"
	"example.com/fleetops/services/scheduler/internal/repository"
)

// Trip event types emitted by the trip-execution subsystem
const (
	TripEventStarted   = "trip-started"
	TripEventCompleted = "trip-completed"
)

// TripEvent is the message the trip-execution subsystem publishes when a
// shift's trip starts or finishes. These are the only writers of the
// operational ACTIVE and COMPLETED statuses.
type TripEvent struct {
	ShiftID   uuid.UUID `json:"shift_id"`
	EventType string    `json:"event_type"`
	Timestamp string    `json:"timestamp"`
}

// ProcessTripEvent applies a trip-execution event to the referenced shift.
// Terminal shifts are left untouched; the event is logged and dropped so the
// queue does not loop on it.
func (s *service) ProcessTripEvent(ctx context.Context, body []byte) error {
	var event TripEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to unmarshal trip event: %w", err)
	}

	var target models.ShiftStatus
	switch event.EventType {
	case TripEventStarted:
		target = models.ShiftStatusActive
	case TripEventCompleted:
		target = models.ShiftStatusCompleted
	default:
		return fmt.Errorf("unknown trip event type %q", event.EventType)
	}

	err := s.shiftRepo.WithTransaction(ctx, func(txRepo repository.ShiftRepository) error {
		shift, err := txRepo.GetByID(ctx, event.ShiftID)
		if err != nil {
			return err
		}

		if shift.Status.IsTerminal() {
			s.log.WithFields(map[string]interface{}{
				"shift_id": shift.ID,
				"status":   shift.Status,
				"event":    event.EventType,
			}).Warn("Trip event for terminal shift dropped")
			return nil
		}

		// trip-started is only meaningful for an approved shift; a completion
		// may close out either an active or an approved shift when the start
		// event was missed.
		if target == models.ShiftStatusActive && shift.Status != models.ShiftStatusApproved {
			s.log.WithFields(map[string]interface{}{
				"shift_id": shift.ID,
				"status":   shift.Status,
			}).Warn("Trip start for non-approved shift dropped")
			return nil
		}
		if target == models.ShiftStatusCompleted &&
			shift.Status != models.ShiftStatusActive && shift.Status != models.ShiftStatusApproved {
			s.log.WithFields(map[string]interface{}{
				"shift_id": shift.ID,
				"status":   shift.Status,
			}).Warn("Trip completion for unstarted shift dropped")
			return nil
		}

		shift.Status = target
		shift.Driver = nil
		shift.Vehicle = nil
		_, err = txRepo.Update(ctx, shift)
		return err
	})
	if err != nil {
		return err
	}

	s.log.WithFields(map[string]interface{}{
		"shift_id": event.ShiftID,
		"event":    event.EventType,
	}).Info("Trip event processed")
	return nil
}
