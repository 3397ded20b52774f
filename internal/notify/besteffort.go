package notify

import (
	"context"
	"time"

	"intake-backend/internal/activitylog"
	"intake-backend/internal/shared/telemetry"
)

// Result is the observable outcome of one best-effort send.
type Result struct {
	SubjectID string
	Err       error
}

// Sender is the narrow interface BestEffort drives.
type Sender interface {
	Enabled() bool
	Send(ctx context.Context, text string) error
}

// BestEffort runs sends whose failure must never reach the caller. Outcomes
// go to the activity log and, when Results is set, to the channel (non
// blocking, so a slow reader cannot stall the wizard).
type BestEffort struct {
	Client   Sender
	Activity *activitylog.Log
	Location *time.Location

	// Results receives one value per attempted send. Optional, used by tests.
	Results chan Result
}

// Notify formats and sends the alert. It never returns an error.
func (b *BestEffort) Notify(ctx context.Context, alert Alert) {
	if b == nil || b.Client == nil || !b.Client.Enabled() {
		return
	}
	if alert.Location == nil {
		alert.Location = b.Location
	}
	if alert.SentAt.IsZero() {
		alert.SentAt = time.Now()
	}

	err := b.Client.Send(ctx, FormatAlert(alert))
	if err != nil {
		telemetry.Warn("recruiter alert failed", map[string]any{
			"subject_id": alert.App.SubjectID,
			"error":      err.Error(),
		})
		if b.Activity != nil {
			b.Activity.Record("recruiter alert failed", alert.App.SubjectID, alert.App.CurrentStep, err)
		}
	} else if b.Activity != nil {
		b.Activity.Record("recruiter alert sent", alert.App.SubjectID, alert.App.CurrentStep, nil)
	}

	if b.Results != nil {
		select {
		case b.Results <- Result{SubjectID: alert.App.SubjectID, Err: err}:
		default:
		}
	}
}
