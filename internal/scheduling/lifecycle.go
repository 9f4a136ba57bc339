package scheduling

import (
	"time"

	"clinic-scheduling/internal/apierrors"
)

// The lifecycle methods below mutate the appointment in memory only; persisting the
// transition is the repository's job and is conditioned on the prior status, so a
// stale caller can never regress an appointment that moved on concurrently.
//
// Each timestamp is set exactly once, by the matching transition, and the guards
// make every action from a terminal status fail without mutation.

// Confirm moves a scheduled appointment to confirmed.
func (a *Appointment) Confirm(now time.Time) error {
	if a.Status != StatusScheduled {
		return apierrors.NewInvalidTransitionError(string(a.Status), "confirm")
	}
	a.Status = StatusConfirmed
	a.ConfirmedAt = &now
	return nil
}

// Start moves a scheduled or confirmed appointment to in-progress.
func (a *Appointment) Start(now time.Time) error {
	if a.Status != StatusScheduled && a.Status != StatusConfirmed {
		return apierrors.NewInvalidTransitionError(string(a.Status), "start")
	}
	a.Status = StatusInProgress
	a.StartedAt = &now
	return nil
}

// Complete closes an in-progress appointment, keeping the session notes if any were
// taken.
func (a *Appointment) Complete(now time.Time, sessionNotes *string) error {
	if a.Status != StatusInProgress {
		return apierrors.NewInvalidTransitionError(string(a.Status), "complete")
	}
	a.Status = StatusCompleted
	a.CompletedAt = &now
	if sessionNotes != nil {
		a.SessionNotes = sessionNotes
	}
	return nil
}

// Cancel cancels any non-terminal appointment, recording who asked for it and why.
func (a *Appointment) Cancel(now time.Time, reason string, cancelledBy CancelActor, notes *string) error {
	if a.Status.IsTerminal() {
		return apierrors.NewInvalidTransitionError(string(a.Status), "cancel")
	}
	a.Status = StatusCancelled
	a.CancelledAt = &now
	a.CancellationReason = &reason
	a.CancelledBy = &cancelledBy
	a.CancellationNotes = notes
	return nil
}

// MarkNoShow marks a missed appointment. A session that already started is completed
// or cancelled instead, so the marking is only valid before the start.
func (a *Appointment) MarkNoShow() error {
	if a.Status != StatusScheduled && a.Status != StatusConfirmed {
		return apierrors.NewInvalidTransitionError(string(a.Status), "mark as no-show")
	}
	a.Status = StatusNoShow
	return nil
}

// Deletable tells whether the appointment may still be hard-deleted. Terminal
// appointments are part of the clinical record and stay.
func (a Appointment) Deletable() bool {
	return !a.Status.IsTerminal()
}

// ReportEligible tells whether the appointment unlocks report authoring for the
// report subsystem. The scheduling core only answers the question, it never creates
// reports itself.
func (a Appointment) ReportEligible() bool {
	return a.Status == StatusCompleted
}
