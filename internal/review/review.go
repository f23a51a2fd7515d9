// Package review drives the per-submission content review workflow.
//
// A submission starts pending and is closed by exactly one brand action:
// approve, reject or request a revision. A closed submission is never
// reopened; the influencer answers a revision request with a new submission.
package review

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/iraunit/ticktime-sub001/internal/lifecycle"
)

// Status is the review state of one content submission.
type Status string

const (
	Pending           Status = "pending"
	Approved          Status = "approved"
	Rejected          Status = "rejected"
	RevisionRequested Status = "revision_requested"
)

func (s Status) Valid() bool {
	switch s {
	case Pending, Approved, Rejected, RevisionRequested:
		return true
	}
	return false
}

// IsClosed reports whether the submission can no longer be reviewed.
func (s Status) IsClosed() bool { return s != Pending }

// Action is a brand review decision.
type Action string

const (
	Approve         Action = "approve"
	Reject          Action = "reject"
	RequestRevision Action = "request_revision"
)

func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case Approve, Reject, RequestRevision:
		return a, nil
	}
	return "", &lifecycle.ValidationError{Field: "action", Reason: "unknown review action " + strconv.Quote(s)}
}

// NeedsFeedback reports whether the action must carry reviewer feedback.
func (a Action) NeedsFeedback() bool { return a == Reject || a == RequestRevision }

const machineID = "content_review"

const (
	statePending  statekit.StateID = statekit.StateID(Pending)
	stateApproved statekit.StateID = statekit.StateID(Approved)
	stateRejected statekit.StateID = statekit.StateID(Rejected)
	stateRevision statekit.StateID = statekit.StateID(RevisionRequested)
)

// machineContext is owned by a single interpreter, never shared.
type machineContext struct {
	Outcome Status
}

var (
	machineOnce sync.Once
	machine     *statekit.MachineConfig[*machineContext]
	machineErr  error
)

func reviewMachine() (*statekit.MachineConfig[*machineContext], error) {
	machineOnce.Do(func() {
		machine, machineErr = statekit.NewMachine[*machineContext](machineID).
			WithInitial(statePending).
			WithContext(&machineContext{}).
			WithAction("settle", settle).
			WithGuard("hasFeedback", guardHasFeedback).
			State(statePending).
				On(eventFor(Approve)).Target(stateApproved).Do("settle").
				On(eventFor(Reject)).Target(stateRejected).Guard("hasFeedback").Do("settle").
				On(eventFor(RequestRevision)).Target(stateRevision).Guard("hasFeedback").Do("settle").
				Done().
			State(stateApproved).
				Final().
				Done().
			State(stateRejected).
				Final().
				Done().
			State(stateRevision).
				Final().
				Done().
			Build()
	})
	return machine, machineErr
}

func eventFor(a Action) statekit.EventType {
	return statekit.EventType(strings.ToUpper(string(a)))
}

func outcomeOf(t statekit.EventType) Status {
	switch t {
	case eventFor(Approve):
		return Approved
	case eventFor(Reject):
		return Rejected
	case eventFor(RequestRevision):
		return RevisionRequested
	}
	return Pending
}

func settle(ctx **machineContext, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	(*ctx).Outcome = outcomeOf(event.Type)
}

func guardHasFeedback(_ *machineContext, event statekit.Event) bool {
	fb, _ := event.Payload.(string)
	return strings.TrimSpace(fb) != ""
}

// Review applies action to a submission currently in state cur and returns
// the resulting state. Resolved submissions fail with InvalidStateError;
// reject and request_revision without feedback fail with ValidationError.
func Review(submissionID string, cur Status, action Action, feedback string) (Status, error) {
	if !cur.Valid() || cur.IsClosed() {
		return cur, &lifecycle.InvalidStateError{SubmissionID: submissionID, State: string(cur)}
	}
	if _, err := ParseAction(string(action)); err != nil {
		return cur, err
	}

	m, err := reviewMachine()
	if err != nil {
		return cur, err
	}

	mctx := &machineContext{}
	interp := statekit.NewInterpreter(m)
	interp.UpdateContext(func(c **machineContext) {
		*c = mctx
	})
	if err := interp.Restore(statekit.Snapshot[*machineContext]{
		MachineID:    machineID,
		CurrentState: statekit.StateID(cur),
		Context:      mctx,
		CreatedAt:    time.Now(),
	}); err != nil {
		return cur, err
	}

	if interp.Done() {
		return cur, &lifecycle.InvalidStateError{SubmissionID: submissionID, State: string(cur)}
	}

	interp.Send(statekit.Event{Type: eventFor(action), Payload: feedback})

	next := Status(interp.State().Value)
	if next == cur || mctx.Outcome != next {
		// hasFeedback refused the event
		return cur, &lifecycle.ValidationError{Field: "feedback", Reason: "required to " + strings.Replace(string(action), "_", " ", -1)}
	}
	return next, nil
}
