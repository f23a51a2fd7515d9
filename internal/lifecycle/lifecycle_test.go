package lifecycle

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevantStages(t *testing.T) {
	for _, dt := range []DealType{Cash, Product, Hybrid} {
		stages := RelevantStages(dt)
		var barter int
		for _, s := range stages {
			if IsBarterOnly(s) {
				barter++
			}
		}
		if dt == Cash {
			assert.Zero(t, barter, "cash deals must not include shipping stages")
			assert.Len(t, stages, 10)
		} else {
			assert.Equal(t, 4, barter, dt)
			assert.Len(t, stages, 14)
		}
		assert.Equal(t, Invited, stages[0])
		assert.Equal(t, Completed, stages[len(stages)-1])
	}

	// callers get their own copy
	a := RelevantStages(Product)
	a[0] = Dispute
	assert.Equal(t, Invited, RelevantStages(Product)[0])
}

func TestCurrentStepIndex(t *testing.T) {
	for _, tc := range []struct {
		dt   DealType
		st   Status
		want int
	}{
		{Cash, Invited, 0},
		{Cash, Shortlisted, 3},
		{Cash, Active, 4},
		{Product, Active, 8},
		{Hybrid, ProductShipped, 6},
		{Cash, ProductShipped, -1},
		{Product, Rejected, -1},
		{Product, Dispute, -1},
		{Cash, Cancelled, -1},
	} {
		assert.Equal(t, tc.want, CurrentStepIndex(tc.dt, tc.st), "%s/%s", tc.dt, tc.st)
	}
}

func TestTerminalStatusesAreClosed(t *testing.T) {
	for _, st := range []Status{Completed, Cancelled, Rejected, Dispute} {
		assert.True(t, st.IsTerminal())
		for _, dt := range []DealType{Cash, Product, Hybrid} {
			assert.Empty(t, LegalNext(st, dt), "%s should have no way out", st)
		}
	}
}

func TestEscapeHatch(t *testing.T) {
	for _, st := range AllStatuses {
		if st.IsTerminal() {
			continue
		}
		for _, dt := range []DealType{Cash, Product, Hybrid} {
			if !dt.Applies(st) {
				continue
			}
			assert.True(t, CanTransition(st, Cancelled, dt), "%s -> cancelled", st)
			assert.True(t, CanTransition(st, Dispute, dt), "%s -> dispute", st)
		}
	}
}

func TestGraph(t *testing.T) {
	for _, tc := range []struct {
		from, to Status
		dt       DealType
		ok       bool
	}{
		{Invited, Accepted, Cash, true},
		{Pending, Rejected, Cash, true},
		{Pending, Shortlisted, Cash, false},
		{Accepted, Shortlisted, Product, true},
		{Accepted, Rejected, Product, true},
		{Accepted, AddressRequested, Cash, false},
		{Accepted, AddressRequested, Product, false},
		{Shortlisted, AddressRequested, Product, true},
		{Shortlisted, AddressRequested, Cash, false},
		{Shortlisted, Active, Cash, true},
		{Shortlisted, Active, Hybrid, true},
		{Shortlisted, ProductShipped, Product, true},
		{AddressRequested, Active, Product, true},
		{AddressProvided, ProductShipped, Product, true},
		{AddressProvided, ProductDelivered, Hybrid, true},
		{AddressProvided, Active, Product, true},
		{AddressRequested, ProductShipped, Hybrid, true},
		{AddressRequested, ProductShipped, Cash, false},
		{Shortlisted, ContentSubmitted, Product, false},
		{ProductShipped, ProductDelivered, Product, true},
		{ProductShipped, Active, Product, true},
		{ProductShipped, AddressProvided, Product, false},
		{ProductDelivered, Active, Product, true},
		{ProductDelivered, ContentSubmitted, Product, false},
		{Active, ContentSubmitted, Cash, true},
		{Active, Approved, Cash, false},
		{ContentSubmitted, UnderReview, Cash, true},
		{UnderReview, RevisionRequested, Cash, true},
		{UnderReview, Approved, Cash, true},
		{RevisionRequested, UnderReview, Cash, true},
		{RevisionRequested, ContentSubmitted, Cash, false},
		{Approved, Completed, Cash, true},
		{Approved, UnderReview, Cash, false},
		{Active, Shortlisted, Cash, false},
		{Active, Rejected, Cash, false},
	} {
		assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to, tc.dt), "%s -> %s (%s)", tc.from, tc.to, tc.dt)
	}
}

func TestNoBackwardEdges(t *testing.T) {
	for _, from := range AllStatuses {
		fi, ok := stageOrder[from]
		if !ok {
			continue
		}
		for _, to := range LegalNext(from, Product) {
			ti, ok := stageOrder[to]
			if !ok {
				continue
			}
			if from == RevisionRequested && to == UnderReview {
				continue
			}
			assert.Greater(t, ti, fi, "%s -> %s goes backwards", from, to)
		}
	}
}

func TestRequirementFor(t *testing.T) {
	assert.True(t, RequirementFor(ProductShipped).TrackingNumber)
	assert.True(t, RequirementFor(Completed).Rating)
	assert.True(t, RequirementFor(Cancelled).AllowsRejection)
	assert.Equal(t, Requirement{}, RequirementFor(Active))
}

func TestParse(t *testing.T) {
	st, err := ParseStatus(" Under_Review ")
	require.NoError(t, err)
	assert.Equal(t, UnderReview, st)

	_, err = ParseStatus("paid")
	assert.True(t, errors.Is(err, ErrValidation))

	dt, err := ParseDealType("HYBRID")
	require.NoError(t, err)
	assert.Equal(t, Hybrid, dt)

	_, err = ParseDealType("barter")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "deal_type", verr.Field)
}

func TestKind(t *testing.T) {
	wrapped := fmt.Errorf("saving deal 4: %w", &IllegalTransitionError{From: Active, To: Completed})
	assert.Equal(t, KindIllegalTransition, Kind(wrapped))
	assert.Equal(t, KindValidation, Kind(&ValidationError{Field: "rating"}))
	assert.Equal(t, KindInvalidState, Kind(&InvalidStateError{SubmissionID: "x", State: "approved"}))
	assert.Equal(t, KindInternal, Kind(errors.New("disk full")))
}
