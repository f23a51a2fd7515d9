package review

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iraunit/ticktime-sub001/internal/lifecycle"
)

func TestReview(t *testing.T) {
	for _, tc := range []struct {
		name     string
		cur      Status
		action   Action
		feedback string
		want     Status
		err      error
	}{
		{"approve", Pending, Approve, "", Approved, nil},
		{"approve with notes", Pending, Approve, "love it", Approved, nil},
		{"reject", Pending, Reject, "needs better lighting", Rejected, nil},
		{"reject without feedback", Pending, Reject, "", Pending, lifecycle.ErrValidation},
		{"reject with blank feedback", Pending, Reject, "  \t", Pending, lifecycle.ErrValidation},
		{"revision", Pending, RequestRevision, "tag the brand", RevisionRequested, nil},
		{"revision without feedback", Pending, RequestRevision, "", Pending, lifecycle.ErrValidation},
		{"approve twice", Approved, Approve, "", Approved, lifecycle.ErrInvalidState},
		{"reject approved", Approved, Reject, "changed my mind", Approved, lifecycle.ErrInvalidState},
		{"approve rejected", Rejected, Approve, "", Rejected, lifecycle.ErrInvalidState},
		{"review revised", RevisionRequested, Approve, "", RevisionRequested, lifecycle.ErrInvalidState},
		{"unknown action", Pending, Action("archive"), "", Pending, lifecycle.ErrValidation},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Review("sub-1", tc.cur, tc.action, tc.feedback)
			if tc.err != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.err), "got %v", err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReviewInvalidStateCarriesID(t *testing.T) {
	_, err := Review("sub-9", Approved, Approve, "")
	var ise *lifecycle.InvalidStateError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, "sub-9", ise.SubmissionID)
	assert.Equal(t, "approved", ise.State)
}

func TestReviewFeedbackGuard(t *testing.T) {
	for _, a := range []Action{Reject, RequestRevision} {
		got, err := Review("sub-3", Pending, a, " ")
		var verr *lifecycle.ValidationError
		require.True(t, errors.As(err, &verr), "%s: %v", a, err)
		assert.Equal(t, "feedback", verr.Field)
		assert.Contains(t, verr.Reason, strings.Replace(string(a), "_", " ", -1))
		assert.Equal(t, Pending, got)
	}
}

func TestReviewConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			action, fb, want := Approve, "", Approved
			if i%2 == 1 {
				action, fb, want = Reject, "off brief", Rejected
			}
			got, err := Review("sub", Pending, action, fb)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}(i)
	}
	wg.Wait()
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("Request_Revision")
	require.NoError(t, err)
	assert.Equal(t, RequestRevision, a)
	assert.True(t, a.NeedsFeedback())
	assert.False(t, Approve.NeedsFeedback())

	_, err = ParseAction("")
	assert.True(t, errors.Is(err, lifecycle.ErrValidation))
}
