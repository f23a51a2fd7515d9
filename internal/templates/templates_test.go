package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iraunit/ticktime-sub001/internal/lifecycle"
)

func TestEveryStatusHasALabel(t *testing.T) {
	for _, s := range lifecycle.AllStatuses {
		l := LabelOf(s)
		assert.NotEmpty(t, l.Text, s)
		assert.NotEmpty(t, l.Color, s)
		_, ok := Labels[s]
		assert.True(t, ok, "%s missing from Labels", s)
	}
	assert.Equal(t, Label{Text: "mystery", Color: "gray"}, LabelOf("mystery"))
}

func TestTimeline(t *testing.T) {
	at := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	tl := NewTimeline(lifecycle.ProductShipped, TimelineData{
		InfluencerId: "inf-3",
		Tracking:     "TRK42",
		TrackingURL:  "https://track.example.com/TRK42",
	}, at)
	require.NotNil(t, tl)
	assert.Equal(t, "Product shipped to inf-3 (tracking TRK42).", tl.Message)
	assert.Equal(t, at.Unix(), tl.TS)
	assert.Equal(t, "https://track.example.com/TRK42", tl.Link)

	tl = NewTimeline(lifecycle.Cancelled, TimelineData{}, at)
	assert.Equal(t, "Deal was cancelled.", tl.Message)

	tl = NewTimeline(lifecycle.Cancelled, TimelineData{Reason: "budget cut"}, at)
	assert.Equal(t, "Deal was cancelled. Reason: budget cut", tl.Message)

	tl = NewTimeline(lifecycle.Completed, TimelineData{Rating: 4, TrackingURL: "https://track.example.com/TRK42"}, at)
	assert.Equal(t, "Deal completed with a 4/5 rating.", tl.Message)
	assert.Empty(t, tl.Link)

	for _, s := range []lifecycle.Status{lifecycle.ProductDelivered, lifecycle.Active, lifecycle.Cancelled} {
		tl = NewTimeline(s, TimelineData{TrackingURL: "https://track.example.com/TRK42"}, at)
		assert.Empty(t, tl.Link, s)
	}

	for _, s := range lifecycle.AllStatuses {
		assert.NotNil(t, NewTimeline(s, TimelineData{}, at), s)
	}
	assert.Nil(t, NewTimeline(lifecycle.InvalidStatus, TimelineData{}, at))
}
