package templates

import (
	"time"

	"github.com/hoisie/mustache"

	"github.com/iraunit/ticktime-sub001/internal/lifecycle"
)

// Timeline is one entry of a deal's activity feed.
type Timeline struct {
	Message string `json:"msg,omitempty"`
	TS      int64  `json:"ts,omitempty"`
	Link    string `json:"link,omitempty"`
}

// TimelineData is the view rendered into a timeline message.
type TimelineData struct {
	DealId       string
	InfluencerId string
	Tracking     string
	TrackingURL  string
	Rating       int
	Reason       string
	Feedback     string
	Platform     string
}

var timelineMessages = map[lifecycle.Status]*mustache.Template{
	lifecycle.Invited:           MustacheMust("Influencer {{InfluencerId}} was invited to the campaign."),
	lifecycle.Pending:           MustacheMust("Influencer {{InfluencerId}} applied to the campaign."),
	lifecycle.Accepted:          MustacheMust("Influencer {{InfluencerId}} accepted the deal."),
	lifecycle.Rejected:          MustacheMust("Deal was rejected.{{#Reason}} Reason: {{{Reason}}}{{/Reason}}"),
	lifecycle.Shortlisted:       MustacheMust("Influencer {{InfluencerId}} was shortlisted."),
	lifecycle.AddressRequested:  MustacheMust("Shipping address requested from {{InfluencerId}}."),
	lifecycle.AddressProvided:   MustacheMust("Influencer {{InfluencerId}} provided a shipping address."),
	lifecycle.ProductShipped:    MustacheMust("Product shipped to {{InfluencerId}} (tracking {{Tracking}})."),
	lifecycle.ProductDelivered:  MustacheMust("Product delivered to {{InfluencerId}}."),
	lifecycle.Active:            MustacheMust("Influencer {{InfluencerId}} is now making content."),
	lifecycle.ContentSubmitted:  MustacheMust("Content submitted{{#Platform}} on {{Platform}}{{/Platform}}."),
	lifecycle.UnderReview:       MustacheMust("Content is under review."),
	lifecycle.RevisionRequested: MustacheMust("Revision requested.{{#Feedback}} Feedback: {{{Feedback}}}{{/Feedback}}"),
	lifecycle.Approved:          MustacheMust("Content approved."),
	lifecycle.Completed:         MustacheMust("Deal completed with a {{Rating}}/5 rating."),
	lifecycle.Cancelled:         MustacheMust("Deal was cancelled.{{#Reason}} Reason: {{{Reason}}}{{/Reason}}"),
	lifecycle.Dispute:           MustacheMust("Deal is in dispute."),
}

// NewTimeline renders the feed entry for a deal entering status s.
func NewTimeline(s lifecycle.Status, data TimelineData, at time.Time) *Timeline {
	t, ok := timelineMessages[s]
	if !ok {
		return nil
	}
	tl := &Timeline{
		Message: t.Render(data),
		TS:      at.Unix(),
	}
	if s == lifecycle.ProductShipped {
		tl.Link = data.TrackingURL
	}
	return tl
}
