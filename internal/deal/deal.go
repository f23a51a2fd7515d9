package deal

import (
	"time"

	"github.com/iraunit/ticktime-sub001/internal/lifecycle"
	"github.com/iraunit/ticktime-sub001/internal/review"
)

// Deal is one brand-influencer collaboration on a campaign. Do NOT confuse
// this with a Campaign: a campaign invites many influencers, each invite is
// its own Deal.
//
// Status, the stage timestamps and the protected fields (tracking, ratings,
// rejection reason) only change through a Gateway.
type Deal struct {
	Id           string             `json:"id"`
	CampaignId   string             `json:"campaign_id"`
	InfluencerId string             `json:"influencer_id"`
	BrandId      string             `json:"brand_id"`
	DealType     lifecycle.DealType `json:"deal_type"`

	Status lifecycle.Status `json:"status"`

	// Stage timestamps are append only; once set they are never cleared.
	InvitedAt           *time.Time `json:"invited_at,omitempty"` // also covers the pending entry status
	RespondedAt         *time.Time `json:"responded_at,omitempty"`
	AcceptedAt          *time.Time `json:"accepted_at,omitempty"`
	ShortlistedAt       *time.Time `json:"shortlisted_at,omitempty"`
	AddressRequestedAt  *time.Time `json:"address_requested_at,omitempty"`
	AddressProvidedAt   *time.Time `json:"address_provided_at,omitempty"`
	ShippedAt           *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt         *time.Time `json:"delivered_at,omitempty"`
	ActiveAt            *time.Time `json:"active_at,omitempty"`
	ContentSubmittedAt  *time.Time `json:"content_submitted_at,omitempty"`
	UnderReviewAt       *time.Time `json:"under_review_at,omitempty"`
	RevisionRequestedAt *time.Time `json:"revision_requested_at,omitempty"`
	ApprovedAt          *time.Time `json:"approved_at,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	RejectedAt          *time.Time `json:"rejected_at,omitempty"`
	CancelledAt         *time.Time `json:"cancelled_at,omitempty"`
	DisputeAt           *time.Time `json:"dispute_at,omitempty"`

	ShippingAddress *ShippingAddress `json:"shipping_address,omitempty"`
	TrackingNumber  string           `json:"tracking_number,omitempty"`
	TrackingURL     string           `json:"tracking_url,omitempty"`

	// Only set once the deal is completed
	BrandRating      *int   `json:"brand_rating,omitempty"`
	BrandReview      string `json:"brand_review,omitempty"`
	InfluencerRating *int   `json:"influencer_rating,omitempty"`
	InfluencerReview string `json:"influencer_review,omitempty"`

	// Only set when the deal is rejected or cancelled
	RejectionReason string `json:"rejection_reason,omitempty"`

	Notes string `json:"notes"`

	// Submission order is insertion order.
	SubmittedContent []*ContentSubmission `json:"submitted_content"`

	History []*HistoryEntry `json:"history,omitempty"`

	// Bumped by every successful gateway operation, hosts use it for
	// optimistic concurrency checks.
	Version int64 `json:"version"`
}

// ShippingAddress is where a product is mailed for barter and hybrid deals.
type ShippingAddress struct {
	Name       string `json:"name" validate:"required"`
	AddressOne string `json:"address_line1" validate:"required"`
	AddressTwo string `json:"address_line2,omitempty"`
	City       string `json:"address_city" validate:"required"`
	State      string `json:"address_state,omitempty"`
	Country    string `json:"address_country" validate:"required,len=2"`
	Zip        string `json:"address_zip" validate:"required"`
	Phone      string `json:"phone,omitempty"`
}

// ContentSubmission is one piece of content an influencer submits against
// the deal. It belongs to its deal and has no lifecycle of its own.
type ContentSubmission struct {
	Id          string        `json:"id"`
	Platform    string        `json:"platform"`
	ContentType string        `json:"content_type"`
	URL         string        `json:"url"`
	Caption     string        `json:"caption,omitempty"`
	SubmittedAt time.Time     `json:"submitted_at"`
	Review      review.Status `json:"review_status"`
	ReviewNotes string        `json:"review_notes,omitempty"`
	ReviewedAt  *time.Time    `json:"reviewed_at,omitempty"`
}

// HistoryEntry records one accepted transition.
type HistoryEntry struct {
	From     lifecycle.Status `json:"from"`
	To       lifecycle.Status `json:"to"`
	At       time.Time        `json:"at"`
	Override bool             `json:"override,omitempty"`
}

// New creates a deal for a freshly invited influencer.
func New(id, campaignId, influencerId, brandId string, dt lifecycle.DealType, now time.Time) (*Deal, error) {
	return newDeal(id, campaignId, influencerId, brandId, dt, lifecycle.Invited, now)
}

// NewPending creates a deal in the pending entry status, used when the
// influencer applied rather than being invited.
func NewPending(id, campaignId, influencerId, brandId string, dt lifecycle.DealType, now time.Time) (*Deal, error) {
	return newDeal(id, campaignId, influencerId, brandId, dt, lifecycle.Pending, now)
}

func newDeal(id, campaignId, influencerId, brandId string, dt lifecycle.DealType, entry lifecycle.Status, now time.Time) (*Deal, error) {
	switch {
	case campaignId == "":
		return nil, &lifecycle.ValidationError{Field: "campaign_id", Reason: "required"}
	case influencerId == "":
		return nil, &lifecycle.ValidationError{Field: "influencer_id", Reason: "required"}
	case brandId == "":
		return nil, &lifecycle.ValidationError{Field: "brand_id", Reason: "required"}
	case !dt.Valid():
		return nil, &lifecycle.ValidationError{Field: "deal_type", Reason: "must be cash, product or hybrid"}
	}

	now = now.UTC()
	return &Deal{
		Id:               id,
		CampaignId:       campaignId,
		InfluencerId:     influencerId,
		BrandId:          brandId,
		DealType:         dt,
		Status:           entry,
		InvitedAt:        &now,
		SubmittedContent: []*ContentSubmission{},
	}, nil
}

// stamp returns the timestamp field backing status s.
func (d *Deal) stamp(s lifecycle.Status) **time.Time {
	switch s {
	case lifecycle.Invited, lifecycle.Pending:
		return &d.InvitedAt
	case lifecycle.Accepted:
		return &d.AcceptedAt
	case lifecycle.Shortlisted:
		return &d.ShortlistedAt
	case lifecycle.AddressRequested:
		return &d.AddressRequestedAt
	case lifecycle.AddressProvided:
		return &d.AddressProvidedAt
	case lifecycle.ProductShipped:
		return &d.ShippedAt
	case lifecycle.ProductDelivered:
		return &d.DeliveredAt
	case lifecycle.Active:
		return &d.ActiveAt
	case lifecycle.ContentSubmitted:
		return &d.ContentSubmittedAt
	case lifecycle.UnderReview:
		return &d.UnderReviewAt
	case lifecycle.RevisionRequested:
		return &d.RevisionRequestedAt
	case lifecycle.Approved:
		return &d.ApprovedAt
	case lifecycle.Completed:
		return &d.CompletedAt
	case lifecycle.Rejected:
		return &d.RejectedAt
	case lifecycle.Cancelled:
		return &d.CancelledAt
	case lifecycle.Dispute:
		return &d.DisputeAt
	}
	return nil
}

// StampOf returns when the deal first entered s, or nil if it never did.
func (d *Deal) StampOf(s lifecycle.Status) *time.Time {
	if p := d.stamp(s); p != nil {
		return *p
	}
	return nil
}

// Timestamps is the stage -> timestamp view of the set stamps. The shared
// entry stamp is keyed by the deal's entry status.
func (d *Deal) Timestamps() map[lifecycle.Status]time.Time {
	out := make(map[lifecycle.Status]time.Time)
	for _, s := range lifecycle.AllStatuses {
		if s.IsInitial() && s != d.EntryStatus() {
			continue
		}
		if ts := d.StampOf(s); ts != nil {
			out[s] = *ts
		}
	}
	return out
}

// EntryStatus is the status the deal was created in.
func (d *Deal) EntryStatus() lifecycle.Status {
	if len(d.History) > 0 {
		return d.History[0].From
	}
	return d.Status
}

// StepIndex is the deal's position in the stages relevant to its type, -1
// when off the happy path.
func (d *Deal) StepIndex() int {
	return lifecycle.CurrentStepIndex(d.DealType, d.Status)
}

// Submission returns the submission with the given id.
func (d *Deal) Submission(id string) (int, *ContentSubmission) {
	for i, s := range d.SubmittedContent {
		if s.Id == id {
			return i, s
		}
	}
	return -1, nil
}

// PendingSubmissions returns the submissions still awaiting review.
func (d *Deal) PendingSubmissions() []*ContentSubmission {
	var out []*ContentSubmission
	for _, s := range d.SubmittedContent {
		if s.Review == review.Pending {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks the timestamp invariants: the current status is stamped
// and nothing the deal never reached carries a stamp.
func (d *Deal) Validate() error {
	if !d.Status.Valid() {
		return &lifecycle.ValidationError{Field: "status", Reason: "unknown status " + string(d.Status)}
	}
	if d.StampOf(d.Status) == nil {
		return &lifecycle.ValidationError{Field: "status", Reason: "current status " + string(d.Status) + " has no timestamp"}
	}

	reached := map[lifecycle.Status]bool{d.EntryStatus(): true, d.Status: true}
	for _, h := range d.History {
		reached[h.From] = true
		reached[h.To] = true
	}
	for s := range d.Timestamps() {
		if !reached[s] {
			return &lifecycle.ValidationError{Field: string(s), Reason: "stamped but never reached"}
		}
	}
	return nil
}

// Clone returns a deep copy.
func (d *Deal) Clone() *Deal {
	if d == nil {
		return nil
	}

	c := *d
	for _, s := range lifecycle.AllStatuses {
		if p := c.stamp(s); *p != nil {
			*p = cloneTime(*p)
		}
	}
	c.RespondedAt = cloneTime(d.RespondedAt)

	if d.ShippingAddress != nil {
		addr := *d.ShippingAddress
		c.ShippingAddress = &addr
	}
	c.BrandRating = cloneInt(d.BrandRating)
	c.InfluencerRating = cloneInt(d.InfluencerRating)

	if d.SubmittedContent != nil {
		c.SubmittedContent = make([]*ContentSubmission, len(d.SubmittedContent))
		for i, s := range d.SubmittedContent {
			sc := *s
			sc.ReviewedAt = cloneTime(s.ReviewedAt)
			c.SubmittedContent[i] = &sc
		}
	}

	if d.History != nil {
		c.History = make([]*HistoryEntry, len(d.History))
		for i, h := range d.History {
			hc := *h
			c.History[i] = &hc
		}
	}

	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
