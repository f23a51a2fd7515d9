package deal

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iraunit/ticktime-sub001/internal/lifecycle"
	"github.com/iraunit/ticktime-sub001/internal/review"
)

var ErrNilDeal = errors.New("nil deal")

// Payload is the optional side data of a transition.
type Payload struct {
	TrackingNumber string `json:"tracking_number,omitempty" validate:"max=128"`
	TrackingURL    string `json:"tracking_url,omitempty" validate:"omitempty,url"`

	Rating           *int   `json:"rating,omitempty"`
	Review           string `json:"review,omitempty" validate:"max=4000"`
	InfluencerRating *int   `json:"influencer_rating,omitempty"`
	InfluencerReview string `json:"influencer_review,omitempty" validate:"max=4000"`

	RejectionReason string `json:"rejection_reason,omitempty" validate:"max=1000"`

	// Override marks a manual jump (admin button, ops script) in the history.
	Override bool `json:"override,omitempty"`
}

// SubmissionInput is what an influencer sends when submitting content.
type SubmissionInput struct {
	Platform    string `json:"platform" validate:"required,oneof=instagram youtube tiktok twitter facebook blog other"`
	ContentType string `json:"content_type" validate:"required,max=64"`
	URL         string `json:"url" validate:"required,url"`
	Caption     string `json:"caption,omitempty" validate:"max=2200"`
}

// Gateway is the single choke point for deal state changes. Every method is
// pure with respect to its input: the passed deal is never modified, a
// changed copy is returned on success and nothing is returned on failure.
//
// Gateway does no locking. Hosts must run read, apply and write for a given
// deal under their own mutual exclusion (the server does it in one bolt
// update transaction).
type Gateway struct {
	Now func() time.Time
	Log logrus.FieldLogger

	validate *validator.Validate
}

func NewGateway(log logrus.FieldLogger) *Gateway {
	if log == nil {
		log = logrus.StandardLogger()
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Gateway{
		Now:      time.Now,
		Log:      log,
		validate: v,
	}
}

func (g *Gateway) now() time.Time { return g.Now().UTC() }

// ApplyTransition moves d to status `to`. It fails with an
// IllegalTransitionError when d is terminal or `to` isn't reachable under
// the deal type policy, and with a ValidationError when p is missing
// required data or carries a protected field the transition can't set.
func (g *Gateway) ApplyTransition(d *Deal, to lifecycle.Status, p Payload) (*Deal, error) {
	if d == nil {
		return nil, ErrNilDeal
	}

	if err := g.check(d, to, p); err != nil {
		g.logFailure(d, to, err)
		return nil, err
	}

	out := d.Clone()
	g.apply(out, to, p, g.now())
	out.Version++

	g.Log.WithFields(logrus.Fields{
		"deal":     d.Id,
		"from":     d.Status,
		"to":       to,
		"override": p.Override,
	}).Info("deal transitioned")

	return out, nil
}

// LegalNext lists the statuses d may move to right now.
func (g *Gateway) LegalNext(d *Deal) []lifecycle.Status {
	return lifecycle.LegalNext(d.Status, d.DealType)
}

func (g *Gateway) check(d *Deal, to lifecycle.Status, p Payload) error {
	if d.Status.IsTerminal() {
		return &lifecycle.IllegalTransitionError{From: d.Status, To: to, DealType: d.DealType, Reason: "deal is " + string(d.Status)}
	}
	if !lifecycle.CanTransition(d.Status, to, d.DealType) {
		reason := ""
		if lifecycle.IsBarterOnly(to) && !d.DealType.Ships() {
			reason = "stage does not apply to " + string(d.DealType) + " deals"
		}
		return &lifecycle.IllegalTransitionError{From: d.Status, To: to, DealType: d.DealType, Reason: reason}
	}
	return g.checkPayload(to, p)
}

func (g *Gateway) checkPayload(to lifecycle.Status, p Payload) error {
	req := lifecycle.RequirementFor(to)

	if req.TrackingNumber && strings.TrimSpace(p.TrackingNumber) == "" {
		return &lifecycle.ValidationError{Field: "tracking_number", Reason: "required to mark the product shipped"}
	}
	if req.Rating {
		if p.Rating == nil {
			return &lifecycle.ValidationError{Field: "rating", Reason: "required to complete a deal"}
		}
		if err := checkRating("rating", *p.Rating); err != nil {
			return err
		}
	}
	if p.InfluencerRating != nil {
		if err := checkRating("influencer_rating", *p.InfluencerRating); err != nil {
			return err
		}
	}

	if !req.AllowsTracking && (p.TrackingNumber != "" || p.TrackingURL != "") {
		return &lifecycle.ValidationError{Field: "tracking_number", Reason: "only set when shipping the product"}
	}
	if !req.AllowsRatings && (p.Rating != nil || p.Review != "" || p.InfluencerRating != nil || p.InfluencerReview != "") {
		return &lifecycle.ValidationError{Field: "rating", Reason: "only set when completing the deal"}
	}
	if !req.AllowsRejection && p.RejectionReason != "" {
		return &lifecycle.ValidationError{Field: "rejection_reason", Reason: "only set when rejecting or cancelling"}
	}

	return g.structErr(g.validate.Struct(p))
}

func checkRating(field string, r int) error {
	if r < lifecycle.MinRating || r > lifecycle.MaxRating {
		return &lifecycle.ValidationError{
			Field:  field,
			Reason: "must be between " + strconv.Itoa(lifecycle.MinRating) + " and " + strconv.Itoa(lifecycle.MaxRating),
		}
	}
	return nil
}

// structErr converts validator output into a ValidationError naming the
// first failing field.
func (g *Gateway) structErr(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := "failed " + fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return &lifecycle.ValidationError{Field: fe.Field(), Reason: reason}
	}
	return &lifecycle.ValidationError{Reason: err.Error()}
}

// apply mutates d, which must be a copy owned by the caller.
func (g *Gateway) apply(d *Deal, to lifecycle.Status, p Payload, now time.Time) {
	from := d.Status

	// An existing stamp is the first time the deal entered the stage and is
	// kept, re-entering a status never rewrites the audit trail.
	if ts := d.stamp(to); *ts == nil {
		t := now
		*ts = &t
	}
	if from.IsInitial() && to.IsOneOf(lifecycle.Accepted, lifecycle.Rejected) && d.RespondedAt == nil {
		t := now
		d.RespondedAt = &t
	}

	switch to {
	case lifecycle.ProductShipped:
		d.TrackingNumber = strings.TrimSpace(p.TrackingNumber)
		d.TrackingURL = p.TrackingURL
	case lifecycle.Completed:
		d.BrandRating = cloneInt(p.Rating)
		d.BrandReview = p.Review
		if p.InfluencerRating != nil {
			d.InfluencerRating = cloneInt(p.InfluencerRating)
		}
		if p.InfluencerReview != "" {
			d.InfluencerReview = p.InfluencerReview
		}
	case lifecycle.Rejected, lifecycle.Cancelled:
		if p.RejectionReason != "" {
			d.RejectionReason = p.RejectionReason
		}
	}

	d.Status = to
	d.History = append(d.History, &HistoryEntry{From: from, To: to, At: now, Override: p.Override})
}

// chain applies the payload-free transitions in path to d in order.
func (g *Gateway) chain(d *Deal, path []lifecycle.Status, now time.Time) error {
	for _, to := range path {
		if err := g.check(d, to, Payload{}); err != nil {
			return err
		}
		g.apply(d, to, Payload{}, now)
	}
	return nil
}

// SubmitContent appends a new pending submission and moves the deal along:
// the first submission makes an active (or delivered) deal content_submitted,
// a resubmission after a revision request puts the deal back under review.
func (g *Gateway) SubmitContent(d *Deal, in SubmissionInput) (*Deal, *ContentSubmission, error) {
	if d == nil {
		return nil, nil, ErrNilDeal
	}

	in.Platform = strings.ToLower(strings.TrimSpace(in.Platform))
	in.URL = strings.TrimSpace(in.URL)
	if err := g.structErr(g.validate.Struct(in)); err != nil {
		return nil, nil, err
	}

	if !d.Status.AcceptsContent() {
		err := &lifecycle.IllegalTransitionError{From: d.Status, To: lifecycle.ContentSubmitted, DealType: d.DealType, Reason: "deal does not accept content"}
		g.logFailure(d, lifecycle.ContentSubmitted, err)
		return nil, nil, err
	}

	var path []lifecycle.Status
	switch d.Status {
	case lifecycle.ProductDelivered:
		path = []lifecycle.Status{lifecycle.Active, lifecycle.ContentSubmitted}
	case lifecycle.Active:
		path = []lifecycle.Status{lifecycle.ContentSubmitted}
	case lifecycle.RevisionRequested:
		path = []lifecycle.Status{lifecycle.UnderReview}
	}

	now := g.now()
	out := d.Clone()
	if err := g.chain(out, path, now); err != nil {
		g.logFailure(d, lifecycle.ContentSubmitted, err)
		return nil, nil, err
	}

	sub := &ContentSubmission{
		Id:          uuid.NewString(),
		Platform:    in.Platform,
		ContentType: in.ContentType,
		URL:         in.URL,
		Caption:     in.Caption,
		SubmittedAt: now,
		Review:      review.Pending,
	}
	out.SubmittedContent = append(out.SubmittedContent, sub)
	out.Version++

	g.Log.WithFields(logrus.Fields{
		"deal":       d.Id,
		"submission": sub.Id,
		"status":     out.Status,
	}).Info("content submitted")

	return out, sub, nil
}

// ReviewContent resolves one pending submission. Reviewing moves a
// content_submitted deal under review; a revision request also moves the
// deal to revision_requested. On a deal past review the submission is
// resolved and the status left alone. Terminal deals refuse reviews. Approving every submission never approves the
// deal itself, that stays a separate brand transition.
func (g *Gateway) ReviewContent(d *Deal, submissionId string, action review.Action, feedback string) (*Deal, *ContentSubmission, error) {
	if d == nil {
		return nil, nil, ErrNilDeal
	}

	idx, sub := d.Submission(submissionId)
	if sub == nil {
		return nil, nil, &lifecycle.ValidationError{Field: "submission_id", Reason: "no submission " + strconv.Quote(submissionId) + " on deal " + d.Id}
	}

	next, err := review.Review(sub.Id, sub.Review, action, feedback)
	if err == nil && d.Status.IsTerminal() {
		err = &lifecycle.InvalidStateError{SubmissionID: sub.Id, State: string(sub.Review), DealStatus: d.Status}
	}
	if err != nil {
		g.Log.WithFields(logrus.Fields{
			"deal":       d.Id,
			"submission": sub.Id,
			"action":     action,
			"kind":       lifecycle.Kind(err),
		}).WithError(err).Warn("content review refused")
		return nil, nil, err
	}

	// outside the review stages the submission is resolved on its own
	var path []lifecycle.Status
	if d.Status == lifecycle.ContentSubmitted {
		path = append(path, lifecycle.UnderReview)
	}
	if action == review.RequestRevision && d.Status.InReview() && d.Status != lifecycle.RevisionRequested {
		path = append(path, lifecycle.RevisionRequested)
	}

	now := g.now()
	out := d.Clone()
	if err := g.chain(out, path, now); err != nil {
		g.logFailure(d, lifecycle.UnderReview, err)
		return nil, nil, err
	}

	rs := out.SubmittedContent[idx]
	rs.Review = next
	rs.ReviewNotes = strings.TrimSpace(feedback)
	rs.ReviewedAt = &now
	out.Version++

	g.Log.WithFields(logrus.Fields{
		"deal":       d.Id,
		"submission": sub.Id,
		"action":     action,
		"status":     out.Status,
	}).Info("content reviewed")

	return out, rs, nil
}

// SetNotes replaces the free text notes. Notes are not protected and may be
// edited in any status, terminal ones included.
func (g *Gateway) SetNotes(d *Deal, notes string) (*Deal, error) {
	if d == nil {
		return nil, ErrNilDeal
	}
	if len(notes) > 10000 {
		return nil, &lifecycle.ValidationError{Field: "notes", Reason: "too long"}
	}
	out := d.Clone()
	out.Notes = notes
	out.Version++
	return out, nil
}

// ProvideAddress records the influencer's shipping address. When the brand
// asked for it the deal moves to address_provided.
func (g *Gateway) ProvideAddress(d *Deal, addr ShippingAddress) (*Deal, error) {
	if d == nil {
		return nil, ErrNilDeal
	}
	if !d.DealType.Ships() {
		return nil, &lifecycle.ValidationError{Field: "shipping_address", Reason: string(d.DealType) + " deals do not ship a product"}
	}
	if d.Status.IsTerminal() {
		return nil, &lifecycle.IllegalTransitionError{From: d.Status, To: lifecycle.AddressProvided, DealType: d.DealType, Reason: "deal is " + string(d.Status)}
	}
	if err := g.structErr(g.validate.Struct(addr)); err != nil {
		return nil, err
	}

	out := d.Clone()
	out.ShippingAddress = &addr
	if d.Status == lifecycle.AddressRequested {
		if err := g.chain(out, []lifecycle.Status{lifecycle.AddressProvided}, g.now()); err != nil {
			return nil, err
		}
	}
	out.Version++
	return out, nil
}

func (g *Gateway) logFailure(d *Deal, to lifecycle.Status, err error) {
	g.Log.WithFields(logrus.Fields{
		"deal": d.Id,
		"from": d.Status,
		"to":   to,
		"kind": lifecycle.Kind(err),
	}).WithError(err).Warn("deal transition refused")
}
