package server

import (
	"time"

	"github.com/boltdb/bolt"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/iraunit/ticktime-sub001/internal/deal"
	"github.com/iraunit/ticktime-sub001/internal/lifecycle"
	"github.com/iraunit/ticktime-sub001/internal/review"
	"github.com/iraunit/ticktime-sub001/internal/templates"
	"github.com/iraunit/ticktime-sub001/misc"
)

///////// Stages /////////

type stage struct {
	Status lifecycle.Status `json:"status"`
	Step   int              `json:"step"`
	Label  templates.Label  `json:"label"`
}

func getStages(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		dt, err := lifecycle.ParseDealType(c.Param("dealType"))
		if err != nil {
			writeErr(s, c, err)
			return
		}

		stages := []stage{}
		for i, st := range lifecycle.RelevantStages(dt) {
			stages = append(stages, stage{Status: st, Step: i, Label: templates.LabelOf(st)})
		}

		c.JSON(200, gin.H{"deal_type": dt, "stages": stages})
	}
}

///////// Deals /////////

// dealResp is a deal plus everything the dashboard derives from it.
type dealResp struct {
	*deal.Deal
	Step       int                            `json:"step"`
	Label      templates.Label                `json:"label"`
	Timestamps map[lifecycle.Status]time.Time `json:"timestamps"`
	Next       []lifecycle.Status             `json:"next"`
	Timeline   *templates.Timeline            `json:"timeline,omitempty"`
}

func newDealResp(s *Server, d *deal.Deal) *dealResp {
	next := s.gw.LegalNext(d)
	if next == nil {
		next = []lifecycle.Status{}
	}
	return &dealResp{
		Deal:       d,
		Step:       d.StepIndex(),
		Label:      templates.LabelOf(d.Status),
		Timestamps: d.Timestamps(),
		Next:       next,
	}
}

// withTimeline attaches the feed entry for the status the deal just entered.
func (r *dealResp) withTimeline() *dealResp {
	d := r.Deal
	data := templates.TimelineData{
		DealId:       d.Id,
		InfluencerId: d.InfluencerId,
		Tracking:     d.TrackingNumber,
		TrackingURL:  d.TrackingURL,
		Reason:       d.RejectionReason,
	}
	if d.BrandRating != nil {
		data.Rating = *d.BrandRating
	}
	if n := len(d.SubmittedContent); n > 0 {
		last := d.SubmittedContent[n-1]
		data.Platform = last.Platform
		for _, sub := range d.SubmittedContent {
			if sub.Review == review.RevisionRequested {
				data.Feedback = sub.ReviewNotes
			}
		}
	}

	at := time.Now()
	if ts := d.StampOf(d.Status); ts != nil {
		at = *ts
	}
	r.Timeline = templates.NewTimeline(d.Status, data, at)
	return r
}

type createDealReq struct {
	CampaignId   string `json:"campaign_id"`
	InfluencerId string `json:"influencer_id"`
	BrandId      string `json:"brand_id"`
	DealType     string `json:"deal_type"`

	// Applied deals start pending instead of invited
	Applied bool `json:"applied,omitempty"`
}

func createDeal(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createDealReq
		if err := misc.BindJSON(c, &req); err != nil {
			c.JSON(400, misc.StatusErrKind(lifecycle.KindValidation, "error parsing request body: "+err.Error()))
			return
		}

		dt, err := lifecycle.ParseDealType(req.DealType)
		if err != nil {
			writeErr(s, c, err)
			return
		}

		ctor := deal.New
		if req.Applied {
			ctor = deal.NewPending
		}

		var d *deal.Deal
		if err = s.db.Update(func(tx *bolt.Tx) (err error) {
			id, err := misc.GetNextIndex(tx, s.Cfg.Bucket.Index, s.Cfg.Bucket.Deal)
			if err != nil {
				return err
			}
			if d, err = ctor(id, req.CampaignId, req.InfluencerId, req.BrandId, dt, s.gw.Now()); err != nil {
				return err
			}
			return saveDeal(s, tx, d)
		}); err != nil {
			writeErr(s, c, err)
			return
		}

		s.metrics.dealsCreated.WithLabelValues(string(dt)).Inc()
		s.log.WithFields(logrus.Fields{
			"deal":     d.Id,
			"campaign": d.CampaignId,
			"type":     dt,
			"status":   d.Status,
		}).Info("deal created")

		c.JSON(200, misc.StatusOK(d.Id))
	}
}

func getDeal(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := loadDeal(s, c.Param("id"))
		if err != nil {
			writeErr(s, c, err)
			return
		}
		c.JSON(200, newDealResp(s, d))
	}
}

func getNext(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := loadDeal(s, c.Param("id"))
		if err != nil {
			writeErr(s, c, err)
			return
		}

		next := []stage{}
		for _, st := range s.gw.LegalNext(d) {
			next = append(next, stage{Status: st, Step: lifecycle.CurrentStepIndex(d.DealType, st), Label: templates.LabelOf(st)})
		}
		c.JSON(200, gin.H{"id": d.Id, "status": d.Status, "next": next})
	}
}

type transitionReq struct {
	Status string `json:"status"`
	deal.Payload
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

func transitionDeal(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req transitionReq
		if err := misc.BindJSON(c, &req); err != nil {
			c.JSON(400, misc.StatusErrKind(lifecycle.KindValidation, "error parsing request body: "+err.Error()))
			return
		}

		to, err := lifecycle.ParseStatus(req.Status)
		if err != nil {
			writeErr(s, c, err)
			return
		}

		d, err := updateDeal(s, c.Param("id"), req.ExpectedVersion, func(d *deal.Deal) (*deal.Deal, error) {
			return s.gw.ApplyTransition(d, to, req.Payload)
		})
		s.metrics.transitions.WithLabelValues(string(to), resultOf(err)).Inc()
		if err != nil {
			writeErr(s, c, err)
			return
		}

		c.JSON(200, newDealResp(s, d).withTimeline())
	}
}

type submitContentReq struct {
	deal.SubmissionInput
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

func submitContent(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req submitContentReq
		if err := misc.BindJSON(c, &req); err != nil {
			c.JSON(400, misc.StatusErrKind(lifecycle.KindValidation, "error parsing request body: "+err.Error()))
			return
		}

		var sub *deal.ContentSubmission
		d, err := updateDeal(s, c.Param("id"), req.ExpectedVersion, func(d *deal.Deal) (out *deal.Deal, err error) {
			out, sub, err = s.gw.SubmitContent(d, req.SubmissionInput)
			return
		})
		s.metrics.submissions.WithLabelValues(resultOf(err)).Inc()
		if err != nil {
			writeErr(s, c, err)
			return
		}

		c.JSON(200, gin.H{"deal": newDealResp(s, d).withTimeline(), "submission": sub})
	}
}

type reviewContentReq struct {
	Action          string `json:"action"`
	Feedback        string `json:"feedback,omitempty"`
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

func reviewContent(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reviewContentReq
		if err := misc.BindJSON(c, &req); err != nil {
			c.JSON(400, misc.StatusErrKind(lifecycle.KindValidation, "error parsing request body: "+err.Error()))
			return
		}

		action, err := review.ParseAction(req.Action)
		if err != nil {
			writeErr(s, c, err)
			return
		}

		var sub *deal.ContentSubmission
		d, err := updateDeal(s, c.Param("id"), req.ExpectedVersion, func(d *deal.Deal) (out *deal.Deal, err error) {
			out, sub, err = s.gw.ReviewContent(d, c.Param("subId"), action, req.Feedback)
			return
		})
		s.metrics.reviews.WithLabelValues(string(action), resultOf(err)).Inc()
		if err != nil {
			writeErr(s, c, err)
			return
		}

		c.JSON(200, gin.H{"deal": newDealResp(s, d).withTimeline(), "submission": sub})
	}
}

type notesReq struct {
	Notes           string `json:"notes"`
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

func putNotes(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req notesReq
		if err := misc.BindJSON(c, &req); err != nil {
			c.JSON(400, misc.StatusErrKind(lifecycle.KindValidation, "error parsing request body: "+err.Error()))
			return
		}

		d, err := updateDeal(s, c.Param("id"), req.ExpectedVersion, func(d *deal.Deal) (*deal.Deal, error) {
			return s.gw.SetNotes(d, req.Notes)
		})
		if err != nil {
			writeErr(s, c, err)
			return
		}

		c.JSON(200, newDealResp(s, d))
	}
}

type addressReq struct {
	deal.ShippingAddress
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

func putAddress(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addressReq
		if err := misc.BindJSON(c, &req); err != nil {
			c.JSON(400, misc.StatusErrKind(lifecycle.KindValidation, "error parsing request body: "+err.Error()))
			return
		}

		d, err := updateDeal(s, c.Param("id"), req.ExpectedVersion, func(d *deal.Deal) (*deal.Deal, error) {
			return s.gw.ProvideAddress(d, req.ShippingAddress)
		})
		if err != nil {
			writeErr(s, c, err)
			return
		}

		c.JSON(200, newDealResp(s, d))
	}
}

func getDealsForCampaign(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		deals, err := getDealsForCmp(s, c.Param("id"))
		if err != nil {
			writeErr(s, c, err)
			return
		}

		out := make([]*dealResp, 0, len(deals))
		for _, d := range deals {
			out = append(out, newDealResp(s, d))
		}
		if err := misc.WriteJSON(c, 200, out); err != nil {
			s.log.WithError(err).WithField("campaign", c.Param("id")).Warn("error writing deals")
		}
	}
}

func resultOf(err error) string {
	if err == nil {
		return "ok"
	}
	_, kind := errStatus(err)
	return kind
}
