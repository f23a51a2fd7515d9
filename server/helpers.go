package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/boltdb/bolt"
	"github.com/gin-gonic/gin"

	"github.com/iraunit/ticktime-sub001/internal/deal"
	"github.com/iraunit/ticktime-sub001/internal/lifecycle"
	"github.com/iraunit/ticktime-sub001/misc"
)

var (
	ErrDealNotFound    = errors.New("deal not found")
	ErrVersionConflict = errors.New("deal was modified by another request")
)

const kindConflict = "version_conflict"

func getDealTx(s *Server, tx *bolt.Tx, id string) (*deal.Deal, error) {
	if id == "" {
		return nil, misc.ErrMissingId
	}
	var d deal.Deal
	if err := misc.GetTxJson(tx, s.Cfg.Bucket.Deal, id, &d); err != nil {
		if errors.Is(err, misc.ErrNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, err
	}
	return &d, nil
}

func saveDeal(s *Server, tx *bolt.Tx, d *deal.Deal) error {
	if d.Id == "" {
		return misc.ErrMissingId
	}
	return misc.PutTxJson(tx, s.Cfg.Bucket.Deal, d.Id, d)
}

func loadDeal(s *Server, id string) (d *deal.Deal, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		d, err = getDealTx(s, tx, id)
		return err
	})
	return
}

// updateDeal runs fn against the stored deal and saves its result, all in
// one read-write transaction. A non-nil expected version must match the
// stored one.
func updateDeal(s *Server, id string, expected *int64, fn func(d *deal.Deal) (*deal.Deal, error)) (out *deal.Deal, err error) {
	err = s.db.Update(func(tx *bolt.Tx) error {
		d, err := getDealTx(s, tx, id)
		if err != nil {
			return err
		}
		if expected != nil && *expected != d.Version {
			return fmt.Errorf("%w: stored version is %d, expected %d", ErrVersionConflict, d.Version, *expected)
		}
		if out, err = fn(d); err != nil {
			return err
		}
		return saveDeal(s, tx, out)
	})
	if err != nil {
		out = nil
	}
	return
}

func getDealsForCmp(s *Server, campaignId string) (deals []*deal.Deal, err error) {
	deals = []*deal.Deal{}
	err = s.db.View(func(tx *bolt.Tx) error {
		return misc.GetBucket(tx, s.Cfg.Bucket.Deal).ForEach(func(k, v []byte) error {
			var d deal.Deal
			if err := json.Unmarshal(v, &d); err != nil {
				s.log.WithError(err).WithField("deal", string(k)).Warn("skipping corrupt deal")
				return nil
			}
			if d.CampaignId == campaignId {
				deals = append(deals, &d)
			}
			return nil
		})
	})

	// ids come from a counter, order them numerically
	sort.Slice(deals, func(i, j int) bool {
		a, b := deals[i].Id, deals[j].Id
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
	return
}

// errStatus maps an error to its HTTP status and machine readable kind.
func errStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrDealNotFound):
		return 404, "not_found"
	case errors.Is(err, ErrVersionConflict):
		return 409, kindConflict
	case errors.Is(err, lifecycle.ErrIllegalTransition):
		return 409, lifecycle.KindIllegalTransition
	case errors.Is(err, lifecycle.ErrInvalidState):
		return 409, lifecycle.KindInvalidState
	case errors.Is(err, lifecycle.ErrValidation), errors.Is(err, misc.ErrMissingId):
		return 400, lifecycle.KindValidation
	}
	return 500, lifecycle.KindInternal
}

func writeErr(s *Server, c *gin.Context, err error) {
	code, kind := errStatus(err)
	if code >= 500 {
		s.log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	}
	c.JSON(code, misc.StatusErrKind(kind, err.Error()))
}
