package lifecycle

import (
	"strconv"
	"strings"
)

// DealType is the commercial structure of a deal.
type DealType string

const (
	InvalidDealType DealType = ""

	Cash    DealType = "cash"
	Product DealType = "product" // barter, paid in kind
	Hybrid  DealType = "hybrid"  // cash plus product
)

func ParseDealType(s string) (DealType, error) {
	dt := DealType(strings.ToLower(strings.TrimSpace(s)))
	if !dt.Valid() {
		return InvalidDealType, &ValidationError{Field: "deal_type", Reason: "unknown deal type " + strconv.Quote(s)}
	}
	return dt, nil
}

func (dt DealType) Valid() bool {
	switch dt {
	case Cash, Product, Hybrid:
		return true
	}
	return false
}

// Ships reports whether a physical product is sent to the influencer.
func (dt DealType) Ships() bool { return dt == Product || dt == Hybrid }

func (dt DealType) String() string { return string(dt) }

// canonicalStages is the happy path of a full barter deal.
var canonicalStages = [...]Status{
	Invited, Pending, Accepted, Shortlisted,
	AddressRequested, AddressProvided, ProductShipped, ProductDelivered,
	Active, ContentSubmitted, UnderReview, RevisionRequested, Approved, Completed,
}

// stageOrder maps a canonical stage to its position in canonicalStages.
var stageOrder = func() map[Status]int {
	m := make(map[Status]int, len(canonicalStages))
	for i, s := range canonicalStages {
		m[s] = i
	}
	return m
}()

// IsBarterOnly reports whether s only applies to deals that ship a product.
func IsBarterOnly(s Status) bool {
	return s.IsOneOf(AddressRequested, AddressProvided, ProductShipped, ProductDelivered)
}

// Applies reports whether status s can ever be entered by a deal of type dt.
func (dt DealType) Applies(s Status) bool {
	return dt.Ships() || !IsBarterOnly(s)
}

// RelevantStages returns the ordered stages a deal of type dt moves through.
// Cash deals skip the shipping stages, and so does an unknown type since it
// never ships anything. The returned slice is always a fresh copy.
func RelevantStages(dt DealType) []Status {
	out := make([]Status, 0, len(canonicalStages))
	for _, s := range canonicalStages {
		if !dt.Applies(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// CurrentStepIndex is the position of status within RelevantStages(dt), or -1
// when the status is off the happy path (rejected, cancelled, dispute) or not
// applicable to dt.
func CurrentStepIndex(dt DealType, status Status) int {
	for i, s := range RelevantStages(dt) {
		if s == status {
			return i
		}
	}
	return -1
}
