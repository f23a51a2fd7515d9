package lifecycle

// edges holds the explicit forward transitions of every non-terminal status.
// The cancelled/dispute escape hatch and barter skips are added by next.
var edges = map[Status][]Status{
	Invited:           {Accepted, Rejected},
	Pending:           {Accepted, Rejected},
	Accepted:          {Shortlisted, Rejected},
	Shortlisted:       {AddressRequested, Active},
	AddressRequested:  {AddressProvided, Active},
	AddressProvided:   {ProductShipped},
	ProductShipped:    {ProductDelivered},
	ProductDelivered:  {Active},
	Active:            {ContentSubmitted},
	ContentSubmitted:  {UnderReview},
	UnderReview:       {RevisionRequested, Approved},
	RevisionRequested: {UnderReview},
	Approved:          {Completed},
}

// next returns every target reachable from `from` before the deal type
// filter is applied, in canonical order followed by the escape hatches.
func next(from Status) []Status {
	if from.IsTerminal() || !from.Valid() {
		return nil
	}

	seen := make(map[Status]bool, 8)
	for _, to := range edges[from] {
		seen[to] = true
	}

	// Forward moves that only jump over shipping stages are manual
	// overrides, e.g. shortlisted -> product_shipped when the brand already
	// has the address, or product_shipped -> active.
	if i, ok := stageOrder[from]; ok {
		for j := i + 1; j < len(canonicalStages); j++ {
			to := canonicalStages[j]
			seen[to] = seen[to] || onlyShippingBetween(i, j)
			if !IsBarterOnly(to) {
				break
			}
		}
	}

	out := make([]Status, 0, len(seen)+2)
	for _, s := range canonicalStages {
		if seen[s] {
			out = append(out, s)
		}
	}
	if seen[Rejected] {
		out = append(out, Rejected)
	}
	return append(out, Cancelled, Dispute)
}

// onlyShippingBetween reports whether every canonical stage strictly between
// positions i and j is barter only. Adjacent stages return false since
// adjacency alone doesn't make a legal edge.
func onlyShippingBetween(i, j int) bool {
	if j-i < 2 {
		return false
	}
	for k := i + 1; k < j; k++ {
		if !IsBarterOnly(canonicalStages[k]) {
			return false
		}
	}
	return true
}

// LegalNext returns the statuses a deal of type dt may move to from `from`.
// Terminal statuses have none.
func LegalNext(from Status, dt DealType) []Status {
	all := next(from)
	out := all[:0]
	for _, to := range all {
		if dt.Applies(to) {
			out = append(out, to)
		}
	}
	return out
}

// CanTransition reports whether from -> to is legal for a deal of type dt.
func CanTransition(from, to Status, dt DealType) bool {
	for _, s := range LegalNext(from, dt) {
		if s == to {
			return true
		}
	}
	return false
}

// Requirement describes the mandatory payload of a transition and which
// protected fields it may carry.
type Requirement struct {
	TrackingNumber bool // non-empty tracking number required
	Rating         bool // brand rating in [MinRating, MaxRating] required

	AllowsTracking  bool
	AllowsRatings   bool
	AllowsRejection bool
}

const (
	MinRating = 1
	MaxRating = 5
)

// RequirementFor returns the payload contract of entering status to.
func RequirementFor(to Status) Requirement {
	switch to {
	case ProductShipped:
		return Requirement{TrackingNumber: true, AllowsTracking: true}
	case Completed:
		return Requirement{Rating: true, AllowsRatings: true}
	case Rejected, Cancelled:
		return Requirement{AllowsRejection: true}
	}
	return Requirement{}
}
