package lifecycle

import (
	"strconv"
	"strings"
)

// Status is a named point in a deal's lifecycle.
type Status string

const (
	InvalidStatus Status = ""

	Invited           Status = "invited"
	Pending           Status = "pending"
	Accepted          Status = "accepted"
	Rejected          Status = "rejected"
	Shortlisted       Status = "shortlisted"
	AddressRequested  Status = "address_requested"
	AddressProvided   Status = "address_provided"
	ProductShipped    Status = "product_shipped"
	ProductDelivered  Status = "product_delivered"
	Active            Status = "active"
	ContentSubmitted  Status = "content_submitted"
	UnderReview       Status = "under_review"
	RevisionRequested Status = "revision_requested"
	Approved          Status = "approved"
	Completed         Status = "completed"
	Cancelled         Status = "cancelled"
	Dispute           Status = "dispute"
)

// AllStatuses lists every status, happy path first and the off-path
// statuses (rejected, cancelled, dispute) last.
var AllStatuses = [...]Status{
	Invited, Pending, Accepted, Shortlisted,
	AddressRequested, AddressProvided, ProductShipped, ProductDelivered,
	Active, ContentSubmitted, UnderReview, RevisionRequested, Approved, Completed,
	Rejected, Cancelled, Dispute,
}

// ParseStatus is case and whitespace insensitive.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return InvalidStatus, &ValidationError{Field: "status", Reason: "unknown status " + strconv.Quote(s)}
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case Invited, Pending, Accepted, Rejected, Shortlisted,
		AddressRequested, AddressProvided, ProductShipped, ProductDelivered,
		Active, ContentSubmitted, UnderReview, RevisionRequested, Approved,
		Completed, Cancelled, Dispute:
		return true
	}
	return false
}

func (s Status) IsOneOf(os ...Status) bool {
	for _, o := range os {
		if s == o {
			return true
		}
	}
	return false
}

// IsInitial reports whether s is one of the equivalent entry statuses.
func (s Status) IsInitial() bool { return s == Invited || s == Pending }

// IsTerminal reports whether s has no outgoing transitions. The record
// persists, but its stage progress is frozen.
func (s Status) IsTerminal() bool {
	return s.IsOneOf(Completed, Cancelled, Rejected, Dispute)
}

// AcceptsContent reports whether an influencer may submit content while
// the deal sits in s.
func (s Status) AcceptsContent() bool {
	return s.IsOneOf(ProductDelivered, Active, ContentSubmitted, UnderReview, RevisionRequested)
}

// InReview reports whether s is one of the content review stages.
func (s Status) InReview() bool {
	return s.IsOneOf(ContentSubmitted, UnderReview, RevisionRequested)
}

func (s Status) String() string { return string(s) }
