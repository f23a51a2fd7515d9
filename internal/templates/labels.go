package templates

import "github.com/iraunit/ticktime-sub001/internal/lifecycle"

// Label is how a status is shown on the dashboard.
type Label struct {
	Text  string `json:"text"`
	Color string `json:"color"`
}

var Labels = map[lifecycle.Status]Label{
	lifecycle.Invited:           {"Invited", "blue"},
	lifecycle.Pending:           {"Pending Response", "yellow"},
	lifecycle.Accepted:          {"Accepted", "green"},
	lifecycle.Rejected:          {"Rejected", "red"},
	lifecycle.Shortlisted:       {"Shortlisted", "purple"},
	lifecycle.AddressRequested:  {"Address Requested", "orange"},
	lifecycle.AddressProvided:   {"Address Provided", "teal"},
	lifecycle.ProductShipped:    {"Product Shipped", "indigo"},
	lifecycle.ProductDelivered:  {"Product Delivered", "cyan"},
	lifecycle.Active:            {"Active", "green"},
	lifecycle.ContentSubmitted:  {"Content Submitted", "blue"},
	lifecycle.UnderReview:       {"Under Review", "yellow"},
	lifecycle.RevisionRequested: {"Revision Requested", "orange"},
	lifecycle.Approved:          {"Approved", "green"},
	lifecycle.Completed:         {"Completed", "emerald"},
	lifecycle.Cancelled:         {"Cancelled", "gray"},
	lifecycle.Dispute:           {"Dispute", "red"},
}

// LabelOf returns the label for s, falling back to the raw status.
func LabelOf(s lifecycle.Status) Label {
	if l, ok := Labels[s]; ok {
		return l
	}
	return Label{Text: string(s), Color: "gray"}
}
