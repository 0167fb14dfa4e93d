package types

import "strings"

// Address is the shipping address snapshot stored as jsonb on orders.
type Address struct {
	FullName   string  `json:"full_name"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
	Phone      *string `json:"phone,omitempty"`
}

// Validate reports the first missing required field, if any.
func (a Address) Validate() string {
	switch {
	case strings.TrimSpace(a.FullName) == "":
		return "full_name"
	case strings.TrimSpace(a.Line1) == "":
		return "line1"
	case strings.TrimSpace(a.City) == "":
		return "city"
	case strings.TrimSpace(a.PostalCode) == "":
		return "postal_code"
	case strings.TrimSpace(a.Country) == "":
		return "country"
	}
	return ""
}

// Anonymized returns a copy with all personally identifying fields blanked.
// Used by GDPR erasure, which rewrites orders in place instead of deleting them.
func (a Address) Anonymized() Address {
	return Address{
		FullName:   "redacted",
		Line1:      "redacted",
		City:       a.City,
		State:      a.State,
		PostalCode: "",
		Country:    a.Country,
	}
}
