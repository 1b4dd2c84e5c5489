package detector

import "context"

// DefaultCategories is the category set requested when the caller supplies
// no allowlist. It covers the personal, financial, and health identifiers
// the service supports out of the box.
var DefaultCategories = []string{
	"EMAIL_ADDRESS",
	"PHONE_NUMBER",
	"CREDIT_CARD_NUMBER",
	"US_SOCIAL_SECURITY_NUMBER",
	"IP_ADDRESS",
	"PASSPORT",
	"PERSON_NAME",
	"LOCATION",
	"DATE_OF_BIRTH",
	"AGE",
	"GENDER",
	"US_BANK_ROUTING_MICR",
	"STREET_ADDRESS",
	"US_STATE",
	"URL",
	"MEDICAL_RECORD_NUMBER",
	"US_HEALTHCARE_NPI",
}

// Request is one inspection request to the remote detector.
type Request struct {
	// Text is the text to inspect.
	Text string `json:"text"`

	// Categories restricts the inspection to the named categories.
	// Empty means all supported categories are requested.
	Categories []string `json:"categories,omitempty"`
}

// Finding is one detector finding on the wire.
type Finding struct {
	// Category is the sensitive-data category name.
	Category string `json:"category"`

	// Likelihood is the wire-format confidence tier name.
	Likelihood string `json:"likelihood"`

	// Start is the inclusive byte offset of the finding.
	Start int `json:"start"`

	// End is the exclusive byte offset of the finding.
	End int `json:"end"`
}

// Response is the detector's answer to an inspection request.
type Response struct {
	// Findings are the raw findings; they may overlap.
	Findings []Finding `json:"findings"`
}

// Client inspects text for sensitive data. Implementations must be safe
// for concurrent use; a single client is constructed per process and
// reused for its lifetime.
type Client interface {
	// Inspect scans the request text and returns raw findings.
	Inspect(ctx context.Context, req Request) (*Response, error)
}
