package model

import "encoding/json"

// TechnologyStatus describes the state of the once-per-run technology check.
type TechnologyStatus int

const (
	// TechnologyNotChecked means no page has been fingerprinted yet.
	// This is the zero value and the only status that allows a check to run.
	TechnologyNotChecked TechnologyStatus = iota

	// TechnologyDetected means the check ran and matched at least one rule.
	TechnologyDetected

	// TechnologyNoneDetected means the check ran and matched nothing.
	// This is a valid outcome, not an error.
	TechnologyNoneDetected

	// TechnologyCheckFailed means the page chosen for fingerprinting could
	// not be fetched. The failure still seals the result for the run.
	TechnologyCheckFailed
)

// String returns a stable name for the status, used in JSON and logs.
func (s TechnologyStatus) String() string {
	switch s {
	case TechnologyNotChecked:
		return "not_checked"
	case TechnologyDetected:
		return "detected"
	case TechnologyNoneDetected:
		return "none_detected"
	case TechnologyCheckFailed:
		return "check_failed"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status as its string name.
func (s TechnologyStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status from its string name.
// Unknown names decode to TechnologyNotChecked.
func (s *TechnologyStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "detected":
		*s = TechnologyDetected
	case "none_detected":
		*s = TechnologyNoneDetected
	case "check_failed":
		*s = TechnologyCheckFailed
	default:
		*s = TechnologyNotChecked
	}
	return nil
}

// NoTechnologiesMessage is printed when the fingerprint check matched nothing.
const NoTechnologiesMessage = "No common plugins detected. Likely pure HTML, JavaScript, and CSS."

// TechnologyResult is the outcome of fingerprinting one page.
//
// Design decision: We model the outcome as a single value with an explicit
// status rather than a bool flag plus a set because:
//  1. "not checked" and "checked, nothing found" must be distinguishable
//  2. The engine can seal the value with one compare-and-set
//  3. A failed check carries its URL and error for the report
type TechnologyResult struct {
	// Status is the outcome of the check.
	Status TechnologyStatus `json:"status"`

	// Names are the matched technology names, sorted.
	// Only populated when Status is TechnologyDetected.
	Names []string `json:"names,omitempty"`

	// URL is the page the check ran against.
	URL string `json:"url,omitempty"`

	// Error describes why the check failed.
	// Only populated when Status is TechnologyCheckFailed.
	Error string `json:"error,omitempty"`
}

// Checked reports whether the result is sealed.
func (r TechnologyResult) Checked() bool {
	return r.Status != TechnologyNotChecked
}
