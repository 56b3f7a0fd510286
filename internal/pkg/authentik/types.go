package authentik

import "fmt"

// CreateRequest is the POST body for a new invitation.
type CreateRequest struct {
	Name      string            `json:"name"`
	FixedData map[string]string `json:"fixed_data"`
	Expires   string            `json:"expires"`
	SingleUse bool              `json:"single_use"`
	Flow      string            `json:"flow"`
}

// NewCreateRequest builds the payload for an invitation named name, noted as
// invited by sender.
func NewCreateRequest(name, sender, expires, flow string) CreateRequest {
	return CreateRequest{
		Name:      name,
		FixedData: map[string]string{"attributes.notes": "invited by " + sender},
		Expires:   expires,
		SingleUse: true,
		Flow:      flow,
	}
}

// Flow is the flow_obj embedded in an invitation.
type Flow struct {
	Pk   string `json:"pk"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Invitation mirrors the provider's invitation object. Only the fields the bot
// reads are decoded; Raw keeps the full body.
type Invitation struct {
	Pk        string         `json:"pk"`
	Name      string         `json:"name"`
	Expires   string         `json:"expires"`
	SingleUse bool           `json:"single_use"`
	FixedData map[string]any `json:"fixed_data"`
	FlowObj   *Flow          `json:"flow_obj"`
	Raw       string         `json:"-"`
}

// Page is a paginated list reply. Results is nil when the key is absent.
type Page struct {
	Results *[]Invitation `json:"results"`
	Raw     string        `json:"-"`
}

// StatusError is a transport failure (Status 0) or a non-2xx reply.
type StatusError struct {
	Status int
	Body   string
	Err    error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentik request failed (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("authentik returned status %d: %s", e.Status, e.Body)
}

func (e *StatusError) Unwrap() error { return e.Err }

// DecodeError is a 2xx reply whose body is not the expected JSON.
type DecodeError struct {
	Body string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode authentik response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
