// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package tracker

// Command kinds as they appear in the first element of a wire array.
const (
	KindTrackEvent   = "trackEvent"
	KindSetConsent   = "setConsent"
	KindSetAccount   = "setAccount"
	KindTrackProduct = "trackProduct"
)

// Command is one queued instruction. The set of implementations is closed.
type Command interface {
	Kind() string
	command()
}

// AccountInfo optionally identifies the visitor on a trackEvent.
type AccountInfo struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
}

// Empty reports whether neither field is set.
func (a AccountInfo) Empty() bool {
	return a.ID == "" && a.Email == ""
}

// TrackEvent sends a named event with caller data.
type TrackEvent struct {
	Name    string
	Data    map[string]any
	Account AccountInfo

	// Attempt counts failed sends so far; 0 for a fresh command.
	Attempt int

	// id is assigned on first dispatch and kept across retries.
	id string
}

// SetConsent records the visitor's tracking decision.
type SetConsent struct {
	Granted bool

	// Malformed is set when the decoded value was not a boolean. A malformed
	// SetConsent still wakes the dispatcher but changes nothing.
	Malformed bool
	Raw       string
}

// SetAccount overrides the account identifier.
type SetAccount struct {
	ID string
}

// ProductData is read from the product element's data attributes.
type ProductData struct {
	ID       string `json:"productId"`
	Name     string `json:"productName"`
	Price    string `json:"productPrice"`
	Category string `json:"productCategory"`
}

// TrackProduct sends a product view.
type TrackProduct struct {
	Product ProductData
}

// Unknown is any command whose kind is not recognised.
type Unknown struct {
	Name string
}

func (TrackEvent) Kind() string   { return KindTrackEvent }
func (SetConsent) Kind() string   { return KindSetConsent }
func (SetAccount) Kind() string   { return KindSetAccount }
func (TrackProduct) Kind() string { return KindTrackProduct }
func (u Unknown) Kind() string    { return u.Name }

func (TrackEvent) command()   {}
func (SetConsent) command()   {}
func (SetAccount) command()   {}
func (TrackProduct) command() {}
func (Unknown) command()      {}

// isConsentCommand reports whether cmd is eligible while consent is not granted.
func isConsentCommand(cmd Command) bool {
	_, ok := cmd.(SetConsent)
	return ok
}

// metricKind bounds the kind label to the known kinds.
func metricKind(cmd Command) string {
	if _, ok := cmd.(Unknown); ok {
		return "unknown"
	}
	return cmd.Kind()
}
