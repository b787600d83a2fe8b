// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package tracker

import (
	"github.com/tomtom215/pagetracker/internal/identity"
)

// Identity defaults used until the visitor is identified.
const (
	DefaultAccountID = "default_account"
	DefaultUserID    = "unknown_user_id"
	DefaultEmail     = "unknown_email"
)

// Identity is the visitor identity attached to every payload.
type Identity struct {
	AccountID string `json:"accountId"`
	UserID    string `json:"userId"`
	Email     string `json:"email"`
}

// DefaultIdentity returns the identity of an unidentified visitor.
func DefaultIdentity() Identity {
	return Identity{
		AccountID: DefaultAccountID,
		UserID:    DefaultUserID,
		Email:     DefaultEmail,
	}
}

// AgentState is the dispatcher's view of the visitor. Only the dispatcher
// goroutine reads or writes it.
type AgentState struct {
	Identity Identity
	Consent  bool

	// Decided is set once the visitor has granted or denied consent, either
	// in a previous session or through setConsent. Until then commands other
	// than setConsent are held for the decision.
	Decided bool
}

// LoadState builds the startup state from the store. Consent is granted only
// when the stored value is exactly "granted"; "granted" or "denied" marks the
// decision as made. Stored identifiers are used
// only when consent is granted and both the user id and account id exist;
// the account id doubles as the email.
func LoadState(store identity.Store, keys identity.Keys) AgentState {
	state := AgentState{Identity: DefaultIdentity()}

	v, ok := store.Get(keys.Consent)
	if !ok {
		return state
	}
	switch v {
	case identity.ConsentGranted:
		state.Consent = true
		state.Decided = true
		state.reloadIdentity(store, keys)
	case identity.ConsentDenied:
		state.Decided = true
	}
	return state
}

// reloadIdentity adopts the stored identifiers when both are present.
func (s *AgentState) reloadIdentity(store identity.Store, keys identity.Keys) bool {
	uid, okUser := store.Get(keys.User)
	acc, okAcc := store.Get(keys.Account)
	if !okUser || !okAcc || uid == "" || acc == "" {
		return false
	}
	s.Identity = Identity{
		AccountID: acc,
		UserID:    uid,
		Email:     acc,
	}
	return true
}

// applyAccountInfo merges trackEvent account info: the id becomes the user
// id, the email the email, and the account id prefers email over id.
func (s *AgentState) applyAccountInfo(info AccountInfo) {
	s.Identity.UserID = firstNonEmpty(info.ID, s.Identity.UserID)
	s.Identity.Email = firstNonEmpty(info.Email, s.Identity.Email)
	s.Identity.AccountID = firstNonEmpty(info.Email, info.ID, s.Identity.AccountID)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
