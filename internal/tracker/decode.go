// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package tracker

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"
)

// BatchResult is the outcome of DecodeBatch. Rejected holds one error per
// array that could not be decoded; decoding continues past them.
type BatchResult struct {
	Commands []Command
	Rejected []error
}

// DecodeBatch decodes either one command array or an array of command
// arrays. It fails only when data is not JSON at all; any other JSON value
// counts as one rejected command.
func DecodeBatch(data []byte) (BatchResult, error) {
	var result BatchResult

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		if !json.Valid(data) {
			return BatchResult{}, fmt.Errorf("decode command batch: %w", err)
		}
		result.Rejected = append(result.Rejected, fmt.Errorf("%w: not an array", ErrMalformedCommand))
		return result, nil
	}

	if len(elems) == 0 {
		return result, nil
	}

	// A single command starts with its kind; a batch starts with an array.
	if !isArray(elems[0]) {
		cmd, err := decodeElems(elems)
		if err != nil {
			result.Rejected = append(result.Rejected, err)
		} else {
			result.Commands = append(result.Commands, cmd)
		}
		return result, nil
	}

	for i, raw := range elems {
		cmd, err := DecodeCommand(raw)
		if err != nil {
			result.Rejected = append(result.Rejected, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		result.Commands = append(result.Commands, cmd)
	}
	return result, nil
}

// DecodeCommand decodes one [kind, ...args] array.
func DecodeCommand(data []byte) (Command, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("%w: not an array: %w", ErrMalformedCommand, err)
	}
	return decodeElems(elems)
}

func decodeElems(elems []json.RawMessage) (Command, error) {
	if len(elems) == 0 {
		return nil, fmt.Errorf("%w: empty array", ErrMalformedCommand)
	}

	var kind string
	if err := json.Unmarshal(elems[0], &kind); err != nil {
		return nil, fmt.Errorf("%w: kind is not a string", ErrMalformedCommand)
	}
	args := elems[1:]

	switch kind {
	case KindTrackEvent:
		return decodeTrackEvent(args)
	case KindSetConsent:
		return decodeSetConsent(args), nil
	case KindSetAccount:
		return decodeSetAccount(args)
	case KindTrackProduct:
		return decodeTrackProduct(args), nil
	default:
		return Unknown{Name: kind}, nil
	}
}

func decodeTrackEvent(args []json.RawMessage) (Command, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: trackEvent needs an event name", ErrMalformedCommand)
	}

	cmd := TrackEvent{}
	if err := json.Unmarshal(args[0], &cmd.Name); err != nil {
		return nil, fmt.Errorf("%w: trackEvent name is not a string", ErrMalformedCommand)
	}

	if len(args) > 1 && !isNull(args[1]) {
		if err := json.Unmarshal(args[1], &cmd.Data); err != nil {
			return nil, fmt.Errorf("%w: trackEvent data is not an object", ErrMalformedCommand)
		}
	}

	if len(args) > 2 && !isNull(args[2]) {
		var info map[string]any
		if err := json.Unmarshal(args[2], &info); err != nil {
			return nil, fmt.Errorf("%w: trackEvent account info is not an object", ErrMalformedCommand)
		}
		cmd.Account = AccountInfo{
			ID:    scalarString(info["id"]),
			Email: scalarString(info["email"]),
		}
	}

	if len(args) > 3 && !isNull(args[3]) {
		var attempt float64
		if err := json.Unmarshal(args[3], &attempt); err != nil {
			return nil, fmt.Errorf("%w: trackEvent attempt is not a number", ErrMalformedCommand)
		}
		if attempt > 0 && attempt < math.MaxInt32 {
			cmd.Attempt = int(attempt)
		}
	}

	return cmd, nil
}

func decodeSetConsent(args []json.RawMessage) Command {
	if len(args) == 0 {
		return SetConsent{Malformed: true}
	}
	var granted bool
	if err := json.Unmarshal(args[0], &granted); err != nil {
		return SetConsent{Malformed: true, Raw: string(args[0])}
	}
	return SetConsent{Granted: granted}
}

func decodeSetAccount(args []json.RawMessage) (Command, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: setAccount needs an id", ErrMalformedCommand)
	}
	var v any
	if err := json.Unmarshal(args[0], &v); err != nil {
		return nil, fmt.Errorf("%w: setAccount id: %w", ErrMalformedCommand, err)
	}
	return SetAccount{ID: scalarString(v)}, nil
}

// decodeTrackProduct never fails: product data that cannot be read yields an
// empty product, which the dispatcher reports and drops. Both the dataset
// keys (productId, ...) and the short keys (id, ...) are accepted; dataset
// keys win.
func decodeTrackProduct(args []json.RawMessage) Command {
	if len(args) == 0 {
		return TrackProduct{}
	}
	var fields map[string]any
	if err := json.Unmarshal(args[0], &fields); err != nil {
		return TrackProduct{}
	}
	return TrackProduct{Product: ProductData{
		ID:       firstNonEmpty(scalarString(fields["productId"]), scalarString(fields["id"])),
		Name:     firstNonEmpty(scalarString(fields["productName"]), scalarString(fields["name"])),
		Price:    firstNonEmpty(scalarString(fields["productPrice"]), scalarString(fields["price"])),
		Category: firstNonEmpty(scalarString(fields["productCategory"]), scalarString(fields["category"])),
	}}
}

// scalarString renders JSON strings and numbers as text; anything else is "".
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
