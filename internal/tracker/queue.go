// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package tracker

import "sync"

// Queue is an unbounded FIFO of commands. It is not safe for concurrent
// use; the dispatcher goroutine owns it.
type Queue struct {
	items []Command
}

// Len returns the number of queued commands.
func (q *Queue) Len() int { return len(q.items) }

// Append adds commands at the tail in order.
func (q *Queue) Append(cmds ...Command) {
	q.items = append(q.items, cmds...)
}

// PopHead removes and returns the oldest command.
func (q *Queue) PopHead() (Command, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	cmd := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return cmd, true
}

// RemoveFirst removes and returns the oldest command matching match,
// keeping the relative order of everything else.
func (q *Queue) RemoveFirst(match func(Command) bool) (Command, bool) {
	for i, cmd := range q.items {
		if !match(cmd) {
			continue
		}
		q.items = append(q.items[:i:i], q.items[i+1:]...)
		return cmd, true
	}
	return nil, false
}

// mailbox hands commands from any goroutine to the dispatcher. The wake
// channel holds at most one pending signal.
type mailbox struct {
	mu    sync.Mutex
	items []Command
	wake  chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{wake: make(chan struct{}, 1)}
}

func (m *mailbox) post(cmds ...Command) {
	m.mu.Lock()
	m.items = append(m.items, cmds...)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *mailbox) take() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.items
	m.items = nil
	return items
}

func (m *mailbox) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
