// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

/*
Package supervisor runs the agent's long-lived services under suture v4.

	RootSupervisor ("pagetracker")
	├── TrackingSupervisor ("tracking-layer")
	│   └── tracker.Dispatcher
	└── IntakeSupervisor ("intake-layer")
	    └── services.HTTPServerService ("intake-http")

Supervisor events (service panics, restarts, backoff) are logged through
sutureslog, whose slog handler is bridged onto the global zerolog logger by
logging.NewSlogLogger.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(),
	    supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
	    return err
	}
	tree.AddTrackingService(dispatcher)
	tree.AddIntakeService(services.NewHTTPServerService(srv, cfg.Supervisor.ShutdownTimeout))
	return tree.Serve(ctx)

A dispatcher restarted after a panic in Serve keeps its queue; commands are
never lost to a restart, only to their own handler failures.
*/
package supervisor
