// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

/*
Package services adapts Rollcall components to the suture.Service interface.

Components that already implement Serve(ctx) error (the snapshot poller,
the NATS subscriber, the store maintainer) are added to the tree directly.
This package covers the two whose lifecycles differ:

HTTPServerService wraps *http.Server. ListenAndServe runs in a goroutine
and Shutdown drains connections when the supervisor cancels the context.

NATSServerService keeps an embedded NATS server (snapshot.EmbeddedServer)
under supervision. The server is started by its constructor; the service
watches it and shuts it down on cancellation.

Return values follow suture's conventions:

	nil         stopped cleanly, not restarted
	error       crashed, restarted with backoff
	ctx.Err()   shutdown requested
*/
package services
