// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

/*
Package supervisor runs Rollcall's long-lived services under a suture v4
supervisor tree.

	rollcall
	├── storage-layer
	│   └── store-maintenance
	├── ingest-layer
	│   ├── nats-server          (if snapshot.nats_embedded)
	│   ├── snapshot-subscriber  (if snapshot.nats_enabled)
	│   └── snapshot-poller      (if snapshot.enabled)
	└── api-layer
	    └── http-server

Each layer is its own supervisor, so a poller crashing against an
unreachable backend restarts inside the ingest layer without touching
the API server.

The badger store itself is not a service. It is opened before the tree
starts and closed after it stops; its maintenance loop is supervised.

Restart behavior comes from TreeConfig. Zero fields take the values of
DefaultTreeConfig. Supervisor events are logged through a slog.Logger
(see logging.NewSlogLogger) via sutureslog.

If shutdown hangs, UnstoppedServiceReport lists services that did not
return within ShutdownTimeout.
*/
package supervisor
