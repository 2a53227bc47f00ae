// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

/*
Package snapshot delivers same-day snapshots from the ephemeral tier to the
batch synchronizer.

Two transports are supported and may run side by side:

  - Poller pulls GET {url}/attendance-today/ephemeral for every configured
    (actor, direction) pair on a fixed interval.
  - Subscriber receives snapshots pushed on a NATS subject. EmbeddedServer
    runs an in-process NATS server for single-node deployments.

Both are suture services. A failed poll or an undecodable message is logged
and counted; it never stops the service. Replays are harmless because the
synchronizer skips days that are already cached.
*/
package snapshot
