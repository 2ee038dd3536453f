// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package pubsub pushes live updates to websocket clients.

Clients subscribe to one topic:

  - race:{id} receives a TallyUpdate each time a vote in the race is revealed
  - session:{token} receives the SessionEvents of one voter session
    (confirmed, revealed, thank_you, failed)

The Hub implements session.Notifier, so the session manager publishes
straight into it. Publish never blocks the caller; slow clients are
dropped.
*/
package pubsub
