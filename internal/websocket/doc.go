// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

/*
Package websocket delivers "new posts" notifications to viewers of a list.

Every websocket connection is bound to exactly one list, identified by the
list's public hash id. When the ingestion consumer stores a new post it asks
the Registry to notify every list the post's blog belongs to; each connected
viewer of those lists receives:

	{"type":"new_posts","data":{"list_id":"<hash>","timestamp":"<RFC3339>"}}

Clients re-fetch the list page over HTTP when notified. The only message a
client may send is {"type":"ping"}, answered with {"type":"pong"}.

Key Components:

  - Registry: list hash id to connection set, guarded by a single mutex
  - Conn: the minimal connection contract the Registry needs
  - Client: gorilla/websocket implementation of Conn with read/write pumps
  - Message: typed envelope for frames in both directions

Broadcast Semantics:

Broadcast snapshots each list's connection set under the lock, releases it,
then sends to every connection in ascending ID order. A connection that is
already closed, or whose Send fails (full buffer), is collected and removed
afterwards, and closed outside the lock. A failure never stops delivery to
the remaining connections or lists. Unknown lists are a no-op.

Lifecycle:

The Registry is a suture service: Serve blocks until its context is
canceled, then closes every registered connection. There is no package-level
state besides the connection ID counter.

Thread Safety:

All Registry methods are safe for concurrent use. Client.Send never blocks.
*/
package websocket
