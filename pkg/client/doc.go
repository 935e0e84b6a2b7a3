/*
Package client provides the REST client for the Cadence session API.

Realtime updates arrive over the channel package's WebSockets; everything
that changes a session on purpose goes through this client:

	┌────────────┐   HTTP + JSON    ┌──────────────────┐
	│ controller │ ───────────────► │  session API     │
	│ / CLI      │ ◄─────────────── │  /sessions/...   │
	└────────────┘                  └──────────────────┘

# Usage

	c := client.NewClient("http://localhost:8000", client.WithToken(tok))
	sess, err := c.GetSession(ctx, id)
	if errors.Is(err, client.ErrNotFound) {
		// session is gone
	}

Every call applies its own timeout (10s unless WithTimeout says otherwise)
on top of the caller's context. A 404 maps to ErrNotFound; any other
non-2xx response is returned as a *StatusError carrying the status code
and response body.
*/
package client
