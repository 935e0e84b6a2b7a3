/*
Package api serves the local status endpoints of a running Cadence client.

	GET /health             liveness, always 200 while the process runs
	GET /ready              200 once a session is running and all three
	                        channels are open, 503 otherwise
	GET /health/components  component registry from pkg/metrics
	GET /live               liveness probe
	GET /session            merged session aggregate as JSON (404 if absent)
	GET /metrics            Prometheus exposition

The server is optional; `cadence session watch --status-addr :9090` starts
it next to the session controller.
*/
package api
