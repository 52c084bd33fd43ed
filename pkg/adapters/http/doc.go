/*
Package http exposes a running VM over HTTP.

Events are accepted asynchronously: POST /events queues one and answers 202
with its id, and the outcome is delivered by the driver's next tick. Clients
that want results subscribe to GET /stream, a Server-Sent Events feed of
outcomes, or drain explicitly with POST /tick.

	GET    /health
	GET    /info
	GET    /graphs
	GET    /graphs/{name}
	GET    /graphs/{name}/mermaid
	POST   /events
	DELETE /events/{id}
	POST   /tick
	GET    /vars
	PUT    /vars/{name}
	GET    /stream?graph=name
	GET    /metrics
*/
package http
