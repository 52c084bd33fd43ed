// Package mcp exposes a running VM to agents over the Model Context Protocol.
//
// Tools: list_graphs, enqueue_event, process_events, fire, cancel_event.
// Resources: tendril://graphs.
package mcp
