// Package mqtt connects graphs to an MQTT broker: a Bridge feeds broker
// messages in as events and a Host publishes node effects back out.
package mqtt
