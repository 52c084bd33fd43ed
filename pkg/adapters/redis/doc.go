// Package redis provides Redis-backed adapters: a state store, a host whose
// world lives in hashes, and a distributed locker for checkpoints.
package redis
