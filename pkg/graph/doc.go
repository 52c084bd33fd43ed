// Package graph validates raw graph descriptions and compiles them into
// immutable, runnable definitions.
//
// Build checks every structural invariant up front: instance ids and node
// types resolve, connections reference real slots with compatible kinds,
// every input has at most one incoming connection, entry points exist, and
// no cycle is reachable from any entry point. A Definition that Build
// returns can be evaluated without further structural checks.
//
// Instances are stored in an arena addressed by dense integer indices, and
// connections are index pairs, so a Definition holds no pointers between
// nodes.
package graph
