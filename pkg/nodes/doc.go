// Package nodes provides the standard node library.
//
// Register adds every built-in type to a registry:
//
//	const                 static value from the "value" parameter
//	event.value           pass-through, typically used as an entry node
//	math.add|sub|mul|div  arithmetic on numbers
//	compare               eq, ne, lt, le, gt, ge on numbers, text and bools
//	logic.and|or|not      boolean logic
//	select                picks "then" or "else" by a condition
//	text.concat           joins two texts with an optional separator
//	text.format           replaces each "{}" of a template with a value
//	print                 formats a value as text and emits it on the "print" topic
//	emit                  emits a value on any topic
//	host.get|host.set     reads and writes entity components
//	enqueue               schedules another event for the next drain
//	var.get|var.set       reads and writes global variables
//	counter|toggle|latch  stateful primitives
package nodes
