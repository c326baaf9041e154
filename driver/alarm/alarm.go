// Package alarm drives the RP2040 TIMER peripheral: a free-running
// microsecond counter and four one-shot alarms with interrupt
// callbacks. The hardware implementation carries the tinygo build
// tag; hosts use the atxt package's simulator clock instead.
package alarm
