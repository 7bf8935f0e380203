// Package asyncfn wraps context aware functions to change when they run and
// which results their callers see.
//
// Every wrapper takes a Func and returns a Func with the same signature, so
// they compose:
//
//	search := asyncfn.SwitchMap(asyncfn.Limiting(lookup, 4))
//
// Each wrapper owns its state. Two wrappers built from the same function do
// not share queues or sequence numbers.
package asyncfn
