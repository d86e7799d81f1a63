// Package operation dispatches commands to enrolled wearables and
// keeps the per-device operation history.
//
// The Dispatcher validates the target against the enrollment registry,
// renders the agent wire payload, delivers it through a Channel, and
// records the operation. Delivery precedes recording: a failed publish
// leaves no operation row, so the history reflects only commands that
// reached the broker.
package operation
