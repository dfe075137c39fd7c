// Package runner implements the bounded control loop that turns a goal into
// a terminal outcome.
//
// Each iteration asks the model for the next action, acts on at most one tool
// proposal, and appends the observation to the run's conversation. Unknown
// tool names and failed invocations become corrective observations rather
// than terminating the run; only a missing final answer past the iteration
// cap, a failed model call, or cancellation ends it with an error.
package runner
