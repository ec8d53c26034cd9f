// Package analysis contains the session core: the state machine, the
// event model, and the runner that turns a business id and a natural
// language query into an ordered stream of execution events.
//
// A session is owned by a single request. The runner fetches the
// dataset, asks the planner for instructions, validates them, then
// executes each instruction sequentially against the working dataset.
// A step that returns a table replaces the working dataset for the
// steps after it; any other result leaves it unchanged. Step failures
// are reported in the stream and, by default, do not stop the session.
package analysis
