// Package chat implements the interactive session engine: the component
// that turns lines of user input into API turns, consumes the streamed
// model response, dispatches requested tool calls and persists the
// transcript.
//
// # Architecture
//
// The engine is callback-driven so the same core loop can serve both the
// interactive terminal and the non-interactive one-shot mode:
//
//   - Engine (this package): input classification, the command table and
//     the request/stream/tool-round loop
//   - chat/terminal: the liner-based REPL front-end
//
// # Turn processing
//
// A non-command line becomes a user turn and starts the loop: the engine
// issues a streaming completion request carrying the whole transcript and
// the registered tool declarations, accumulates content deltas into an
// in-progress assistant turn, and merges tool-call fragments per call
// index. When a response settles with pending tool calls, the frozen
// assistant turn is appended, every call is dispatched in the order the
// model emitted it, one tool turn is appended per result, and the request
// is reissued. The loop ends when a response carries a plain answer, at
// which point the session is persisted (when history is enabled).
//
// A failed stream discards the partial answer entirely; nothing partial is
// ever committed to the transcript, and the session continues.
//
// # Commands
//
// Lines starting with "/" are parsed into a closed set of command kinds
// and dispatched through an explicit table. Unrecognized commands warn and
// leave all state untouched. Commands whose optional argument is omitted
// display the current value instead of mutating it; invalid arguments
// (temperature outside [0,2], non-positive token limits, unknown themes)
// are rejected before any state changes.
package chat
