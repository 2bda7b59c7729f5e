// Package tutorkit is the tool bridge between a conversational tutoring agent and a
// shared workspace made of a drawing board, a code editor and a lesson document.
//
// Agent tool calls arrive as JSON. NewTool turns a typed Go handler into a Tool whose
// argument schema is derived from the handler's argument struct; the same schema is
// sent to the agent and used to validate incoming arguments. A Registry executes calls
// with a timeout and a concurrency bound, and an Observer wraps every call with a
// request id, start/done/error events, a busy signal and a capped log.
//
// Handlers report outcomes with the Result envelope:
//
//	{"status":"ok","summary":"moved shape 01J...","data":{...}}
//	{"status":"error","summary":"x must be a finite number"}
//
// Validation problems become error envelopes the agent can act on. Failures of a
// workspace collaborator propagate as errors and are reported as failed calls.
//
// The workspace itself lives in the action, board, code and lesson packages; ctxsync
// keeps the agent's view of it fresh and realtime carries the conversation.
package tutorkit
