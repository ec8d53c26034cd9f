// Package http implements the HTTP handlers for the data chat service.
// Handlers stay thin: request parsing, validation and response shaping
// live here, everything else is delegated to the service layer.
//
// The analyze endpoint is special. It responds with a Server-Sent Events
// stream and commits to the 200 status on the first event, so any
// failure after that point is reported inside the stream as a
// step_error or fatal_error event rather than as an HTTP status.
package http
