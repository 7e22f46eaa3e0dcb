// Package errors provides structured, actionable error messages for the
// shell command line.
//
// Library packages return plain Go errors (sentinels and wrapping
// structs). At the CLI boundary Classify maps them onto a registered
// code, which carries:
//   - A short message describing the error
//   - A detailed explanation
//   - A suggestion on how to fix it
//
// # Error Categories
//
//   - init: the session init request failed
//   - activation: the client runtime did not activate
//   - navigation: a view could not be attached to its element
//   - protocol: push connection problems
//   - config: shell.json problems
//   - cli: command usage problems
//
// # Usage
//
//	if _, err := b.Start(ctx); err != nil {
//	    errors.PrintError(errors.Classify(err))
//	}
//	// ERROR E002: Init response is not JSON
//	//
//	//   The server answered the init request with a content type other
//	//   than application/json.
//	//
//	//   Hint: Check that baseURL points at the application root
package errors
