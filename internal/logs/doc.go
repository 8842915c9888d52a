// Package logs reads the JSON log written by trackplan.
//
// Tail returns the last N lines of the log or the lines appended after a
// byte offset, optionally waiting for new output. Entries decodes those lines
// and Filter narrows them to one run or a minimum level so `trackplan logs
// --run` can replay the decisions made for a single file.
package logs
