// Package logging provides a simple leveled logging interface for the
// video shelf server and CLI.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable and
// may be overridden at runtime with SetLevel. Components that log a lot
// obtain a prefixed Logger with For.
package logging
