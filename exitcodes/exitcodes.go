// Package exitcodes defines the exit codes used by movement-cli-e2e.
package exitcodes

// Exit code constants used by movement-cli-e2e
// These constants define the exit codes that the application uses to indicate
// various states when it exits:
//
// * Success (0): Used when all tests pass successfully
// * Failure (1): Used when a test fails, or the run is aborted before or
// while preparing
const (
	Success = 0 // All tests pass
	Failure = 1 // Test failures and fatal errors
)
