package main

// Exit codes
const (
	ExitSuccess      = 0 // Success
	ExitError        = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError  = 2 // No vault, bad config
	ExitDataError    = 3 // Malformed input, duplicate reference, existing note
	ExitNotFound     = 4 // Identifier or query matched nothing
	ExitNetworkError = 5 // Remote service failed or rate limited
	ExitCancelled    = 6 // User backed out of the picker
)
