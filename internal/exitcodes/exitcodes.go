package exitcodes

// Exit codes for the nest-cleaner executables
const (
	Success            = 0 // Successful execution
	InvalidConfig      = 2 // Configuration file invalid, or bad command-line usage
	SafetyViolation    = 3 // Some listed files were refused or could not be trashed
	RuntimeError       = 4 // Runtime error during execution
	PreconditionFailed = 5 // Missing target folder, empty list or declined confirmation
)
