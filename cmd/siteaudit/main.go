package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess     = 0 // Audit finished at or above the minimum score
	ExitAuditFailed = 1 // Audit finished below the minimum score
	ExitError       = 2 // Configuration or runtime error
)

// AuditFailureError indicates that the audit ran successfully but the
// consolidated score fell below the requested minimum.
type AuditFailureError struct {
	Message string
}

func (e *AuditFailureError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var auditErr *AuditFailureError
		if errors.As(err, &auditErr) {
			os.Exit(ExitAuditFailed)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}
