package cli

import (
	"errors"

	"github.com/mark3labs/discovery2go/internal/discovery"
)

var ErrUsage = errors.New("cli usage error")

type usageError struct {
	msg string
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}

// Process exit codes, following sysexits(3) where one applies.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitNoInput    = 66 // EX_NOINPUT
	ExitCantCreate = 73 // EX_CANTCREAT
)

// ExitCode maps an error returned by Execute to a process exit code. Input
// and output failures get distinct codes; everything else is 1.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var de *discovery.Error
	if errors.As(err, &de) && de.Code == discovery.FileIOError {
		switch de.Op {
		case discovery.OpOpen:
			return ExitNoInput
		case discovery.OpCreate:
			return ExitCantCreate
		}
	}
	return ExitFailure
}
