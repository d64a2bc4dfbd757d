package writer

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go"
)

// SafeWrite runs fn with a bounded retry while the destination is locked by
// another process (the workbook open in a spreadsheet application is the
// usual cause). Other errors fail immediately; exhausting the retries fails
// with the last lock error.
func SafeWrite(path string, fn func() error) error {
	err := retry.Do(
		fn,
		retry.RetryIf(func(err error) bool {
			if !isFileLocked(err) {
				return false
			}
			fmt.Fprintf(os.Stderr, "File %q is currently open in another program; retrying...\n", path)
			return true
		}),
		retry.Attempts(3),
		retry.Delay(5*time.Second),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}
	return nil
}

func isFileLocked(err error) bool {
	if err == nil {
		return false
	}
	if os.IsPermission(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "used by another process") ||
		strings.Contains(msg, "sharing violation")
}
