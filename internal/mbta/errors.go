package mbta

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrFetch matches every FetchError.
var ErrFetch = errors.New("transport fetch failed")

// FetchError reports a request that could not be completed: network failure,
// timeout, non-success status or an undecodable body.
type FetchError struct {
	Path       string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Path, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }
