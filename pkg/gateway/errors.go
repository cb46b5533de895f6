package gateway

import "fmt"

// FetchError reports that the bulk price feed could not be read. StatusCode
// is zero when the request failed before a response was received.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("price feed %s returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch prices from %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
