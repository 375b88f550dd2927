package serp

import "fmt"

// ProviderError reports a failed search call
type ProviderError struct {
	Query      string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("search %q failed: %v", e.Query, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("search %q failed with status %d: %s", e.Query, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("search %q failed: %s", e.Query, e.Message)
	}
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
