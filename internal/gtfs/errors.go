package gtfs

import "fmt"

// SourceFetchError reports that a schedule or realtime source could not be retrieved.
type SourceFetchError struct {
	Source string
	Err    error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.Source, e.Err)
}

func (e *SourceFetchError) Unwrap() error {
	return e.Err
}

// SourceParseError reports malformed or missing data in a fetched source.
// The refresh that hit it is abandoned and the previous data stays in effect.
type SourceParseError struct {
	Source string
	File   string
	Err    error
}

func (e *SourceParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("parsing %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("parsing %s (%s): %v", e.Source, e.File, e.Err)
}

func (e *SourceParseError) Unwrap() error {
	return e.Err
}
