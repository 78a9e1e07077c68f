package cli

import "errors"

// ErrMissingPromptTemplate is returned when the devlog directory exists but
// the prompt template is gone. Onboarding cannot proceed without the prompt
// it needs to write new entries; scaffolding already done is left in place.
var ErrMissingPromptTemplate = errors.New("missing prompt template (_rules/_devlog/_generate-devlog.md)")

// SilentError marks an error whose details were already printed by the
// command; main suppresses the duplicate message and only sets the exit code.
type SilentError struct {
	Err error
}

func (e *SilentError) Error() string {
	if e.Err == nil {
		return "silent error"
	}
	return e.Err.Error()
}

func (e *SilentError) Unwrap() error { return e.Err }
