package oracle

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidParams  = errors.New("oracle: invalid pool parameters")
	ErrUnreachable    = errors.New("oracle: server unreachable")
	ErrAcquireTimeout = errors.New("oracle: timed out acquiring connection")
	ErrPoolClosed     = errors.New("oracle: pool is closed")
	ErrConnReleased   = errors.New("oracle: connection already released")
	ErrCursorClosed   = errors.New("oracle: cursor is closed")
)

var urlCredentials = regexp.MustCompile(`oracle://[^@/\s]*@`)

// scrubbedError keeps the original chain for errors.Is but hides credentials
// in the message.
type scrubbedError struct {
	msg string
	err error
}

func (e *scrubbedError) Error() string { return e.msg }
func (e *scrubbedError) Unwrap() error { return e.err }

// Secrets shorter than this are only scrubbed via the URL pattern.
const minScrubLen = 8

func scrub(err error, secrets ...string) error {
	if err == nil {
		return nil
	}
	msg := urlCredentials.ReplaceAllString(err.Error(), "oracle://***@")
	for _, s := range secrets {
		if len(s) >= minScrubLen {
			msg = strings.ReplaceAll(msg, s, "***")
		}
	}
	if msg == err.Error() {
		return err
	}
	return &scrubbedError{msg: msg, err: err}
}
