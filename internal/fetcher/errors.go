package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind distinguishes the ways a page retrieval can fail
type ErrorKind int

const (
	KindNetwork ErrorKind = iota
	KindTimeout
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindDecode:
		return "decode"
	default:
		return "network"
	}
}

// FetchError is returned when the target page could not be retrieved or
// its body could not be decoded to text.
type FetchError struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s error: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is a FetchError caused by a deadline
func IsTimeout(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == KindTimeout
}

func isTimeoutErr(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
