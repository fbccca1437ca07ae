// Package kerrors implements the error taxonomy of §7: config, lookup,
// transform, remote and processing errors. Each kind wraps an underlying
// error and carries enough context (phase, item, element) to attach to a
// per-item result slot without the caller needing to parse message text.
package kerrors

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindConfig     Kind = "config"
	KindLookup     Kind = "lookup"
	KindTransform  Kind = "transform"
	KindRemote     Kind = "remote"
	KindProcessing Kind = "processing"
)

// Error is a classified, per-item error carrying phase/resource context.
type Error struct {
	Kind         Kind
	Phase        string
	ItemCodename string
	Element      string
	Err          error
}

func (e *Error) Error() string {
	switch {
	case e.ItemCodename != "" && e.Element != "":
		return fmt.Sprintf("%s: item %q element %q: %v", e.Phase, e.ItemCodename, e.Element, e.Err)
	case e.ItemCodename != "":
		return fmt.Sprintf("%s: item %q: %v", e.Phase, e.ItemCodename, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Phase, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func Config(phase string, err error) error {
	return &Error{Kind: KindConfig, Phase: phase, Err: err}
}

func Lookup(phase, itemCodename string, err error) error {
	return &Error{Kind: KindLookup, Phase: phase, ItemCodename: itemCodename, Err: err}
}

func Transform(phase, itemCodename, element string, err error) error {
	return &Error{Kind: KindTransform, Phase: phase, ItemCodename: itemCodename, Element: element, Err: err}
}

func Remote(phase string, err error) error {
	return &Error{Kind: KindRemote, Phase: phase, Err: err}
}

func Processing(phase, itemCodename string, err error) error {
	return &Error{Kind: KindProcessing, Phase: phase, ItemCodename: itemCodename, Err: err}
}

// KindOf extracts the Kind from a wrapped error chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// NotFound is a sentinel classification for 404 responses, which are
// tolerated at lookup sites and fatal at creation sites (§7).
var ErrNotFound = errors.New("not found")

// IsNotFound reports whether err represents a remote 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// RateLimited is the sentinel for the platform's rateExceeded (10000) error
// code, the only remote error kind the retry policy (§5) retries besides
// plain transport failures.
var ErrRateLimited = errors.New("rate limited")

func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// Transient marks a transport-level failure (connection refused, timeout,
// EOF) that carries no platform error code at all — also retryable under
// §5's policy.
var ErrTransient = errors.New("transient transport error")

func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// BadPublish marks a server-side publish validation failure that §4.11/§11
// requires be swallowed (logged, not propagated).
var ErrBadPublish = errors.New("bad publish")

func IsBadPublish(err error) bool {
	return errors.Is(err, ErrBadPublish)
}
