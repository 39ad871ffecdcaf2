package resolver

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is matched by errors that let resolution fall through to
	// the next strategy.
	ErrNotFound = errors.New("module not found")
	// ErrExportNotExported is matched by errors for a package subpath that
	// the package's export map does not expose. It only falls through within
	// alias and extension retries.
	ErrExportNotExported = errors.New("package subpath not exported")
)

// NotFoundError reports a specifier that could not be resolved from a
// parent.
type NotFoundError struct {
	Specifier string
	Parent    string
}

func (e *NotFoundError) Error() string {
	if e.Parent == "" {
		return fmt.Sprintf("cannot find module %q", e.Specifier)
	}
	return fmt.Sprintf("cannot find module %q imported from %s", e.Specifier, e.Parent)
}

// Is makes NotFoundError match ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError builds a NotFoundError for the request.
func NewNotFoundError(req *Request) error {
	return &NotFoundError{Specifier: req.Specifier, Parent: req.ParentFile()}
}

// NotExportedError reports a package subpath hidden by an export map.
type NotExportedError struct {
	Package string
	Subpath string
}

func (e *NotExportedError) Error() string {
	return fmt.Sprintf("package subpath %q is not defined by \"exports\" in %s", e.Subpath, e.Package)
}

// Is makes NotExportedError match ErrExportNotExported.
func (e *NotExportedError) Is(target error) bool {
	return target == ErrExportNotExported
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsFallthrough reports whether err lets a candidate retry continue: a
// not-found or a not-exported error.
func IsFallthrough(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrExportNotExported)
}
