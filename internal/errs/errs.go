// Package errs collects the sentinel errors surfaced by the file system
// core. Callers compare with errors.Is; wrapping call sites add detail
// with fmt.Errorf("%w - %s", errs.ErrX, detail).
package errs

import "fmt"

var ErrNoSpace = fmt.Errorf("no space")
var ErrTooLarge = fmt.Errorf("file too large")
var ErrDuplicateName = fmt.Errorf("duplicate name")
var ErrDirectoryFull = fmt.Errorf("directory full")
var ErrPathNotFound = fmt.Errorf("path not found")
var ErrNotFound = fmt.Errorf("not found")
var ErrBadId = fmt.Errorf("bad file id")
var ErrInvalid = fmt.Errorf("invalid argument")

var ErrMissingArguments = fmt.Errorf("missing arguments")
var ErrUnknownArguments = fmt.Errorf("unknown arguments")
var ErrUnknownCommand = fmt.Errorf("unknown command")
