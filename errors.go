package kansa

import "errors"

// ErrNotImplemented is returned by operations this adapter does not
// support yet (FindByID).
var ErrNotImplemented = errors.New("kansa: not implemented")
