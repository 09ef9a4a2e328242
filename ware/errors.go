package ware

import (
	"github.com/AntonStoeckl/warekit/ware/logging"
)

var ErrInvalidArgument = logging.NewErrorKind("invalid argument")
var ErrMissingValue = logging.NewErrorKind("missing value")
var ErrFormatMismatch = logging.NewErrorKind("format mismatch")
var ErrUnexpectedType = logging.NewErrorKind("unexpected type")
