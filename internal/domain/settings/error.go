package settings

import "errors"

var (
	ErrUnknownField = errors.New("unknown configuration field")
)
