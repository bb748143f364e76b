package reader

import "errors"

var (
	ErrEmptyLine  = errors.New("empty tag line")
	ErrInvalidTag = errors.New("invalid tag id")
)
