package misc

import "errors"

const StandardTimestamp = `20060102`

var (
	ErrMissingId = errors.New("missing id")
)
