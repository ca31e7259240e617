package queue

import "errors"

// ErrEmptyBlock is returned when Append is given only blank lines.
var ErrEmptyBlock = errors.New("queue: empty block")
