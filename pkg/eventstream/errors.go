package eventstream

import "errors"

// ErrNilRevisionEvent indicates a nil revision event payload was provided to a publisher.
var ErrNilRevisionEvent = errors.New("nil revision event")
