package notify

import "errors"

var (
	ErrBrokerClosed = errors.New("notify: broker closed")
	ErrHubClosed    = errors.New("notify: hub closed")
)
