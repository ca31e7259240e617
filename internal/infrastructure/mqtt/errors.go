package mqtt

import "errors"

// Errors returned by the client. Wrapped errors keep these as their cause,
// so check with errors.Is.
var (
	ErrNotConnected     = errors.New("mqtt: not connected to broker")
	ErrConnectionFailed = errors.New("mqtt: broker connection failed")
	ErrPublishFailed    = errors.New("mqtt: publish failed")
	ErrSubscribeFailed  = errors.New("mqtt: subscribe failed")

	// ErrInvalidQoS rejects levels above 2.
	ErrInvalidQoS = errors.New("mqtt: QoS must be 0, 1 or 2")

	// ErrInvalidTopic rejects an empty topic or event kind.
	ErrInvalidTopic = errors.New("mqtt: empty topic")

	// ErrPayloadTooLarge rejects payloads over maxPayloadSize.
	ErrPayloadTooLarge = errors.New("mqtt: payload exceeds size limit")
)
