package domain

import "errors"

var (
	// ErrDecode marks a feed payload that is not a flat JSON object.
	ErrDecode = errors.New("decode payload")
	// ErrUnknownTopic marks a feed topic outside the topic table.
	ErrUnknownTopic = errors.New("unknown topic")
	// ErrUnknownRole marks a subscription request for a role with no queue.
	ErrUnknownRole = errors.New("unknown role")
	// ErrStreamClosed is returned by a stream after Close.
	ErrStreamClosed = errors.New("stream closed")
)
