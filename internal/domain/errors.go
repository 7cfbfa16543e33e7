package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrRateLimited     = errors.New("rate limited")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrMalformedMarket = errors.New("malformed market")
	ErrInvalidStake    = errors.New("stake must be a positive finite amount")
	ErrLockHeld        = errors.New("lock already held")
)
