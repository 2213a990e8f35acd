package domain

import "errors"

var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrLevelTooLow          = errors.New("level too low")
	ErrLevelCapped          = errors.New("level capped")
	ErrNotUnlocked          = errors.New("exchange not unlocked")
	ErrAlreadyUnlocked      = errors.New("exchange already unlocked")
	ErrCooldownActive       = errors.New("cooldown active")
	ErrCorruptSnapshot      = errors.New("corrupt snapshot")
	ErrIncompatibleSnapshot = errors.New("incompatible snapshot version")
	ErrRemoteUnavailable    = errors.New("remote unavailable")
	ErrUnknownItem          = errors.New("unknown item")
	ErrItemLocked           = errors.New("item locked")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrCellOutOfRange       = errors.New("cell out of range")
)
