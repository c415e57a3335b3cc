package mind

import "errors"

// Precondition errors for consciousness operations. Gates are checked inside
// the transaction that applies the writes, so a returned error always means
// nothing was written.
var (
	// ErrAlreadyInitialized means the character already has a consciousness
	// record.
	ErrAlreadyInitialized = errors.New("consciousness already initialized")

	// ErrNotInitialized means the character has no consciousness record yet.
	ErrNotInitialized = errors.New("consciousness not initialized")

	// ErrInvalidAwareness means an initialization supplied an awareness
	// level outside the (0, 100] range.
	ErrInvalidAwareness = errors.New("awareness level must be between 1 and 100")

	// ErrInvalidPriority means a value was added with a priority above 100.
	ErrInvalidPriority = errors.New("priority cannot exceed 100")

	// ErrCooldownNotElapsed means an evolution was attempted before the
	// cooldown window since the last update had passed.
	ErrCooldownNotElapsed = errors.New("evolution cooldown has not elapsed")
)
