package quantum

import "errors"

// Precondition errors for entanglement-network operations. Every operation
// checks its gates inside the transaction that applies its writes, so a
// returned error always means nothing was written.
var (
	// ErrAlreadyInitialized means the character already holds a quantum state.
	ErrAlreadyInitialized = errors.New("quantum state already initialized")

	// ErrNotInitialized means the character has no quantum state yet.
	ErrNotInitialized = errors.New("quantum state not initialized")

	// ErrAlreadyEntangled means a bond between the two characters exists.
	ErrAlreadyEntangled = errors.New("characters already entangled")

	// ErrAlreadyCollapsed means the character's state collapsed earlier.
	// Collapse is a one-way transition.
	ErrAlreadyCollapsed = errors.New("quantum state already collapsed")

	// ErrSelfBond means both sides of a bond name the same character.
	ErrSelfBond = errors.New("cannot entangle a character with itself")

	// ErrZeroFactor means an initialization supplied a zero entanglement
	// factor, which is the storage sentinel for "uninitialized".
	ErrZeroFactor = errors.New("entanglement factor must be non-zero")

	// ErrEmptyMeme means a propagation supplied an empty meme string.
	ErrEmptyMeme = errors.New("meme cannot be empty")
)
