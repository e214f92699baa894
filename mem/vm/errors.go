package vm

import "errors"

var (
	// ErrPageExists is returned when a page is registered at an address that
	// already holds one.
	ErrPageExists = errors.New("page already exists")

	// ErrNotMapped is returned when no page covers an address.
	ErrNotMapped = errors.New("address not mapped")

	// ErrProtection is returned when a write targets a read-only page.
	ErrProtection = errors.New("write to read-only page")

	// ErrBadAddress is returned for null, unaligned or kernel addresses.
	ErrBadAddress = errors.New("bad user address")

	// ErrAlreadyResident is returned when claiming a page that already has a
	// frame.
	ErrAlreadyResident = errors.New("page already resident")

	// ErrInvalidMapping is returned when mmap arguments are rejected.
	ErrInvalidMapping = errors.New("invalid mapping")

	// ErrShortIO is returned when a file transfers fewer bytes than needed.
	ErrShortIO = errors.New("short file transfer")

	// ErrNoSwap is returned when an anonymous page must be evicted but no
	// swap device is configured.
	ErrNoSwap = errors.New("no swap device")

	// ErrOutOfMemory is returned when every frame is bound and none of the
	// resident pages can be evicted.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrNoExecutable is returned when a load page is copied into an address
	// space that has no executable of its own.
	ErrNoExecutable = errors.New("address space has no executable")
)
