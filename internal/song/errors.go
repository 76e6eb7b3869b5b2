package song

import "errors"

// Semantic errors carried verbatim in error envelopes on the wire. The
// messages match what hosts report for the same faults, so clients can
// pattern match on them.
var (
	ErrTrackIndex   = errors.New("Track index out of range")
	ErrClipIndex    = errors.New("Clip index out of range")
	ErrNoClip       = errors.New("No clip in slot")
	ErrSlotOccupied = errors.New("Clip slot already has a clip")
	ErrDeviceIndex  = errors.New("Device index out of range")
)
