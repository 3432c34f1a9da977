package player

// Capabilities describes which controls the active backend can honor.
// The presentation shell hides or disables controls whose flag is false
// rather than offering a button that silently does nothing.
type Capabilities struct {
	// CanSeek is true when the backend honors seek requests, even if
	// degraded (the embedded-share backend seeks by recreating the
	// embed with a new start offset).
	CanSeek bool `json:"can_seek"`
	// CanSetVolume covers both volume and mute.
	CanSetVolume bool `json:"can_set_volume"`
	CanSetRate    bool `json:"can_set_rate"`
	CanFullscreen bool `json:"can_fullscreen"`
}
