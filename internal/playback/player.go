// Package playback declares the port for the audio playback collaborator.
// Playback itself is an external component; the core only defines the
// contract a player must satisfy.
package playback

import "time"

// Player plays a media URL and reports position and duration. Implementations
// live outside this module.
type Player interface {
	Play(mediaURL string) error
	Pause() error
	Seek(position time.Duration) error
	Position() time.Duration
	Duration() time.Duration
}
