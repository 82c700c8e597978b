package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// SpeechChanged is true when the narration language or voice hint
	// changed. Applies to players started after the reload.
	SpeechChanged bool
	NewSpeech     SpeechConfig

	// PlayerChanged is true when playback pauses changed. Applies to players
	// started after the reload.
	PlayerChanged bool
	NewPlayer     PlayerConfig
}

// Empty reports whether the diff carries no hot-reloadable change.
func (d ConfigDiff) Empty() bool {
	return !d.LogLevelChanged && !d.SpeechChanged && !d.PlayerChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Speech != new.Speech {
		d.SpeechChanged = true
		d.NewSpeech = new.Speech
	}

	if old.Player != new.Player {
		d.PlayerChanged = true
		d.NewPlayer = new.Player
	}

	return d
}
