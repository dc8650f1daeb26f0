package earcon

// The system sound taxonomy is pure data: each set maps to a folder under
// the system sound directory (empty for UI, whose sounds sit at the root)
// and each sound to the file name the OS ships. Nothing outside this file
// knows those file names.

type systemSound struct {
	Name string
	File string
}

var setFolders = map[SystemSet]string{
	SetModern: "Modern",
	SetNano:   "Nano",
	SetNew:    "New",
	SetUI:     "",
}

var systemSounds = map[SystemSet][]systemSound{
	SetModern: {
		{Name: "Alert", File: "Alert.caf"},
		{Name: "Anticipate", File: "Anticipate.caf"},
		{Name: "Bloom", File: "Bloom.caf"},
		{Name: "Calypso", File: "Calypso.caf"},
		{Name: "Chime", File: "Chime.caf"},
		{Name: "Descent", File: "Descent.caf"},
		{Name: "Fanfare", File: "Fanfare.caf"},
		{Name: "Ladder", File: "Ladder.caf"},
		{Name: "Minuet", File: "Minuet.caf"},
		{Name: "Noir", File: "Noir.caf"},
		{Name: "Pulse", File: "Pulse.caf"},
		{Name: "Synth", File: "Synth.caf"},
		{Name: "Telegraph", File: "Telegraph.caf"},
		{Name: "Update", File: "Update.caf"},
	},
	SetNano: {
		{Name: "Beacon", File: "Beacon.caf"},
		{Name: "Blip", File: "Blip.caf"},
		{Name: "Dot", File: "Dot.caf"},
		{Name: "Flick", File: "Flick.caf"},
		{Name: "Spark", File: "Spark.caf"},
		{Name: "Tap", File: "Tap.caf"},
		{Name: "Tick", File: "Tick.caf"},
	},
	SetNew: {
		{Name: "Breeze", File: "Breeze.caf"},
		{Name: "Crystal", File: "Crystal.caf"},
		{Name: "Mallet", File: "Mallet.caf"},
		{Name: "Orbit", File: "Orbit.caf"},
		{Name: "Ripple", File: "Ripple.caf"},
		{Name: "Signal", File: "Signal.caf"},
	},
	SetUI: {
		{Name: "Basso", File: "Basso.aiff"},
		{Name: "Blow", File: "Blow.aiff"},
		{Name: "Bottle", File: "Bottle.aiff"},
		{Name: "Frog", File: "Frog.aiff"},
		{Name: "Funk", File: "Funk.aiff"},
		{Name: "Glass", File: "Glass.aiff"},
		{Name: "Hero", File: "Hero.aiff"},
		{Name: "Morse", File: "Morse.aiff"},
		{Name: "Ping", File: "Ping.aiff"},
		{Name: "Pop", File: "Pop.aiff"},
		{Name: "Purr", File: "Purr.aiff"},
		{Name: "Sosumi", File: "Sosumi.aiff"},
		{Name: "Submarine", File: "Submarine.aiff"},
		{Name: "Tink", File: "Tink.aiff"},
	},
}

// SoundsIn returns the sound names of a set in table order. The slice is a
// copy; callers may mutate it.
func SoundsIn(set SystemSet) []string {
	sounds := systemSounds[set]
	names := make([]string, len(sounds))
	for i, s := range sounds {
		names[i] = s.Name
	}
	return names
}

// KnownSystemSound reports whether the set contains a sound with that name.
func KnownSystemSound(set SystemSet, name string) bool {
	_, ok := lookupSystemSound(set, name)
	return ok
}

// SystemSoundFile returns the shipped file name for a system sound.
func SystemSoundFile(set SystemSet, name string) (string, bool) {
	s, ok := lookupSystemSound(set, name)
	if !ok {
		return "", false
	}
	return s.File, true
}

func lookupSystemSound(set SystemSet, name string) (systemSound, bool) {
	for _, s := range systemSounds[set] {
		if s.Name == name {
			return s, true
		}
	}
	return systemSound{}, false
}
