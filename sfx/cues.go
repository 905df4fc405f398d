package sfx

// CueForStage returns the sound for a pet leaving stage, or "" when the
// transition has no cue.
func CueForStage(stage string) string {
	switch stage {
	case "egg":
		return KeyCrack
	case "cracked":
		return KeyHatch
	case "hatched":
		return KeyEvolve
	}
	return ""
}

// DefaultFiles maps each default key to its asset file name.
var DefaultFiles = map[string]string{
	KeyPomo:   "pomo-complete.mp3",
	KeyCrack:  "crack.mp3",
	KeyHatch:  "hatch.mp3",
	KeyEvolve: "evolve.mp3",
}
