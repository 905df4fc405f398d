package timer

import (
	"fmt"
	"image/color"
)

// Mode selects which countdown the engine runs.
type Mode int

const (
	ModeFocus Mode = iota
	ModeShortBreak
	ModeLongBreak
)

// AllModes lists the modes in mode-bar order.
var AllModes = []Mode{ModeFocus, ModeShortBreak, ModeLongBreak}

// String returns the wire name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeFocus:
		return "focus"
	case ModeShortBreak:
		return "short"
	case ModeLongBreak:
		return "long"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Label returns the short human label used in the window title.
func (m Mode) Label() string {
	switch m {
	case ModeFocus:
		return "Focus"
	case ModeShortBreak:
		return "Break"
	case ModeLongBreak:
		return "Long Break"
	}
	return m.String()
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m >= ModeFocus && m <= ModeLongBreak
}

// ParseMode converts a wire name back into a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range AllModes {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Durations holds the nominal length of each mode in seconds.
type Durations struct {
	Focus      int
	ShortBreak int
	LongBreak  int
}

// DefaultDurations are the classic 25/5/10 minute Pomodoro lengths.
var DefaultDurations = Durations{
	Focus:      25 * 60,
	ShortBreak: 5 * 60,
	LongBreak:  10 * 60,
}

// Of returns the duration of m in seconds.
func (d Durations) Of(m Mode) int {
	switch m {
	case ModeShortBreak:
		return d.ShortBreak
	case ModeLongBreak:
		return d.LongBreak
	default:
		return d.Focus
	}
}

// withDefaults replaces non-positive entries with the defaults.
func (d Durations) withDefaults() Durations {
	if d.Focus <= 0 {
		d.Focus = DefaultDurations.Focus
	}
	if d.ShortBreak <= 0 {
		d.ShortBreak = DefaultDurations.ShortBreak
	}
	if d.LongBreak <= 0 {
		d.LongBreak = DefaultDurations.LongBreak
	}
	return d
}

// UI constants
const (
	FontSizeTime  float32 = 56.0
	FontSizePills float32 = 14.0

	WindowWidth  = 360
	WindowHeight = 300
	GapButton    = 5
	CornerRadius = 10.0
)

var (
	// BackgroundColor is the base background for the timer card.
	BackgroundColor = color.NRGBA{R: 0x1e, G: 0x1e, B: 0x1e, A: 0xff}
	// FocusColor tints the card while a Focus session is selected.
	FocusColor = color.NRGBA{R: 0xff, G: 0x63, B: 0x63, A: 0xb4}
	// BreakColor tints the card for both break modes.
	BreakColor = color.NRGBA{R: 0x4c, G: 0xaf, B: 0x50, A: 0xb4}
)
