package timer

import (
	"fmt"
)

// AppTitle is the base window title.
const AppTitle = "PomoHatch"

// FormatTime converts a number of seconds into a mm:ss string format.
func FormatTime(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}

// Title renders the window title for a snapshot, e.g. "PomoHatch — 24:59 (Focus)".
// translate maps the mode label; nil leaves it in English.
func Title(s Snapshot, translate func(string) string) string {
	label := s.Mode.Label()
	if translate != nil {
		label = translate(label)
	}
	return fmt.Sprintf("%s — %s (%s)", AppTitle, FormatTime(s.Remaining), label)
}
