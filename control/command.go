// Package control defines lightweight command messages used by the UI to
// request actions from the application command loop. The command loop
// applies them to the engine in the order received.
package control

import "PomoHatch/timer"

// CommandType enumerates supported command operations.
type CommandType int

const (
	CmdSelectMode CommandType = iota
	CmdStart
	CmdPause
	CmdReset
	CmdCompleteNow
)

func (c CommandType) String() string {
	switch c {
	case CmdSelectMode:
		return "select_mode"
	case CmdStart:
		return "start"
	case CmdPause:
		return "pause"
	case CmdReset:
		return "reset"
	case CmdCompleteNow:
		return "complete_now"
	default:
		return "unknown"
	}
}

// Command is the message sent from the UI to AppManager.commandLoop. The
// optional Reply channel receives the operation's error (nil on success),
// e.g. timer.ErrRunning for a rejected mode switch.
type Command struct {
	Type  CommandType
	Mode  timer.Mode // CmdSelectMode only
	Reply chan error // optional reply channel
}

// WithReply returns cmd with a buffered reply channel attached.
func WithReply(cmd Command) (Command, <-chan error) {
	reply := make(chan error, 1)
	cmd.Reply = reply
	return cmd, reply
}
