package commands

import (
	"fmt"
	"strconv"
	"strings"
)

type Type string

const (
	TypeTaken  Type = "taken"
	TypeSnooze Type = "snooze"
	TypePause  Type = "pause"
	TypeStop   Type = "stop"
	TypeFeed   Type = "feed"
	TypeTrack  Type = "track"
	TypeShow   Type = "show"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// TargetSelected refers to whatever row the UI has highlighted.
const TargetSelected = "selected"

type TakenArgs struct {
	Target string
}

type SnoozeArgs struct {
	Target  string
	Minutes int
}

type TargetArgs struct {
	Target string
}

type FeedArgs struct {
	Amount string
}

type TrackArgs struct {
	Action string
}

type ShowArgs struct {
	Subject string
}

type Command struct {
	Type   Type
	Raw    string
	Taken  *TakenArgs
	Snooze *SnoozeArgs
	Pause  *TargetArgs
	Stop   *TargetArgs
	Feed   *FeedArgs
	Track  *TrackArgs
	Show   *ShowArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeTaken:
		return Command{Type: TypeTaken, Raw: input, Taken: &TakenArgs{Target: target(args)}}, nil
	case TypeSnooze:
		return parseSnooze(input, args)
	case TypePause:
		return Command{Type: TypePause, Raw: input, Pause: &TargetArgs{Target: target(args)}}, nil
	case TypeStop:
		return Command{Type: TypeStop, Raw: input, Stop: &TargetArgs{Target: target(args)}}, nil
	case TypeFeed:
		return Command{Type: TypeFeed, Raw: input, Feed: &FeedArgs{Amount: strings.Join(args, " ")}}, nil
	case TypeTrack:
		return parseTrack(input, args)
	case TypeShow:
		return parseShow(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func target(args []string) string {
	if len(args) == 0 {
		return TargetSelected
	}
	return args[0]
}

// parseSnooze accepts "snooze 15", "snooze 15m" or "snooze <id> 15".
func parseSnooze(raw string, args []string) (Command, error) {
	if len(args) == 0 || len(args) > 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "snooze requires minutes and an optional target"}
	}
	t, m := TargetSelected, args[0]
	if len(args) == 2 {
		t, m = args[0], args[1]
	}
	minutes, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(m), "m"))
	if err != nil || minutes <= 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("snooze minutes must be a positive number, got %q", m)}
	}
	return Command{Type: TypeSnooze, Raw: raw, Snooze: &SnoozeArgs{Target: t, Minutes: minutes}}, nil
}

func parseTrack(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "track requires start or stop"}
	}
	action := strings.ToLower(args[0])
	if action != "start" && action != "stop" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("track action must be start or stop, got %q", args[0])}
	}
	return Command{Type: TypeTrack, Raw: raw, Track: &TrackArgs{Action: action}}, nil
}

func parseShow(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "show requires a subject"}
	}
	return Command{Type: TypeShow, Raw: raw, Show: &ShowArgs{Subject: strings.ToLower(args[0])}}, nil
}
