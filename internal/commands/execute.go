package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Taken  func(TakenArgs) (Result, error)
	Snooze func(SnoozeArgs) (Result, error)
	Pause  func(TargetArgs) (Result, error)
	Stop   func(TargetArgs) (Result, error)
	Feed   func(FeedArgs) (Result, error)
	Track  func(TrackArgs) (Result, error)
	Show   func(ShowArgs) (Result, error)
}

func missing(name string) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: name + " handler not configured"}
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeTaken:
		if handlers.Taken == nil {
			return Result{}, missing("taken")
		}
		return handlers.Taken(*cmd.Taken)
	case TypeSnooze:
		if handlers.Snooze == nil {
			return Result{}, missing("snooze")
		}
		return handlers.Snooze(*cmd.Snooze)
	case TypePause:
		if handlers.Pause == nil {
			return Result{}, missing("pause")
		}
		return handlers.Pause(*cmd.Pause)
	case TypeStop:
		if handlers.Stop == nil {
			return Result{}, missing("stop")
		}
		return handlers.Stop(*cmd.Stop)
	case TypeFeed:
		if handlers.Feed == nil {
			return Result{}, missing("feed")
		}
		return handlers.Feed(*cmd.Feed)
	case TypeTrack:
		if handlers.Track == nil {
			return Result{}, missing("track")
		}
		return handlers.Track(*cmd.Track)
	case TypeShow:
		if handlers.Show == nil {
			return Result{}, missing("show")
		}
		return handlers.Show(*cmd.Show)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
