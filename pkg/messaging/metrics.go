package messaging

import "time"

// Counter receives dispatch statistics. Implementations must be safe for
// concurrent use.
type Counter interface {
	IncReceived(channel string)
	IncReplied(channel string)
	IncDropped(channel string)
	IncFailed(channel, operation string)
	ObserveDispatch(channel string, elapsed time.Duration)
}

type NoOpCounter struct{}

func (NoOpCounter) IncReceived(string)                    {}
func (NoOpCounter) IncReplied(string)                     {}
func (NoOpCounter) IncDropped(string)                     {}
func (NoOpCounter) IncFailed(string, string)              {}
func (NoOpCounter) ObserveDispatch(string, time.Duration) {}
