package sse

// Broadcaster delivers a payload to every open stream and reports how many
// accepted it. Hub is the local implementation.
type Broadcaster interface {
	Publish(data []byte) int
}

// Observer is notified of stream lifecycle changes. Implementations must be
// cheap and must not call back into the Hub.
type Observer interface {
	ClientAdded()
	ClientRemoved(evicted bool)
}

type nopObserver struct{}

func (nopObserver) ClientAdded()       {}
func (nopObserver) ClientRemoved(bool) {}
