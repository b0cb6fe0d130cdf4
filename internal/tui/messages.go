package tui

// collectionChangedMsg signals that the collection state should be re-read.
type collectionChangedMsg struct{}

// actionDoneMsg reports the outcome of a background fetch or delete.
type actionDoneMsg struct {
	err    error
	action string
}

const (
	actionRefresh = "refresh"
	actionDelete  = "delete"
)
