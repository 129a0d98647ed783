package archiver

import (
	"fmt"
	"strings"
)

// Action selects what a run does.
type Action string

const (
	// ActionSync downloads every favourite not yet in the archive, day by day.
	ActionSync Action = "sync"
	// ActionList prints the episodes recorded on one date.
	ActionList Action = "list"
	// ActionDelete removes the non-favourite episodes of one date from the service.
	ActionDelete Action = "delete"
	// ActionDownload downloads the favourite episodes of one date.
	ActionDownload Action = "download"
)

// Actions lists every valid action in help-text order.
var Actions = []Action{ActionSync, ActionList, ActionDelete, ActionDownload}

// ParseAction converts a command-line value to an Action.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Actions {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q (use sync, list, delete or download)", s)
}

// NeedsDate reports whether the action operates on a single date.
func (a Action) NeedsDate() bool {
	return a != ActionSync
}

func (a Action) String() string { return string(a) }
