package heist

import "strings"

// CustomIDPrefix namespaces every component of the solo heist flow:
// crime:solo:{action}[:payload]
const CustomIDPrefix = "crime:solo:"

const (
	ActionMode        = "mode"
	ActionRisk        = "risk"
	ActionItemSelect  = "itemselect"
	// ActionItem toggles one item by key. The planner renders a select menu
	// instead; the route stays for messages that still carry per-item buttons.
	ActionItem        = "item"
	ActionStart       = "start"
	ActionSimonKey    = "simon_key"
	ActionSimonReveal = "simon_reveal"
	ActionSimonShow   = "simon_show"
	ActionResolve     = "resolve"
	ActionReset       = "reset"
)

// CustomID builds a component id, payload is optional
func CustomID(action string, payload ...string) string {
	id := CustomIDPrefix + action
	if len(payload) > 0 && payload[0] != "" {
		id += ":" + payload[0]
	}
	return id
}

// ParseCustomID splits a component id into its action and payload
func ParseCustomID(id string) (action, payload string, ok bool) {
	rest, found := strings.CutPrefix(id, CustomIDPrefix)
	if !found || rest == "" {
		return "", "", false
	}
	action, payload, _ = strings.Cut(rest, ":")
	return action, payload, action != ""
}
