package domain

import "fmt"

// Page identifies the screen a session is currently on.
type Page int

const (
	PageLogin Page = iota
	PageFieldManager
	PageHQDashboard
)

func (p Page) String() string {
	switch p {
	case PageLogin:
		return "login"
	case PageFieldManager:
		return "field_manager"
	case PageHQDashboard:
		return "hq_dashboard"
	default:
		return fmt.Sprintf("page(%d)", int(p))
	}
}

// Valid reports whether p is one of the defined pages.
func (p Page) Valid() bool {
	return p == PageLogin || p == PageFieldManager || p == PageHQDashboard
}

// Action is a navigation request issued from a page.
type Action string

const (
	ActionSiteLogin      Action = "site_login"
	ActionAdminDashboard Action = "admin_dashboard"
	ActionBack           Action = "back"
	ActionLogout         Action = "logout"
)

// Known reports whether a is one of the defined navigation actions.
func (a Action) Known() bool {
	switch a {
	case ActionSiteLogin, ActionAdminDashboard, ActionBack, ActionLogout:
		return true
	}
	return false
}

var transitions = map[Page]map[Action]Page{
	PageLogin: {
		ActionSiteLogin:      PageFieldManager,
		ActionAdminDashboard: PageHQDashboard,
	},
	PageFieldManager: {
		ActionBack: PageLogin,
	},
	PageHQDashboard: {
		ActionLogout: PageLogin,
	},
}

// Next returns the page reached by applying a on from. Undefined pairs return
// ErrInvalidTransition together with from, so callers can never observe an
// undefined page.
func Next(from Page, a Action) (Page, error) {
	to, ok := transitions[from][a]
	if !ok {
		return from, fmt.Errorf("%w: %q from %s", ErrInvalidTransition, a, from)
	}
	return to, nil
}
