package state

import "github.com/DoyleJ11/gops-apitest/internal/apiclient"

// Flags is the three-slot projection a view works from. At most one slot is set.
type Flags struct {
	Loading  bool
	Error    *string
	Response *apiclient.Response
}

func FlagsOf(s State) Flags {
	switch st := s.(type) {
	case Loading:
		return Flags{Loading: true}
	case Failed:
		msg := st.Message
		return Flags{Error: &msg}
	case Succeeded:
		resp := st.Response
		return Flags{Response: &resp}
	default:
		return Flags{}
	}
}

func IsTerminal(s State) bool {
	switch s.(type) {
	case Failed, Succeeded:
		return true
	default:
		return false
	}
}
