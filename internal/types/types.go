package types

import (
	"github.com/DoyleJ11/gops-apitest/internal/apiclient"
	"github.com/DoyleJ11/gops-apitest/internal/runner"
	"github.com/DoyleJ11/gops-apitest/internal/state"
)

const (
	MsgStateSnapshot = "StateSnapshot"
	MsgError         = "Error"

	MsgFetchHealth = "FetchHealth"
	MsgFetchHello  = "FetchHello"
)

type ClientMessage struct {
	Type string `json:"type"` // "FetchHealth" | "FetchHello"
}

type ServerMessage struct {
	Type     string     `json:"type"` // "StateSnapshot" | "Error"
	Version  int        `json:"version,omitempty"`
	Seq      uint64     `json:"seq,omitempty"`
	InFlight int        `json:"in_flight,omitempty"`
	State    *StateView `json:"state,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// StateView flattens the union for JSON. Only the slot matching Kind is set.
type StateView struct {
	Kind     state.Kind          `json:"kind"`
	Loading  bool                `json:"loading"`
	Error    *string             `json:"error,omitempty"`
	Response *apiclient.Response `json:"response,omitempty"`
}

func EncodeState(s state.State) *StateView {
	if s == nil {
		s = state.Idle{}
	}
	f := state.FlagsOf(s)
	return &StateView{
		Kind:     s.Kind(),
		Loading:  f.Loading,
		Error:    f.Error,
		Response: f.Response,
	}
}

func SnapshotMessage(snap runner.Snapshot) ServerMessage {
	return ServerMessage{
		Type:     MsgStateSnapshot,
		Version:  snap.Version,
		Seq:      snap.Seq,
		InFlight: snap.InFlight,
		State:    EncodeState(snap.State),
	}
}

func ViewMessage(v runner.View) ServerMessage {
	return SnapshotMessage(runner.Snapshot{Version: v.Version, Seq: v.Seq, InFlight: v.InFlight, State: v.State})
}

func ErrorMessage(msg string) ServerMessage {
	return ServerMessage{Type: MsgError, Error: msg}
}

// ToEndpoint maps a client command to the endpoint it fetches.
func ToEndpoint(m ClientMessage) (apiclient.Endpoint, bool) {
	switch m.Type {
	case MsgFetchHealth:
		return apiclient.EndpointHealth, true
	case MsgFetchHello:
		return apiclient.EndpointHello, true
	default:
		return "", false
	}
}
