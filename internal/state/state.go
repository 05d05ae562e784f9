package state

import (
	"errors"

	"github.com/DoyleJ11/gops-apitest/internal/apiclient"
)

var ErrUnsupportedEvent = errors.New("unsupported event")

// ErrorMessage is the only failure text a view ever shows.
const ErrorMessage = "Error occured"

type Kind string

const (
	KindIdle    Kind = "idle"
	KindLoading Kind = "loading"
	KindError   Kind = "error"
	KindSuccess Kind = "success"
)

// State is exactly one of Idle, Loading, Failed or Succeeded.
type State interface {
	Kind() Kind
	isState()
}

type Idle struct{}

type Loading struct{}

type Failed struct {
	Message string
}

type Succeeded struct {
	Response apiclient.Response
}

func (Idle) Kind() Kind      { return KindIdle }
func (Loading) Kind() Kind   { return KindLoading }
func (Failed) Kind() Kind    { return KindError }
func (Succeeded) Kind() Kind { return KindSuccess }

func (Idle) isState()      {}
func (Loading) isState()   {}
func (Failed) isState()    {}
func (Succeeded) isState() {}

type EventType string

const (
	EvtStarted  EventType = "Started"
	EvtResolved EventType = "Resolved"
	EvtRejected EventType = "Rejected"
)

/*
	EvtStarted  -> Loading (prior error / response dropped)
	EvtResolved -> Succeeded(response)
	EvtRejected -> Failed("Error occured")

Any state accepts any event: overlapping requests can resolve in any order.
*/

type Event struct {
	Type     EventType
	Response apiclient.Response
}

func Apply(s State, evt Event) (State, error) {
	switch evt.Type {
	case EvtStarted:
		return Loading{}, nil
	case EvtResolved:
		return Succeeded{Response: evt.Response}, nil
	case EvtRejected:
		return Failed{Message: ErrorMessage}, nil
	default:
		if s == nil {
			s = Idle{}
		}
		return s, ErrUnsupportedEvent
	}
}
