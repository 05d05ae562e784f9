package state

import (
	"errors"
	"testing"

	"github.com/DoyleJ11/gops-apitest/internal/apiclient"
)

func TestApply(t *testing.T) {
	resp := apiclient.Response{Status: apiclient.Str("ok")}

	cases := []struct {
		name    string
		setup   State
		evt     Event
		want    State
		wantErr error
	}{
		{
			name:  "start from idle",
			setup: Idle{},
			evt:   Event{Type: EvtStarted},
			want:  Loading{},
		},
		{
			name:  "start clears prior error",
			setup: Failed{Message: ErrorMessage},
			evt:   Event{Type: EvtStarted},
			want:  Loading{},
		},
		{
			name:  "start clears prior response",
			setup: Succeeded{Response: resp},
			evt:   Event{Type: EvtStarted},
			want:  Loading{},
		},
		{
			name:  "resolve",
			setup: Loading{},
			evt:   Event{Type: EvtResolved, Response: resp},
			want:  Succeeded{Response: resp},
		},
		{
			name:  "reject uses the fixed message",
			setup: Loading{},
			evt:   Event{Type: EvtRejected},
			want:  Failed{Message: "Error occured"},
		},
		{
			name:  "late resolve overwrites an earlier outcome",
			setup: Failed{Message: ErrorMessage},
			evt:   Event{Type: EvtResolved, Response: resp},
			want:  Succeeded{Response: resp},
		},
		{
			name:    "unknown event keeps state",
			setup:   Loading{},
			evt:     Event{Type: "Cancelled"},
			want:    Loading{},
			wantErr: ErrUnsupportedEvent,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Apply(tc.setup, tc.evt)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Fatalf("Apply = %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestFlagsOf_AtMostOneSet(t *testing.T) {
	states := []State{nil, Idle{}, Loading{}, Failed{Message: ErrorMessage}, Succeeded{}}
	for _, s := range states {
		f := FlagsOf(s)
		n := 0
		if f.Loading {
			n++
		}
		if f.Error != nil {
			n++
		}
		if f.Response != nil {
			n++
		}
		if n > 1 {
			t.Fatalf("FlagsOf(%#v) sets %d slots", s, n)
		}
	}

	if f := FlagsOf(Failed{Message: ErrorMessage}); f.Error == nil || *f.Error != "Error occured" {
		t.Fatalf("error slot = %v", f.Error)
	}
	if f := FlagsOf(Idle{}); f.Loading || f.Error != nil || f.Response != nil {
		t.Fatalf("idle should set nothing, got %+v", f)
	}
}

func TestIsTerminal(t *testing.T) {
	cases := map[State]bool{
		Idle{}:      false,
		Loading{}:   false,
		Failed{}:    true,
		Succeeded{}: true,
	}
	for s, want := range cases {
		if got := IsTerminal(s); got != want {
			t.Fatalf("IsTerminal(%#v) = %v, want %v", s, got, want)
		}
	}
}
