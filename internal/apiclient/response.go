package apiclient

// Response is the body shape served by /api/health and /api/hello.
// Every field is optional; nil means the server left it out.
type Response struct {
	Message   *string `json:"message,omitempty"`
	Game      *string `json:"game,omitempty"`
	Timestamp *string `json:"timestamp,omitempty"`
	Status    *string `json:"status,omitempty"`
	Service   *string `json:"service,omitempty"`
}

type Field struct {
	Name  string
	Value string
}

// Fields lists the present fields in display order.
func (r Response) Fields() []Field {
	ordered := []struct {
		name string
		v    *string
	}{
		{"message", r.Message},
		{"game", r.Game},
		{"status", r.Status},
		{"service", r.Service},
		{"timestamp", r.Timestamp},
	}

	out := make([]Field, 0, len(ordered))
	for _, f := range ordered {
		if f.v == nil {
			continue
		}
		out = append(out, Field{Name: f.name, Value: *f.v})
	}
	return out
}

func Str(s string) *string { return &s }
