package events

import "testing"

type countingEmitter struct {
	seen []string
}

func (c *countingEmitter) Emit(evt Event) {
	c.seen = append(c.seen, evt.EventType())
}

type namedEvent string

func (e namedEvent) EventType() string { return string(e) }

func TestFanout(t *testing.T) {
	first := &countingEmitter{}
	second := &countingEmitter{}
	fanout := Fanout{first, nil, second}

	fanout.Emit(namedEvent("social.post.created"))
	fanout.Emit(namedEvent("social.vote.cast"))

	want := []string{"social.post.created", "social.vote.cast"}
	for _, emitter := range []*countingEmitter{first, second} {
		if len(emitter.seen) != len(want) {
			t.Fatalf("expected %d events, got %v", len(want), emitter.seen)
		}
		for i, typ := range want {
			if emitter.seen[i] != typ {
				t.Fatalf("expected %q at %d, got %v", typ, i, emitter.seen)
			}
		}
	}
}
