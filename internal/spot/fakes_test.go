package spot

import (
	"context"
	"errors"
	"time"
)

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

type published struct {
	topic   string
	payload string
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, topic string, payload []byte) error {
	p.msgs = append(p.msgs, published{topic: topic, payload: string(payload)})
	return p.err
}

func (p *fakePublisher) onTopic(topic string) []string {
	var out []string
	for _, m := range p.msgs {
		if m.topic == topic {
			out = append(out, m.payload)
		}
	}
	return out
}

// fakeTransport comes up after failUntil failed reconnect attempts.
type fakeTransport struct {
	fakePublisher
	connected bool
	failUntil int
	attempts  int
}

func (t *fakeTransport) Connected() bool { return t.connected }

func (t *fakeTransport) Reconnect(context.Context) error {
	t.attempts++
	if t.attempts <= t.failUntil {
		return errors.New("connection refused")
	}
	t.connected = true
	return nil
}

type fakeSensors struct {
	readings []Reading
	reads    int
	distErr  error
	noiseErr error
}

func (s *fakeSensors) next() Reading {
	if len(s.readings) == 0 {
		return Reading{}
	}
	i := s.reads
	if i >= len(s.readings) {
		i = len(s.readings) - 1
	}
	return s.readings[i]
}

func (s *fakeSensors) ReadDistanceCm(context.Context) (int, error) {
	r := s.next()
	if s.distErr != nil {
		return 0, s.distErr
	}
	return r.DistanceCm, nil
}

func (s *fakeSensors) ReadNoiseLevel(context.Context) (int, error) {
	r := s.next()
	s.reads++
	if s.noiseErr != nil {
		return 0, s.noiseErr
	}
	return r.NoiseRaw, nil
}

type fakeIndicator struct {
	levels []IndicatorLevel
	err    error
}

func (i *fakeIndicator) Set(_ context.Context, l IndicatorLevel) error {
	i.levels = append(i.levels, l)
	return i.err
}
