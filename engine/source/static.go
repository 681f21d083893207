package source

import (
	"context"
	"io"
	"sync"
)

// static replays frames held in memory.
type static struct {
	mu     sync.Mutex
	cfg    sourceConfig
	frames []Frame
	next   int
	closed bool
}

var _ FrameSource = &static{}

// NewStatic returns a source over frames. The frames are not copied.
func NewStatic(frames []Frame, opts ...SourceBuilderOption) FrameSource {
	return &static{cfg: newSourceConfig(opts), frames: frames}
}

func (s *static) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Frame{}, ErrClosed
	}
	if s.next >= len(s.frames) {
		if !s.cfg.loop || len(s.frames) == 0 {
			return Frame{}, io.EOF
		}
		s.next = 0
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

func (s *static) FrameRate() float64 {
	return s.cfg.rate(0)
}

func (s *static) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
