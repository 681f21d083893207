package source

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-neural/common"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// decoded is the result of one prefetch task.
type decoded struct {
	frame Frame
	err   error
}

// imageSequence decodes one file per frame. Decoding runs on a worker pool that keeps up to twice the
// worker count of frames in flight ahead of the reader.
type imageSequence struct {
	mu      sync.Mutex
	cfg     sourceConfig
	paths   []string
	next    int
	taskID  int
	pending []chan decoded
	pool    worker.DynamicWorkerPool
	closed  bool
}

var _ FrameSource = &imageSequence{}

// NewImageSequence opens every image file in dir, in lexical order, as a frame stream.
//
// Parameters:
//   - dir: the directory to read
//   - opts: source options
//
// Returns:
//   - FrameSource: the sequence
//   - error: a read error, or ErrUnsupportedFormat when dir holds no images
func NewImageSequence(dir string, opts ...SourceBuilderOption) (FrameSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("image sequence: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("image sequence %q has no images: %w", dir, ErrUnsupportedFormat)
	}
	sort.Strings(paths)
	return newImageFiles(paths, opts...)
}

func newImageFiles(paths []string, opts ...SourceBuilderOption) (FrameSource, error) {
	cfg := newSourceConfig(opts)
	return &imageSequence{
		cfg:   cfg,
		paths: paths,
		pool:  worker.NewDynamicWorkerPool(cfg.decodeWorkers, 2*cfg.decodeWorkers, time.Second),
	}, nil
}

// prefetch queues decodes until the look-ahead window is full or the sequence ends. Callers hold mu.
func (s *imageSequence) prefetch() {
	for len(s.pending) < 2*s.cfg.decodeWorkers {
		if s.next >= len(s.paths) {
			if !s.cfg.loop {
				return
			}
			s.next = 0
		}
		path := s.paths[s.next]
		s.next++

		done := make(chan decoded, 1)
		s.pending = append(s.pending, done)
		maxSize := s.cfg.maxSize
		s.pool.SubmitTask(worker.Task{
			ID:      s.taskID,
			Payload: path,
			Do: func() (any, error) {
				frame, err := decodeFile(path, maxSize)
				done <- decoded{frame: frame, err: err}
				return nil, err
			},
		})
		s.taskID++
	}
}

func decodeFile(path string, maxSize common.Dimensions) (Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return Frame{}, fmt.Errorf("image sequence: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return Frame{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return FromImage(img, maxSize), nil
}

func (s *imageSequence) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Frame{}, ErrClosed
	}
	s.prefetch()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return Frame{}, io.EOF
	}
	done := s.pending[0]
	s.pending = s.pending[1:]
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case d := <-done:
		return d.frame, d.err
	}
}

func (s *imageSequence) FrameRate() float64 {
	return s.cfg.rate(0)
}

func (s *imageSequence) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.pending = nil
	s.pool.Stop()
	return nil
}
