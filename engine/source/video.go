package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/cogentcore/reisen"
)

// ErrNoVideoStream is returned when a media file has no video stream.
var ErrNoVideoStream = errors.New("media has no video stream")

// video decodes the first video stream of a media file. Audio packets are dropped.
type video struct {
	mu     sync.Mutex
	cfg    sourceConfig
	media  *reisen.Media
	stream *reisen.VideoStream
	fps    float64
	closed bool
}

var _ FrameSource = &video{}

// NewVideo opens path with reisen and starts decoding its first video stream.
//
// Parameters:
//   - path: the media file
//   - opts: source options; WithLoop is ignored
//
// Returns:
//   - FrameSource: the video source
//   - error: an open error or ErrNoVideoStream
func NewVideo(path string, opts ...SourceBuilderOption) (FrameSource, error) {
	media, err := reisen.NewMedia(path)
	if err != nil {
		return nil, fmt.Errorf("open video %q: %w", path, err)
	}
	streams := media.VideoStreams()
	if len(streams) == 0 {
		media.Close()
		return nil, fmt.Errorf("open video %q: %w", path, ErrNoVideoStream)
	}
	if err := media.OpenDecode(); err != nil {
		media.Close()
		return nil, fmt.Errorf("open video %q: %w", path, err)
	}
	stream := streams[0]
	if err := stream.Open(); err != nil {
		media.CloseDecode()
		media.Close()
		return nil, fmt.Errorf("open video stream: %w", err)
	}

	var fps float64
	if num, den := stream.FrameRate(); den > 0 {
		fps = float64(num) / float64(den)
	}
	return &video{cfg: newSourceConfig(opts), media: media, stream: stream, fps: fps}, nil
}

func (v *video) Next(ctx context.Context) (Frame, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return Frame{}, ErrClosed
	}
	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}
		packet, ok, err := v.media.ReadPacket()
		if err != nil {
			return Frame{}, fmt.Errorf("read packet: %w", err)
		}
		if !ok {
			return Frame{}, io.EOF
		}
		if packet.Type() != reisen.StreamVideo || packet.StreamIndex() != v.stream.Index() {
			continue
		}
		vf, got, err := v.stream.ReadVideoFrame()
		if err != nil {
			return Frame{}, fmt.Errorf("decode video frame: %w", err)
		}
		if !got || vf == nil {
			continue
		}
		return FromImage(vf.Image(), v.cfg.maxSize), nil
	}
}

func (v *video) FrameRate() float64 {
	return v.cfg.rate(v.fps)
}

func (v *video) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true
	err := v.stream.Close()
	v.media.CloseDecode()
	v.media.Close()
	return err
}
