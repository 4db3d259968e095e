package render

import (
	"context"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/core"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/logging"
)

// Path is the presentation strategy chosen for an answer.
type Path int

const (
	PathStream Path = iota
	PathFade
)

func (p Path) String() string {
	if p == PathFade {
		return "fade"
	}
	return "stream"
}

// Classify picks the presentation path for raw. Exactly one path applies.
func Classify(raw string) Path {
	if strings.Contains(raw, core.ResultCardMarker) {
		return PathFade
	}
	return PathStream
}

// Renderer animates answers into targets. It holds no conversation state and
// is safe for concurrent use.
type Renderer struct {
	charDelay  time.Duration
	blockDelay time.Duration
	fadeDelay  time.Duration
	md         goldmark.Markdown
	logger     *logging.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCharDelay sets the pause between streamed runes.
func WithCharDelay(d time.Duration) Option {
	return func(r *Renderer) { r.charDelay = d }
}

// WithBlockDelay sets the pause after each whole block.
func WithBlockDelay(d time.Duration) Option {
	return func(r *Renderer) { r.blockDelay = d }
}

// WithFadeDelay sets how long a card stays dimmed before it is fully shown.
func WithFadeDelay(d time.Duration) Option {
	return func(r *Renderer) { r.fadeDelay = d }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// New creates a renderer with the default pacing.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		charDelay:  core.DefaultCharDelay,
		blockDelay: core.DefaultBlockDelay,
		fadeDelay:  core.DefaultFadeDelay,
		md:         newMarkdown(),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Segments exposes the stream-path segmentation of raw.
func (r *Renderer) Segments(raw string) []Segment {
	return segment(r.md, raw)
}

// Render presents raw into t and returns once the presentation is complete,
// or with ctx.Err() when ctx is cancelled mid-animation.
func (r *Renderer) Render(ctx context.Context, t Target, raw string) error {
	path := Classify(raw)
	r.logger.Debug("rendering answer", "path", path.String(), "bytes", len(raw))
	if path == PathFade {
		return r.fade(ctx, t, raw)
	}
	return r.stream(ctx, t, raw)
}

// fadeMidpoint is the dimmed opacity a card is shown at during the fade.
const fadeMidpoint = 0.5

func (r *Renderer) fade(ctx context.Context, t Target, raw string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.SetOpacity(0)
	t.Clear()
	t.AppendBlock(Block{Kind: BlockCard, Source: raw})
	t.SetOpacity(fadeMidpoint)
	t.ScrollToBottom()
	if err := pause(ctx, r.fadeDelay); err != nil {
		t.SetOpacity(1)
		return err
	}
	t.SetOpacity(1)
	return nil
}

func (r *Renderer) stream(ctx context.Context, t Target, raw string) error {
	t.Clear()
	t.SetOpacity(1)

	for i, seg := range r.Segments(raw) {
		if i > 0 {
			t.AppendText("\n\n")
		}
		switch seg.Kind {
		case SegmentText:
			for _, ch := range seg.Text {
				t.AppendText(string(ch))
				t.ScrollToBottom()
				if err := pause(ctx, r.charDelay); err != nil {
					return err
				}
			}
		default:
			t.AppendBlock(Block{Kind: BlockMarkdown, Source: seg.Text})
			t.ScrollToBottom()
			if err := pause(ctx, r.blockDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
