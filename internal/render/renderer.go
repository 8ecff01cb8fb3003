package render

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keshon/termcord/internal/terminal"
)

const (
	// DefaultCharDelay is the pause between typed characters of a field.
	DefaultCharDelay = 35 * time.Millisecond
	// DefaultFieldDelay is the pause after a field has been fully typed.
	DefaultFieldDelay = 300 * time.Millisecond

	// FieldValueLimit is Discord's cap on an embed field value.
	FieldValueLimit = 1024

	cursor     = "▌"
	blankValue = "\u200b"

	colorHack = 0x00ff66
)

// Options tune one render.
type Options struct {
	Animate bool
	// Delay is the pause between line appends and between progress phrases.
	Delay time.Duration
}

// Renderer displays command results through a Messenger.
type Renderer struct {
	m          Messenger
	log        *zap.Logger
	charDelay  time.Duration
	fieldDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration)
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTyping overrides the per-character and per-field delays of the staged
// animation.
func WithTyping(char, field time.Duration) Option {
	return func(r *Renderer) {
		r.charDelay = char
		r.fieldDelay = field
	}
}

// WithSleep replaces the pause function. Tests use it to run without delays.
func WithSleep(sleep func(ctx context.Context, d time.Duration)) Option {
	return func(r *Renderer) { r.sleep = sleep }
}

func New(m Messenger, log *zap.Logger, opts ...Option) *Renderer {
	r := &Renderer{
		m:          m,
		log:        log,
		charDelay:  DefaultCharDelay,
		fieldDelay: DefaultFieldDelay,
		sleep:      sleepCtx,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Render displays res below prompt in channelID. Failures of individual
// edits are logged and skipped; if rendering itself panics the result is sent
// once more as plain text. The returned error is only non-nil when nothing
// could be delivered at all.
func (r *Renderer) Render(ctx context.Context, channelID, prompt string, res terminal.Result, opts Options) (err error) {
	job := &renderJob{
		id:        uuid.NewString(),
		r:         r,
		channelID: channelID,
		prompt:    prompt,
		opts:      opts,
	}
	job.log = r.log.With(zap.String("render", job.id), zap.String("channel", channelID))

	defer func() {
		if p := recover(); p != nil {
			job.log.Error("render panicked", zap.Any("panic", p), zap.Stack("stack"))
			err = job.lastResort(ctx, res)
		}
	}()

	switch v := res.(type) {
	case terminal.Embed:
		return job.embed(ctx, v)
	case *terminal.Embed:
		return job.embed(ctx, *v)
	case terminal.Staged:
		return job.staged(ctx, v)
	case *terminal.Staged:
		return job.staged(ctx, *v)
	default:
		return job.lines(ctx, escaped(terminal.Normalize(res)))
	}
}

// renderJob is the state of one in-flight render. It is owned by a single
// goroutine and dropped once the final edit completes.
type renderJob struct {
	id        string
	r         *Renderer
	log       *zap.Logger
	channelID string
	prompt    string
	opts      Options
	messageID string
}

func (j *renderJob) send(ctx context.Context, f Frame) error {
	id, err := j.r.m.Send(ctx, j.channelID, f)
	if err != nil {
		return err
	}
	j.messageID = id
	return nil
}

func (j *renderJob) edit(ctx context.Context, op string, f Frame) bool {
	return Attempt(j.log, op, func() error {
		return j.r.m.Edit(ctx, j.channelID, j.messageID, f)
	})
}

func (j *renderJob) pause(ctx context.Context, d time.Duration) {
	j.r.sleep(ctx, d)
}

// fallback sends content as a fresh message after the placeholder failed.
func (j *renderJob) fallback(ctx context.Context, f Frame, cause error) error {
	j.log.Warn("placeholder send failed, falling back to plain send", zap.Error(cause))
	if _, err := j.r.m.Send(ctx, j.channelID, f); err != nil {
		j.log.Error("fallback send failed", zap.Error(err))
		return fmt.Errorf("deliver output: %w", err)
	}
	return nil
}

func (j *renderJob) lastResort(ctx context.Context, res terminal.Result) error {
	text := fmt.Sprintf("%v", res)
	if lines := terminal.Normalize(res); lines != nil {
		text = terminal.Screen(j.prompt, escaped(lines))
	}
	if _, err := j.r.m.Send(ctx, j.channelID, Frame{Content: terminal.Truncate(text, terminal.MessageLimit)}); err != nil {
		j.log.Error("last resort send failed", zap.Error(err))
		return fmt.Errorf("deliver output: %w", err)
	}
	return nil
}

func (j *renderJob) embed(ctx context.Context, e terminal.Embed) error {
	if err := j.send(ctx, Frame{Content: terminal.Screen(j.prompt, nil)}); err != nil {
		j.log.Warn("prompt header send failed", zap.Error(err))
	}
	if _, err := j.r.m.Send(ctx, j.channelID, Frame{Embed: e.Embed}); err != nil {
		j.log.Error("embed send failed", zap.Error(err))
		return fmt.Errorf("deliver embed: %w", err)
	}
	return nil
}

func escaped(lines []string) []string {
	for i, l := range lines {
		lines[i] = terminal.EscapeBackticks(l)
	}
	return lines
}

func (j *renderJob) lines(ctx context.Context, lines []string) error {
	full := Frame{Content: terminal.Screen(j.prompt, lines)}

	if err := j.send(ctx, Frame{Content: terminal.Screen(j.prompt, nil)}); err != nil {
		return j.fallback(ctx, full, err)
	}

	if !j.opts.Animate {
		j.edit(ctx, "edit output", full)
		return nil
	}

	for i := range lines {
		j.pause(ctx, j.opts.Delay)
		j.edit(ctx, "edit output line", Frame{Content: terminal.Screen(j.prompt, lines[:i+1])})
	}
	return nil
}
