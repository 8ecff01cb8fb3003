// Package presence rotates the bot's status line through a fixed set of
// phrases.
package presence

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/keshon/termcord/pkg/jobmgr"
)

const jobName = "presence"

// DefaultInterval is the time between two status updates.
const DefaultInterval = 30 * time.Second

//go:embed phrases.yaml
var phrasesYAML []byte

var defaultPhrases = mustPhrases(phrasesYAML)

func mustPhrases(raw []byte) []string {
	var doc struct {
		Phrases []string `yaml:"phrases"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		panic(fmt.Sprintf("presence: bad embedded phrases: %v", err))
	}
	return doc.Phrases
}

// Client is the part of the gateway session that sets the status.
type Client interface {
	UpdateGameStatus(idle int, name string) error
}

// Rotator owns the presence job.
type Rotator struct {
	client   Client
	jobs     *jobmgr.Manager
	log      *zap.Logger
	interval time.Duration
	phrases  []string
	guilds   func() int
	replacer *strings.Replacer

	mu   sync.Mutex
	next int
}

type Option func(*Rotator)

func WithInterval(d time.Duration) Option { return func(r *Rotator) { r.interval = d } }

func WithPhrases(p ...string) Option { return func(r *Rotator) { r.phrases = p } }

// WithGuildCount supplies the live server count for the {guilds} placeholder.
func WithGuildCount(fn func() int) Option { return func(r *Rotator) { r.guilds = fn } }

func WithJobs(m *jobmgr.Manager) Option { return func(r *Rotator) { r.jobs = m } }

func WithLogger(log *zap.Logger) Option { return func(r *Rotator) { r.log = log } }

// New returns a stopped rotator for the bot called name at version, whose
// command prefix is prefix.
func New(client Client, name, version, prefix string, opts ...Option) *Rotator {
	r := &Rotator{
		client:   client,
		log:      zap.NewNop(),
		interval: DefaultInterval,
		phrases:  defaultPhrases,
		guilds:   func() int { return 0 },
	}
	for _, o := range opts {
		o(r)
	}
	if r.jobs == nil {
		r.jobs = jobmgr.NewManager(nil)
	}
	r.replacer = strings.NewReplacer("{prefix}", prefix, "{name}", name, "{version}", version)
	return r
}

// Start begins the rotation; the first phrase is applied immediately.
func (r *Rotator) Start(ctx context.Context) error {
	if len(r.phrases) == 0 {
		return fmt.Errorf("presence: no phrases")
	}
	return r.jobs.StartAsync(ctx, jobName, r.run)
}

// Stop ends the rotation and waits for it to exit. Stopping a stopped rotator
// is a no-op.
func (r *Rotator) Stop() {
	_ = r.jobs.Stop(jobName)
}

func (r *Rotator) IsRunning() bool {
	return r.jobs.Running(jobName)
}

func (r *Rotator) run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *Rotator) tick() {
	status := r.Next()
	if err := r.client.UpdateGameStatus(0, status); err != nil {
		r.log.Warn("presence update failed", zap.String("status", status), zap.Error(err))
	}
}

// Next returns the next phrase in rotation with placeholders filled in.
func (r *Rotator) Next() string {
	r.mu.Lock()
	p := r.phrases[r.next%len(r.phrases)]
	r.next++
	r.mu.Unlock()

	p = r.replacer.Replace(p)
	return strings.ReplaceAll(p, "{guilds}", strconv.Itoa(r.guilds()))
}
