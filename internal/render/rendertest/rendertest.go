// Package rendertest provides Messenger doubles for tests.
package rendertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/keshon/termcord/internal/render"
)

// Op is one recorded Messenger call.
type Op struct {
	Kind      string // "send", "edit" or "rename"
	ChannelID string
	MessageID string
	Frame     render.Frame
	GuildID   string
	UserID    string
	Nick      string
}

// Recorder is an in-memory Messenger that records every call in order.
type Recorder struct {
	mu     sync.Mutex
	ops    []Op
	nextID int

	// SendErr, EditErr and RenameErr, when set, decide whether the n-th call
	// of that kind (starting at 1) fails.
	SendErr   func(n int) error
	EditErr   func(n int) error
	RenameErr error

	sends, edits int
}

func (r *Recorder) Send(_ context.Context, channelID string, f render.Frame) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sends++
	if r.SendErr != nil {
		if err := r.SendErr(r.sends); err != nil {
			return "", err
		}
	}
	r.nextID++
	id := fmt.Sprintf("m%d", r.nextID)
	r.ops = append(r.ops, Op{Kind: "send", ChannelID: channelID, MessageID: id, Frame: f})
	return id, nil
}

func (r *Recorder) Edit(_ context.Context, channelID, messageID string, f render.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edits++
	if r.EditErr != nil {
		if err := r.EditErr(r.edits); err != nil {
			return err
		}
	}
	r.ops = append(r.ops, Op{Kind: "edit", ChannelID: channelID, MessageID: messageID, Frame: f})
	return nil
}

func (r *Recorder) Rename(_ context.Context, guildID, userID, nick string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.RenameErr != nil {
		return r.RenameErr
	}
	r.ops = append(r.ops, Op{Kind: "rename", GuildID: guildID, UserID: userID, Nick: nick})
	return nil
}

// Ops returns a copy of the recorded calls.
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Op(nil), r.ops...)
}

// Kind returns the recorded calls of one kind.
func (r *Recorder) Kind(kind string) []Op {
	var out []Op
	for _, op := range r.Ops() {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// Last returns the most recent recorded call, or a zero Op.
func (r *Recorder) Last() Op {
	ops := r.Ops()
	if len(ops) == 0 {
		return Op{}
	}
	return ops[len(ops)-1]
}

// MockMessenger is a testify mock of render.Messenger.
type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) Send(ctx context.Context, channelID string, f render.Frame) (string, error) {
	args := m.Called(ctx, channelID, f)
	return args.String(0), args.Error(1)
}

func (m *MockMessenger) Edit(ctx context.Context, channelID, messageID string, f render.Frame) error {
	args := m.Called(ctx, channelID, messageID, f)
	return args.Error(0)
}

func (m *MockMessenger) Rename(ctx context.Context, guildID, userID, nick string) error {
	args := m.Called(ctx, guildID, userID, nick)
	return args.Error(0)
}

var (
	_ render.Messenger = (*Recorder)(nil)
	_ render.Messenger = (*MockMessenger)(nil)
)
