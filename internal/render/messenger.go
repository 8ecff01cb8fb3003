// Package render turns command results into a sequence of message states:
// a prompt header followed by progressively revealed output.
package render

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Frame is one displayed state of a message.
type Frame struct {
	Content string
	Embed   *discordgo.MessageEmbed
}

// Messenger is the outbound side of the chat platform.
type Messenger interface {
	// Send posts a new message and returns its id.
	Send(ctx context.Context, channelID string, f Frame) (string, error)
	// Edit replaces the content of an existing message.
	Edit(ctx context.Context, channelID, messageID string, f Frame) error
	// Rename sets a guild member's nickname.
	Rename(ctx context.Context, guildID, userID, nick string) error
}

// Attempt runs fn once and logs a failure instead of returning it. It reports
// whether fn succeeded.
func Attempt(log *zap.Logger, op string, fn func() error) bool {
	if err := fn(); err != nil {
		log.Warn(op+" failed", zap.Error(err))
		return false
	}
	return true
}
