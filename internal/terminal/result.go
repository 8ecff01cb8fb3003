// Package terminal holds the value types exchanged between text commands and
// the output renderer, plus the helpers that make output look like a console.
package terminal

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/mo"
)

// Result is what a text command produces. It is a closed set: PlainText,
// LineSequence, Embed and Staged. A nil Result renders as a single empty line.
type Result interface {
	isResult()
}

// PlainText is a string output; newlines split it into lines.
type PlainText struct {
	Text string
}

// LineSequence is an ordered list of output lines.
type LineSequence struct {
	Lines []string
}

// Embed is fully formed output shown as-is below the prompt.
type Embed struct {
	Embed *discordgo.MessageEmbed
}

// Staged drives the progress-then-reveal animation. Exactly one of Error and
// Record is meaningful: a non-empty Error ends the animation after Progress.
type Staged struct {
	Progress []string
	Error    string
	Record   *Record
}

// Record is the payload revealed field by field.
type Record struct {
	Title  string
	Fields []Field
	// Rename asks the renderer to apply Target's nickname once all fields
	// are typed and to report the outcome in a status field.
	Rename bool
	Target *Target

	MutualServers mo.Option[int]
	Activity      mo.Option[string]
}

// Field is a labelled value typed out character by character.
type Field struct {
	Label  string
	Value  string
	Inline bool
}

// Target identifies the guild member a record refers to.
type Target struct {
	GuildID string
	UserID  string
	Nick    string
}

func (PlainText) isResult()    {}
func (LineSequence) isResult() {}
func (Embed) isResult()        {}
func (Staged) isResult()       {}

// Plain wraps text as a Result.
func Plain(text string) Result {
	return PlainText{Text: text}
}

// Lines wraps lines as a Result.
func Lines(lines ...string) Result {
	return LineSequence{Lines: lines}
}

// NotFound is the output for unknown commands.
func NotFound(name string) Result {
	return PlainText{Text: name + ": command not found"}
}

// Normalize turns text shaped results into display lines. Strings are split on
// newlines, sequences are flattened one level (elements holding newlines become
// several lines), and nil becomes a single empty line. Embed and Staged
// results have no line form and return nil.
func Normalize(r Result) []string {
	switch v := r.(type) {
	case nil:
		return []string{""}
	case PlainText:
		return splitLines(v.Text)
	case *PlainText:
		return splitLines(v.Text)
	case LineSequence:
		return flatten(v.Lines)
	case *LineSequence:
		return flatten(v.Lines)
	default:
		return nil
	}
}

func splitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}

func flatten(lines []string) []string {
	if len(lines) == 0 {
		return []string{""}
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, splitLines(l)...)
	}
	return out
}
