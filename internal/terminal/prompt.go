package terminal

import (
	"strings"
	"unicode/utf8"
)

const (
	// MessageLimit is Discord's content length cap.
	MessageLimit = 2000

	zeroWidthSpace = "\u200b"
	fenceOpen      = "```ansi\n"
	fenceClose     = "\n```"
)

// EscapeBackticks makes text safe inside a code fence: every backtick is
// followed by a zero width space, so no run of three can close the fence.
func EscapeBackticks(text string) string {
	return strings.ReplaceAll(text, "`", "`"+zeroWidthSpace)
}

// Prompt builds the literal console prompt echoing the user's input.
func Prompt(user, cwd, text string) string {
	if user == "" {
		user = "user"
	}
	if cwd == "" {
		cwd = "~"
	}
	return EscapeBackticks(user) + "@terminal:" + EscapeBackticks(cwd) + "$ " + EscapeBackticks(text)
}

// Screen renders the prompt followed by output lines inside an ansi code
// fence. When everything does not fit in one message the prompt stays on top,
// an ellipsis line marks the gap and the newest lines fill the rest.
func Screen(prompt string, lines []string) string {
	budget := MessageLimit - len(fenceOpen) - len(fenceClose)
	body := prompt
	if len(lines) > 0 {
		body += "\n" + strings.Join(lines, "\n")
	}
	if len(body) <= budget {
		return fenceOpen + body + fenceClose
	}

	const gap = "\n…"
	if len(prompt)+len(gap) >= budget {
		return fenceOpen + clipTail(prompt, budget-len(gap)) + gap + fenceClose
	}

	room := budget - len(prompt) - len(gap)
	kept := make([]string, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		need := len(lines[i]) + 1
		if need > room {
			if len(kept) == 0 && room > 1 {
				kept = append(kept, clipHead(lines[i], room-1))
			}
			break
		}
		kept = append(kept, lines[i])
		room -= need
	}
	var b strings.Builder
	b.WriteString(fenceOpen)
	b.WriteString(prompt)
	b.WriteString(gap)
	for i := len(kept) - 1; i >= 0; i-- {
		b.WriteByte('\n')
		b.WriteString(kept[i])
	}
	b.WriteString(fenceClose)
	return b.String()
}

// Fence wraps body in an ansi code fence, clipping it to fit one message.
func Fence(body string) string {
	budget := MessageLimit - len(fenceOpen) - len(fenceClose)
	if len(body) > budget {
		const marker = "…\n"
		body = marker + clipHead(body, budget-len(marker))
	}
	return fenceOpen + body + fenceClose
}

// clipHead keeps at most n trailing bytes of s. The cut never splits a rune
// or an ANSI escape sequence.
func clipHead(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[safeCut(s, len(s)-n):]
}

// clipTail keeps at most n leading bytes of s, on a rune boundary.
func clipTail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// safeCut moves i forward to the first position that starts neither inside a
// multi-byte rune nor inside an SGR sequence.
func safeCut(s string, i int) int {
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	if esc := strings.LastIndexByte(s[:i], '\x1b'); esc >= 0 && !strings.ContainsRune(s[esc:i], 'm') {
		if end := strings.IndexByte(s[i:], 'm'); end >= 0 {
			i += end + 1
		} else {
			i = len(s)
		}
	}
	return i
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
