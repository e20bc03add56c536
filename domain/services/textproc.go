package services

import (
	"regexp"
	"strings"
)

const backspace = "\x08"

// Cursor and screen control codes emitted by ProCurve, Comware and RouterOS terminals.
// Anything outside this list is left in the output.
var ansiCodes = []*regexp.Regexp{
	regexp.MustCompile("\x1b7"),
	regexp.MustCompile(`\x1b\[r`),
	regexp.MustCompile("\x1b8"),
	regexp.MustCompile(`\x1b\[\d+A`),
	regexp.MustCompile(`\x1b\[\d+B`),
	regexp.MustCompile(`\x1b\[\d+;\d+H`),
	regexp.MustCompile(`\x1b\[\?25h`),
	regexp.MustCompile(`\x1b\[2K`),
	regexp.MustCompile(`\x1b\[\d+;\d+r`),
}

var (
	ansiNextLine = regexp.MustCompile("\x1bE")
	lineEndings  = regexp.MustCompile(`\r\r\n|\r\n|\n\r`)
	blankLines   = regexp.MustCompile(`\n{2,}`)
)

// StripANSI removes the known cursor control codes; ESC E becomes a newline
func StripANSI(text string) string {
	for _, re := range ansiCodes {
		text = re.ReplaceAllString(text, "")
	}
	return ansiNextLine.ReplaceAllString(text, "\n")
}

// NormalizeLineEndings converts \r\r\n, \r\n and \n\r to \n
func NormalizeLineEndings(text string) string {
	return lineEndings.ReplaceAllString(text, "\n")
}

// StripStrayCR drops carriage returns left over after line ending normalization
func StripStrayCR(text string) string {
	return strings.ReplaceAll(text, "\r", "")
}

// CollapseBlankLines squeezes runs of empty lines into a single line break
func CollapseBlankLines(text string) string {
	return blankLines.ReplaceAllString(text, "\n")
}

// NormalizeCommand returns cmd with exactly one trailing terminator
func NormalizeCommand(cmd, terminator string) string {
	return strings.TrimRight(cmd, "\r\n") + terminator
}

// StripCommand removes the echoed command from the head of output.
// A backspace means the device wrapped the echo, so the whole first line goes.
func StripCommand(normalized, output string) string {
	if strings.Contains(output, backspace) {
		output = strings.ReplaceAll(output, backspace, "")
		lines := strings.Split(output, "\n")
		return strings.Join(lines[1:], "\n")
	}
	runes := []rune(output)
	n := len([]rune(normalized))
	if n >= len(runes) {
		return ""
	}
	return string(runes[n:])
}

// StripPrompt removes the last line when it is a prompt
func StripPrompt(output, basePrompt string, prompt Pattern) string {
	idx := strings.LastIndex(output, "\n")
	last := output[idx+1:]
	if !isPromptLine(last, basePrompt, prompt) {
		return output
	}
	if idx < 0 {
		return ""
	}
	return output[:idx]
}

func isPromptLine(line, basePrompt string, prompt Pattern) bool {
	if basePrompt != "" && strings.Contains(line, basePrompt) {
		return true
	}
	return !prompt.Empty() && prompt.Match(line) >= 0
}

// LastLine returns the last non-empty line of text, trimmed
func LastLine(text string) string {
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
