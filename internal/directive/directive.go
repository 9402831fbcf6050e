// Package directive pulls <run> command directives out of agent text.
//
// Syntax:
//
//	<run>ls -la</run>
//	<run cwd="/tmp" timeout="5000" interactive="true">vim notes.txt</run>
//
// Unknown attributes are ignored, as is a timeout that is not a positive
// integer number of milliseconds. A marker without its closing tag is left in
// the text untouched.
package directive

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Cyclone1070/termpilot/internal/policy"
)

const (
	openPrefix = "<run"
	closeTag   = "</run>"
)

var attrPattern = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_-]*)\s*=\s*"([^"]*)"`)

// Directive is one command embedded in agent text.
type Directive struct {
	Command     string
	WorkingDir  string
	Timeout     time.Duration
	Interactive bool
	// Raw is the directive exactly as it appeared.
	Raw string
}

// Request converts the directive into a policy request.
func (d Directive) Request() policy.Request {
	return policy.Request{
		Text:        d.Command,
		WorkingDir:  d.WorkingDir,
		Timeout:     d.Timeout,
		Interactive: d.Interactive,
	}
}

// Extract returns the directives in text order and the display text, where
// each well-formed directive is replaced by "$ <command>".
func Extract(text string) ([]Directive, string) {
	var (
		out     []Directive
		display strings.Builder
		pos     int
	)

	for pos < len(text) {
		idx := indexOpen(text, pos)
		if idx < 0 {
			break
		}

		tagEnd := strings.IndexByte(text[idx:], '>')
		if tagEnd < 0 {
			break
		}
		tagEnd += idx
		bodyStart := tagEnd + 1

		closeIdx := strings.Index(text[bodyStart:], closeTag)
		if closeIdx < 0 {
			break
		}
		closeIdx += bodyStart

		// Another opener before our close means this one was never closed.
		if inner := indexOpen(text[:closeIdx], bodyStart); inner >= 0 {
			display.WriteString(text[pos:inner])
			pos = inner
			continue
		}

		end := closeIdx + len(closeTag)
		d := parse(text[idx+len(openPrefix):tagEnd], text[bodyStart:closeIdx])
		d.Raw = text[idx:end]
		out = append(out, d)

		display.WriteString(text[pos:idx])
		display.WriteString("$ ")
		display.WriteString(d.Command)
		pos = end
	}

	display.WriteString(text[pos:])
	return out, display.String()
}

// indexOpen finds the next "<run" that is followed by '>' or whitespace.
func indexOpen(text string, from int) int {
	for from < len(text) {
		i := strings.Index(text[from:], openPrefix)
		if i < 0 {
			return -1
		}
		i += from
		next := i + len(openPrefix)
		if next < len(text) {
			switch text[next] {
			case '>', ' ', '\t', '\n', '\r':
				return i
			}
		}
		from = next
	}
	return -1
}

func parse(attrs, body string) Directive {
	d := Directive{Command: strings.TrimSpace(body)}
	for _, m := range attrPattern.FindAllStringSubmatch(attrs, -1) {
		key, val := strings.ToLower(m[1]), m[2]
		switch key {
		case "cwd", "dir", "workdir":
			d.WorkingDir = strings.TrimSpace(val)
		case "timeout":
			if ms, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil && ms > 0 {
				d.Timeout = time.Duration(ms) * time.Millisecond
			}
		case "interactive":
			d.Interactive, _ = strconv.ParseBool(strings.TrimSpace(val))
		}
	}
	return d
}
