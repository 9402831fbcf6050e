package policy

import (
	"strings"
	"time"
)

// Mode governs the default confirmation behavior of the engine.
type Mode string

const (
	ModeAuto        Mode = "auto"
	ModeAllowlist   Mode = "allowlist"
	ModeDenylist    Mode = "denylist"
	ModeMessageOnly Mode = "message"
)

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAuto, ModeAllowlist, ModeDenylist, ModeMessageOnly:
		return m, nil
	default:
		return "", &PolicyError{Op: "parse mode", Cause: ErrInvalidMode, Value: s}
	}
}

// Action is what the caller should do with a command.
type Action string

const (
	ActionAllow   Action = "ALLOW"
	ActionConfirm Action = "CONFIRM"
	ActionDeny    Action = "DENY"
)

// Reason explains which rule produced a decision.
type Reason string

const (
	ReasonAllowlisted Reason = "ALLOWLISTED"
	ReasonDenylisted  Reason = "DENYLISTED"
	ReasonUnlisted    Reason = "UNLISTED"
	ReasonMessageMode Reason = "MESSAGE_MODE"
	ReasonMalformed   Reason = "MALFORMED"
)

// Request is a single command proposed for execution.
// A zero Timeout means no timeout; an empty WorkingDir means the current directory.
type Request struct {
	Text        string
	WorkingDir  string
	Timeout     time.Duration
	Interactive bool
}

// WithText returns a copy of the request carrying different command text.
func (r Request) WithText(text string) Request {
	r.Text = text
	return r
}

// Decision is the engine's verdict for one request.
type Decision struct {
	Action           Action
	Reason           Reason
	SuggestedDefault bool
}

// Warn reports whether an allowed command still hit the deny list (auto mode).
func (d Decision) Warn() bool {
	return d.Action == ActionAllow && d.Reason == ReasonDenylisted
}

func (d Decision) String() string {
	return string(d.Action) + "/" + string(d.Reason)
}

// Settings is the mode plus the two match lists.
type Settings struct {
	Mode      Mode
	AllowList []string
	DenyList  []string
}

// Clone returns a deep copy so callers can't mutate shared lists.
func (s Settings) Clone() Settings {
	return Settings{
		Mode:      s.Mode,
		AllowList: append([]string(nil), s.AllowList...),
		DenyList:  append([]string(nil), s.DenyList...),
	}
}
