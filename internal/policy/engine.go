package policy

import "strings"

// Decide evaluates a request against the settings. It is pure: the same
// request and settings always produce the same decision.
//
// Matching is plain string work on the trimmed command text: allow entries
// match as prefixes, deny entries as substrings, case-sensitive. There is no
// shell parsing, so "ls; rm -rf x" is allowlisted by "ls". This is a
// convenience gate for a trusted operator, not a sandbox.
func Decide(req Request, s Settings) Decision {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Decision{Action: ActionDeny, Reason: ReasonMalformed}
	}

	allowed := matchesAllow(text, s.AllowList)
	denied := matchesDeny(text, s.DenyList)

	switch s.Mode {
	case ModeMessageOnly:
		return Decision{Action: ActionDeny, Reason: ReasonMessageMode}

	case ModeAuto:
		switch {
		case denied:
			return Decision{Action: ActionAllow, Reason: ReasonDenylisted, SuggestedDefault: true}
		case allowed:
			return Decision{Action: ActionAllow, Reason: ReasonAllowlisted, SuggestedDefault: true}
		default:
			return Decision{Action: ActionAllow, Reason: ReasonUnlisted, SuggestedDefault: true}
		}

	case ModeAllowlist:
		switch {
		case allowed:
			return Decision{Action: ActionAllow, Reason: ReasonAllowlisted, SuggestedDefault: true}
		case denied:
			return Decision{Action: ActionConfirm, Reason: ReasonDenylisted, SuggestedDefault: false}
		default:
			return Decision{Action: ActionConfirm, Reason: ReasonUnlisted, SuggestedDefault: true}
		}

	case ModeDenylist:
		switch {
		case denied:
			return Decision{Action: ActionConfirm, Reason: ReasonDenylisted, SuggestedDefault: false}
		case allowed:
			return Decision{Action: ActionAllow, Reason: ReasonAllowlisted, SuggestedDefault: true}
		default:
			return Decision{Action: ActionAllow, Reason: ReasonUnlisted, SuggestedDefault: true}
		}
	}

	// Unknown mode: Store never produces one, but a hand-built Settings might.
	return Decision{Action: ActionDeny, Reason: ReasonMalformed}
}

func matchesAllow(text string, entries []string) bool {
	for _, e := range entries {
		if e != "" && strings.HasPrefix(text, e) {
			return true
		}
	}
	return false
}

func matchesDeny(text string, entries []string) bool {
	for _, e := range entries {
		if e != "" && strings.Contains(text, e) {
			return true
		}
	}
	return false
}
