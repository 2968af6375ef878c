// Package prefs holds the user's chain display preferences behind a small
// injectable key-value store, so persistence works the same against memory,
// a local file, or Redis.
package prefs

import "encoding/json"

// StorageKey is the single namespaced key all preferences persist under.
const StorageKey = "chainview:preferences"

// Preferences are the validated chain display settings.
type Preferences struct {
	ShowGreeks    bool `json:"showGreeks"`
	ShowOIBars    bool `json:"showOIBars"`
	StrikeRange   int  `json:"strikeRange"`
	ShowOISignals bool `json:"showOISignals"`
}

// Defaults returns the preference defaults.
func Defaults() Preferences {
	return Preferences{
		ShowGreeks:    false,
		ShowOIBars:    true,
		StrikeRange:   10,
		ShowOISignals: true,
	}
}

// Patch is a partial preference update; nil fields are left unchanged.
type Patch struct {
	ShowGreeks    *bool `json:"showGreeks,omitempty"`
	ShowOIBars    *bool `json:"showOIBars,omitempty"`
	StrikeRange   *int  `json:"strikeRange,omitempty"`
	ShowOISignals *bool `json:"showOISignals,omitempty"`
}

// merge applies stored JSON onto defaults field by field. A field that is
// missing or of the wrong type falls back to its own default; the rest of
// the object is kept. Unknown keys are ignored.
func merge(defaults Preferences, raw []byte) Preferences {
	out := defaults

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return out
	}

	if v, ok := fields["showGreeks"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			out.ShowGreeks = b
		}
	}
	if v, ok := fields["showOIBars"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			out.ShowOIBars = b
		}
	}
	if v, ok := fields["strikeRange"]; ok {
		var n int
		if err := json.Unmarshal(v, &n); err == nil && n >= 0 {
			out.StrikeRange = n
		}
	}
	if v, ok := fields["showOISignals"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			out.ShowOISignals = b
		}
	}

	return out
}

func (p Preferences) apply(patch Patch) Preferences {
	if patch.ShowGreeks != nil {
		p.ShowGreeks = *patch.ShowGreeks
	}
	if patch.ShowOIBars != nil {
		p.ShowOIBars = *patch.ShowOIBars
	}
	if patch.StrikeRange != nil && *patch.StrikeRange >= 0 {
		p.StrikeRange = *patch.StrikeRange
	}
	if patch.ShowOISignals != nil {
		p.ShowOISignals = *patch.ShowOISignals
	}
	return p
}
