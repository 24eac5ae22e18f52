package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/ludos/server/internal/session"
)

// Verdict is what the transport must do with an action.
type Verdict int

const (
	Allow Verdict = iota
	Deny
	Redirect
)

var verdictNames = map[Verdict]string{
	Allow:    "allow",
	Deny:     "deny",
	Redirect: "redirect",
}

func (v Verdict) String() string {
	if s, ok := verdictNames[v]; ok {
		return s
	}
	return "unknown"
}

func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Verdict) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for verdict, name := range verdictNames {
		if name == s {
			*v = verdict
			return nil
		}
	}
	return fmt.Errorf("unknown verdict %q", s)
}

// Decision is the gateway's answer to one action.
//
// Location is the redirect target for Redirect. On a Deny it is a teleport
// to apply in addition to cancelling (damage from the void).
type Decision struct {
	Verdict           Verdict        `json:"verdict"`
	Message           string         `json:"message,omitempty"`
	Location          *session.Point `json:"location,omitempty"`
	SuppressBroadcast bool           `json:"suppressBroadcast,omitempty"`
}

// Cancelled reports whether the default action must not happen.
func (d Decision) Cancelled() bool {
	return d.Verdict == Deny
}

func allow() Decision {
	return Decision{Verdict: Allow}
}

func deny(message string) Decision {
	return Decision{Verdict: Deny, Message: message}
}

func redirect(p session.Point) Decision {
	return Decision{Verdict: Redirect, Location: &p}
}
