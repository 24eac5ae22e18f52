package session

import "encoding/json"

// Phase is the lifecycle stage of the hosted game session.
type Phase int

const (
	Waiting Phase = iota
	Starting
	InGame
	Ending
)

var phaseNames = map[Phase]string{
	Waiting:  "waiting",
	Starting: "starting",
	InGame:   "ingame",
	Ending:   "ending",
}

var phaseFromName = map[string]Phase{
	"waiting":  Waiting,
	"starting": Starting,
	"ingame":   InGame,
	"ending":   Ending,
}

func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return "unknown"
}

// ParsePhase returns the phase for a name produced by String.
func ParsePhase(name string) (Phase, bool) {
	p, ok := phaseFromName[name]
	return p, ok
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Phase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if v, ok := phaseFromName[s]; ok {
		*p = v
	}
	return nil
}
