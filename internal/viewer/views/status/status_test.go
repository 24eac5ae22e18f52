package status

import (
	"strings"
	"testing"

	"github.com/ludos/server/internal/session"
)

func TestView(t *testing.T) {
	tests := []struct {
		name  string
		model Model
		want  []string
	}{
		{
			name:  "connecting",
			model: Model{},
			want:  []string{"Connecting...", "waiting", "spectating"},
		},
		{
			name: "in game",
			model: Model{
				Connected: true,
				Name:      "alice",
				Phase:     session.InGame,
				Playing:   true,
				Position:  session.Point{X: 1, Y: 64, Z: -2.5},
				ActionBar: "You cannot leave the map!",
			},
			want: []string{"alice", "ingame", "playing", "1.0 64.0 -2.5", "You cannot leave the map!"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.model.Width = 120
			v := tt.model.View()
			for _, w := range tt.want {
				if !strings.Contains(v, w) {
					t.Errorf("view missing %q:\n%s", w, v)
				}
			}
		})
	}
}
