package theme

import (
	"strings"
	"testing"

	"git.lost.host/meutraa/eotf/internal/game"
)

func TestRenderNote(t *testing.T) {
	th := DefaultTheme{}
	if s := th.RenderNote(game.LaneRed, false); !strings.Contains(s, "38;2;236;30;0m") || !strings.Contains(s, noteSym) {
		t.Error("red note", s)
	}
	if s := th.RenderNote(game.LaneRed, true); !strings.Contains(s, starSym) {
		t.Error("star note", s)
	}
	if s := th.RenderNote(game.LaneOpen, false); !strings.Contains(s, openSym) {
		t.Error("open note", s)
	}
	if s := th.RenderHitField(game.LaneGreen, false); s != barSym {
		t.Error("bar", s)
	}
}

func TestRenderJudgment(t *testing.T) {
	th := DefaultTheme{}
	for k := game.KindHit; k <= game.KindOverstrum; k++ {
		if th.RenderJudgment(k) == "" {
			t.Error("no label for", k)
		}
	}
	if th.RenderJudgment(game.JudgmentKind(42)) != "" {
		t.Error("label for an unknown kind")
	}
}
