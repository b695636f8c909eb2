package theme

import (
	"fmt"

	"git.lost.host/meutraa/eotf/internal/game"
)

type Color struct {
	R, G, B uint8
}

type DefaultTheme struct {
}

func (t *DefaultTheme) RenderNote(lane game.Lane, special bool) string {
	if lane == game.LaneOpen {
		return paint(getLaneColor(lane), openSym)
	}
	if special {
		return paint(starColor, starSym)
	}
	return paint(getLaneColor(lane), noteSym)
}

func (t *DefaultTheme) RenderSustain(lane game.Lane, held bool) string {
	if held {
		return paint(getLaneColor(lane), heldSym)
	}
	return paint(getLaneColor(lane), sustainSym)
}

func (t *DefaultTheme) RenderHitField(lane game.Lane, held bool) string {
	if held {
		return paint(getLaneColor(lane), heldBarSym)
	}
	return barSym
}

func (t *DefaultTheme) RenderJudgment(kind game.JudgmentKind) string {
	if int(kind) < len(judgmentNames) {
		return judgmentNames[kind]
	}
	return ""
}

func paint(c Color, sym string) string {
	return fmt.Sprintf("\033[38;2;%v;%v;%vm%v\033[0m", c.R, c.G, c.B, sym)
}

const (
	noteSym    = "⬤"
	starSym    = "★"
	openSym    = "━"
	sustainSym = "┃"
	heldSym    = "█"
	barSym     = "-"
	heldBarSym = "▀"
)

var (
	starColor  = Color{173, 236, 236}
	laneColors = map[game.Lane]Color{
		game.LaneGreen:  {0, 236, 128},
		game.LaneRed:    {236, 30, 0},
		game.LaneYellow: {236, 195, 0},
		game.LaneBlue:   {0, 118, 236},
		game.LaneOrange: {236, 128, 0},
		game.LaneOpen:   {106, 0, 236},
	}
	judgmentNames = [...]string{
		game.KindHit:          "       \033[1;32mHit\033[0m",
		game.KindMissed:       "      \033[1;31mMiss\033[0m",
		game.KindHeldComplete: "      \033[1;36mHeld\033[0m",
		game.KindHeldBroken:   "    \033[1;33mBroken\033[0m",
		game.KindOverstrum:    " \033[1;35mOverstrum\033[0m",
	}
)

func getLaneColor(l game.Lane) Color {
	col, ok := laneColors[l]
	if !ok {
		return Color{255, 255, 255}
	}
	return col
}
