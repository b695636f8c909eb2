package theme

import "git.lost.host/meutraa/eotf/internal/game"

type Theme interface {
	RenderNote(lane game.Lane, special bool) string
	RenderSustain(lane game.Lane, held bool) string
	RenderHitField(lane game.Lane, held bool) string
	RenderJudgment(kind game.JudgmentKind) string
}
