package parser

import (
	"io"

	"git.lost.host/meutraa/eotf/internal/game"
)

// Parser decodes every difficulty found in a chart source
type Parser interface {
	Parse(name string, r io.Reader) ([]*game.Chart, error)
}
