package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.lost.host/meutraa/eotf/internal/game"
	"git.lost.host/meutraa/eotf/internal/logger"
)

// DefaultParser picks a decoder from the first bytes of the source
type DefaultParser struct {
	Midi MidiParser
	JSON JSONParser
}

var midiMagic = []byte("MThd")

const sniffLength = 512

func (p *DefaultParser) Parse(name string, r io.Reader) ([]*game.Chart, error) {
	br := bufio.NewReaderSize(r, sniffLength)
	head, err := br.Peek(sniffLength)
	if nil != err && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, &game.ParseError{Source: name, Err: err}
	}
	text := bytes.TrimLeft(head, " \t\r\n\ufeff")

	var charts []*game.Chart
	switch {
	case bytes.HasPrefix(head, midiMagic):
		charts, err = p.Midi.Parse(name, br)
	case len(text) > 0 && text[0] == '{':
		charts, err = p.JSON.Parse(name, br)
	default:
		return nil, &game.UnsupportedFormatError{Source: name, Format: strings.TrimPrefix(filepath.Ext(name), ".")}
	}
	if nil != err {
		return nil, err
	}

	// Easiest first, Supaeasy has the highest id
	sort.Slice(charts, func(i, j int) bool {
		return charts[i].Difficulty.ID > charts[j].Difficulty.ID
	})
	for _, c := range charts {
		logger.Debug("decoded chart",
			logger.String("source", name),
			logger.String("difficulty", c.Difficulty.Name),
			logger.Int("notes", len(c.Notes)),
		)
	}
	return charts, nil
}

// Load decodes the chart file at path
func (p *DefaultParser) Load(path string) ([]*game.Chart, error) {
	f, err := os.Open(path)
	if nil != err {
		return nil, fmt.Errorf("unable to open chart: %w", err)
	}
	defer f.Close()
	return p.Parse(path, f)
}

func chartName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
