package main

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.lost.host/meutraa/eotf/internal/clock"
	"git.lost.host/meutraa/eotf/internal/config"
	"git.lost.host/meutraa/eotf/internal/game"
	"git.lost.host/meutraa/eotf/internal/input"
	"git.lost.host/meutraa/eotf/internal/logger"
	"git.lost.host/meutraa/eotf/internal/parser"
	"git.lost.host/meutraa/eotf/internal/render"
	"git.lost.host/meutraa/eotf/internal/score"
	"git.lost.host/meutraa/eotf/internal/session"
	"git.lost.host/meutraa/eotf/internal/theme"
)

// Time to keep drawing after the last judgment
const outro = 2 * time.Second

type source interface {
	input.Source
	Close() error
}

type Program struct {
	Config   config.Config
	Parser   *parser.DefaultParser
	Renderer *render.DefaultRenderer
	Theme    theme.Theme

	audioFile, guitarFile, chartFile string

	charts  []*game.Chart
	chart   *game.Chart
	longest time.Duration // Longest sustain, notes that started this far back may still show

	store   *score.Store
	best    int64
	track   *clock.BeepTrack
	source  source
	session *session.Session

	columns, rows int
	lanes         [game.FretLanes]int
	hitRow        int
	middle        int
	sideCol       int

	doneAt time.Duration
	done   bool
}

func isAudio(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ogg", ".mp3", ".wav":
		return true
	}
	return false
}

func (p *Program) walk() error {
	var fallback string
	if err := filepath.Walk(p.Config.Directory, func(path string, info os.FileInfo, err error) error {
		if nil != err {
			return err
		}
		if info.IsDir() {
			return nil
		}
		name := strings.ToLower(info.Name())
		base := strings.TrimSuffix(name, filepath.Ext(name))
		switch {
		case isAudio(name) && base == "song":
			p.audioFile = path
		case isAudio(name) && base == "guitar":
			p.guitarFile = path
		case isAudio(name):
			fallback = path
		case name == "notes.mid", name == "notes.json":
			p.chartFile = path
		case p.chartFile == "" && (filepath.Ext(name) == ".mid" || filepath.Ext(name) == ".json"):
			p.chartFile = path
		}
		return nil
	}); nil != err {
		return fmt.Errorf("unable to walk song directory: %w", err)
	}
	if p.audioFile == "" {
		p.audioFile = fallback
	}
	if p.chartFile == "" {
		return errors.New("unable to find notes.mid or a .json chart in given directory")
	}
	return nil
}

func (p *Program) selectChart() error {
	want, _ := game.DifficultyByName(p.Config.Difficulty)
	names := []string{}
	for _, c := range p.charts {
		if c.Difficulty.ID == want.ID {
			p.chart = c
			break
		}
		names = append(names, c.Difficulty.Name)
	}
	if p.chart == nil {
		return fmt.Errorf("%v has no %v chart, try one of %v", p.chartFile, want.Name, names)
	}
	for i := range p.chart.Notes {
		if d := p.chart.Notes[i].Duration; d > p.longest {
			p.longest = d
		}
	}
	return nil
}

func (p *Program) openSource() error {
	if p.Config.Device != "" {
		s, err := input.OpenEvdev(p.Config.Device, input.DefaultEvdevKeys)
		if nil != err {
			return fmt.Errorf("unable to open %v: %w", p.Config.Device, err)
		}
		p.source = s
		return nil
	}
	s, err := input.OpenTerminal(p.Config.KeyMap(), p.Config.Latch)
	if nil != err {
		return err
	}
	p.source = s
	return nil
}

func (p *Program) Init() error {
	// Ensure our Default implementations are used as interfaces
	p.Parser = &parser.DefaultParser{}
	p.Renderer = &render.DefaultRenderer{}
	p.Theme = &theme.DefaultTheme{}

	if err := p.walk(); nil != err {
		return err
	}

	var err error
	p.charts, err = p.Parser.Load(p.chartFile)
	if nil != err {
		return err
	}
	if err := p.selectChart(); nil != err {
		return err
	}

	p.store, err = score.OpenStore(p.Config.Database)
	if nil != err {
		return err
	}
	p.best, err = p.store.Best(p.chart)
	if nil != err {
		logger.Warn("unable to read best score", logger.Err(err))
	}
	return nil
}

func (p *Program) options() session.Options {
	return session.Options{
		Window: p.Config.Window(p.chart.BPM()),
		Rules:  p.Config.Rules(),
		LeadIn: p.Config.LeadIn,
		Offset: p.Config.Offset,
		Strict: p.Config.Strict,
	}
}

// Open prepares the audio, the input and the session for Run
func (p *Program) Open() error {
	opts := p.options()
	if p.audioFile != "" {
		p.track = &clock.BeepTrack{
			Song:       p.audioFile,
			Guitar:     p.guitarFile,
			Buffer:     p.Config.Buffer,
			MissVolume: p.Config.MissMute,
		}
		opts.Track = p.track
	} else {
		logger.Warn("no audio in song directory", logger.String("directory", p.Config.Directory))
	}

	if err := p.openSource(); nil != err {
		return err
	}
	opts.Source = p.source

	var err error
	p.session, err = session.New(p.chart, opts)
	if nil != err {
		return err
	}
	if p.track != nil {
		p.session.Subscribe(p.track.OnJudgment)
	}
	p.session.Subscribe(p.decorate)
	return nil
}

// Resize lays the lanes out around the middle of the terminal
func (p *Program) Resize() {
	p.columns, p.rows = p.Renderer.Size()
	mc := p.columns >> 1
	p.middle = p.rows >> 1
	spacing := int(p.Config.Spacing)
	for i := range p.lanes {
		p.lanes[i] = mc + (i-game.FretLanes/2)*spacing
	}
	p.hitRow = p.rows - int(p.Config.BarRow)
	p.sideCol = p.lanes[0] - 36
	if p.sideCol < 2 {
		p.sideCol = 2
	}
}

// decorate flashes each judgment beside the highway
func (p *Program) decorate(j game.Judgment) {
	col := p.lanes[game.FretLanes-1] + 4
	p.Renderer.AddDecoration(col, p.middle, p.Theme.RenderJudgment(j.Kind), 120)
	if j.Kind != game.KindMissed || j.NoteID == game.NoNote {
		return
	}
	lanes := []int{}
	if n := p.chart.Notes[j.NoteID]; n.Lane == game.LaneOpen {
		lanes = append(lanes, p.lanes[:]...)
	} else {
		lanes = append(lanes, p.lanes[n.Lane])
	}
	for _, c := range lanes {
		p.Renderer.AddDecoration(c-1, p.hitRow+1, "\033[1;31m╰", 240)
		p.Renderer.AddDecoration(c+1, p.hitRow+1, "\033[1;31m╯", 240)
	}
}

func (p *Program) Run() error {
	if err := p.Renderer.Init(); nil != err {
		return err
	}
	p.Resize()

	p.session.Start()
	p.Renderer.RenderLoop(p.Config.FramePeriod, func(now time.Time) bool {
		f := p.session.Tick()
		if f.Quit {
			return false
		}
		if f.Done && !p.done {
			p.done, p.doneAt = true, f.Clock.Time
		}
		if p.done && f.Clock.Time-p.doneAt > outro {
			return false
		}
		p.Render(f)
		return true
	})

	if err := p.Renderer.Deinit(); nil != err {
		logger.Warn("unable to restore terminal", logger.Err(err))
	}

	result := p.session.Result()
	if result.Score.Judged() > 0 {
		if err := p.store.Save(p.chart, result.History()); nil != err {
			return err
		}
	}
	p.Summary(os.Stdout, result)
	return nil
}

func (p *Program) Close() {
	if p.source != nil {
		if err := p.source.Close(); nil != err {
			logger.Warn("unable to close input", logger.Err(err))
		}
	}
	if p.track != nil {
		p.track.Close()
	}
	if p.store != nil {
		if err := p.store.Close(); nil != err {
			logger.Warn("unable to close score database", logger.Err(err))
		}
	}
}

// row on screen of a song time, hitRow at now
func (p *Program) row(t, now time.Duration) int {
	return p.hitRow - int((t-now)/p.Config.ScrollSpeed)
}

func (p *Program) visible(row int) bool {
	return row > 1 && row <= p.rows
}

func (p *Program) noteLanes(n *game.Note) []int {
	if n.Lane == game.LaneOpen {
		return p.lanes[:]
	}
	return p.lanes[n.Lane : n.Lane+1]
}

func (p *Program) Render(f session.Frame) {
	now := f.Clock.Time
	held := p.session.Held()

	// Clear the highway
	for row := 2; row <= p.rows; row++ {
		for _, col := range p.lanes {
			p.Renderer.Fill(row, col, " ")
		}
	}

	// Render the hit bar
	for i, col := range p.lanes {
		p.Renderer.Fill(p.hitRow, col, p.Theme.RenderHitField(game.Lane(i), held.Has(game.Lane(i))))
	}

	// Render notes, sustains first so that heads draw over them
	behind := p.Config.ScrollSpeed * time.Duration(p.Config.BarRow)
	ahead := p.Config.ScrollSpeed * time.Duration(p.hitRow)
	notes := p.session.Chart().NotesInWindow(now-behind-p.longest, now+ahead)
	for i := range notes {
		n := &notes[i]
		if !n.Sustained() {
			continue
		}
		state := p.session.State(n.ID)
		if state == game.HeldComplete {
			continue
		}
		from := n.Time
		if state == game.HeldActive && from < now {
			from = now
		}
		top := p.row(n.End(), now)
		for row := p.row(from, now) - 1; row >= top; row-- {
			if !p.visible(row) {
				continue
			}
			for _, col := range p.noteLanes(n) {
				p.Renderer.Fill(row, col, p.Theme.RenderSustain(n.Lane, state == game.HeldActive))
			}
		}
	}
	for i := range notes {
		n := &notes[i]
		if p.session.State(n.ID) != game.Pending && p.session.State(n.ID) != game.Missed {
			continue
		}
		row := p.row(n.Time, now)
		if !p.visible(row) {
			continue
		}
		for _, col := range p.noteLanes(n) {
			p.Renderer.Fill(row, col, p.Theme.RenderNote(n.Lane, n.Special))
		}
	}

	p.renderProgress(now)
	p.renderStats(f)
}

func (p *Program) renderProgress(now time.Duration) {
	length := p.chart.Length()
	if p.track != nil && p.track.Length() > length {
		length = p.track.Length()
	}
	if length <= 0 || now < 0 {
		return
	}
	width := int(float64(p.columns) * math.Min(1, float64(now)/float64(length)))
	p.Renderer.FillColor(1, 1, color.RGBA{R: 255, G: 255, B: 255, A: 255}, strings.Repeat("▀", width))
}

func ms(d float64) float64 {
	return d / float64(time.Millisecond)
}

func (p *Program) renderStats(f session.Frame) {
	s := f.Score
	star := "      "
	if s.StarActive {
		star = "active"
	}
	lines := []string{
		fmt.Sprintf("      Score:  %8v", s.TotalScore),
		fmt.Sprintf("       Best:  %8v", p.best),
		fmt.Sprintf("      Combo:  %8v", s.CurrentCombo),
		fmt.Sprintf(" Multiplier:  %7vx", s.Multiplier),
		fmt.Sprintf("  Max Combo:  %8v", s.MaxCombo),
		fmt.Sprintf("     Health:  %7.0f%%", 100*s.Health),
		fmt.Sprintf(" Star Power:  %7.0f%% %v", 100*s.StarMeter, star),
		"",
		fmt.Sprintf("       Mean:  %6.2f ms", ms(float64(s.MeanOffset))),
		fmt.Sprintf("      Stdev:  %6.2f ms", ms(float64(s.StdevOffset))),
		"",
		fmt.Sprintf("       Hits:  %8v", s.Hits),
		fmt.Sprintf("       Held:  %8v", s.Completed),
		fmt.Sprintf("     Broken:  %8v", s.Broken),
		fmt.Sprintf("     Missed:  %8v", s.Missed),
		fmt.Sprintf(" Overstrums:  %8v", s.Overstrums),
		"",
		fmt.Sprintf("      Notes:  %8v", p.chart.NoteCount),
		fmt.Sprintf("      Holds:  %8v", p.chart.HoldCount),
		fmt.Sprintf("      Stars:  %8v", p.chart.StarCount),
	}
	for i, l := range lines {
		p.Renderer.Fill(10+i, p.sideCol, l)
	}
	row := 10 + len(lines) + 1
	if s.IsFailed {
		p.Renderer.Fill(row, p.sideCol, "     \033[1;31mFailed\033[0m")
	}
	if f.Clock.Paused {
		p.Renderer.Fill(row+1, p.sideCol, "     \033[1;33mPaused\033[0m")
	} else {
		p.Renderer.Fill(row+1, p.sideCol, "           ")
	}
	if s.ClockDegraded {
		p.Renderer.Fill(row+2, p.sideCol, "   \033[33mNo audio clock\033[0m")
	}
}

// Replay judges the last stored session of the chart again and prints it
func (p *Program) Replay(w io.Writer) error {
	histories, err := p.store.Load(p.chart)
	if nil != err {
		return err
	}
	if len(histories) == 0 {
		return fmt.Errorf("no stored sessions of %v (%v)", p.chart.Name, p.chart.Difficulty.Name)
	}
	h := histories[len(histories)-1]
	state, judged, err := session.Replay(p.chart, p.options(), h.Records)
	if nil != err {
		return err
	}
	fmt.Fprintf(w, "Replay of %v, played %v\n", h.ID, h.Played.Format(time.RFC1123))
	p.Summary(w, session.Result{
		ID:        h.ID,
		Chart:     p.chart,
		Started:   h.Played,
		Score:     state,
		Judgments: judged,
		Records:   h.Records,
	})
	if state.TotalScore != h.Score.TotalScore {
		logger.Warn("replay does not match the stored score",
			logger.String("id", h.ID),
			logger.Int("stored", int(h.Score.TotalScore)),
			logger.Int("replayed", int(state.TotalScore)),
		)
		fmt.Fprintf(w, "  Stored score was %v\n", h.Score.TotalScore)
	}
	return nil
}

// Summary prints the result once the terminal is restored
func (p *Program) Summary(w io.Writer, r session.Result) {
	s := r.Score
	fmt.Fprintf(w, "%v (%v)\n", p.chart.Name, p.chart.Difficulty.Name)
	fmt.Fprintf(w, "  Score: %v", s.TotalScore)
	if s.TotalScore > p.best && !s.IsFailed {
		fmt.Fprintf(w, " (new best)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Combo: %v, %v missed, %v overstrums\n", s.MaxCombo, s.MissCount, s.Overstrums)
	fmt.Fprintf(w, "  Offset: %.2f ms mean, %.2f ms stdev\n", ms(float64(s.MeanOffset)), ms(float64(s.StdevOffset)))
	if s.IsFailed {
		fmt.Fprintf(w, "  Failed at %v\n", s.FailedAt)
	}
	for _, warning := range s.Warnings {
		fmt.Fprintf(w, "  Warning: %v\n", warning)
	}
}
