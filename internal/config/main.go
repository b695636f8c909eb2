package config

import (
	"fmt"
	"strconv"
	"time"

	"git.lost.host/meutraa/eotf/internal/game"
	"git.lost.host/meutraa/eotf/internal/input"
	"git.lost.host/meutraa/eotf/internal/logger"
	"git.lost.host/meutraa/eotf/internal/score"
	"gopkg.in/alecthomas/kingpin.v2"
)

const Version = "0.3.0"

type Config struct {
	Directory  string
	Difficulty string

	Offset      time.Duration // Audio output latency
	LeadIn      time.Duration // Time before the song starts
	Buffer      time.Duration // Speaker buffer
	FramePeriod time.Duration
	ScrollSpeed time.Duration // Song time per terminal row
	BarRow      uint          // Rows above the bottom for the hit bar
	Spacing     uint          // Columns between lanes

	HitWindow time.Duration // 0 follows the song tempo
	Grace     time.Duration
	Strict    bool
	Replay    bool // Judge the last stored session again instead of playing

	Device   string // evdev node, the terminal is used when empty
	Keys     string // Terminal keys for the five frets
	Latch    time.Duration
	MissMute float64 // Guitar stem volume after a miss
	Database string
	LogFile  string
	LogLevel string

	NoteValue            int64
	SustainValue         float64
	ComboStep            int
	MaxMultiplier        int
	OverstrumBreaksCombo bool
	FailStreak           int
	HealthStart          float64
	HealthLoss           float64
}

func Default() Config {
	rules := score.DefaultRules()
	return Config{
		Difficulty:           "easy",
		LeadIn:               -1500 * time.Millisecond,
		Buffer:               time.Second / 60,
		FramePeriod:          time.Millisecond * 4,
		ScrollSpeed:          time.Millisecond * 60,
		BarRow:               4,
		Spacing:              6,
		Keys:                 "asdfg",
		Latch:                600 * time.Millisecond,
		MissMute:             -2,
		Database:             "./scores.db",
		LogFile:              "./eotf.log",
		LogLevel:             string(logger.InfoLevel),
		NoteValue:            rules.NoteValue,
		SustainValue:         rules.SustainValue,
		ComboStep:            rules.ComboStep,
		MaxMultiplier:        rules.MaxMultiplier,
		OverstrumBreaksCombo: rules.OverstrumBreaksCombo,
		FailStreak:           rules.FailStreak,
		HealthStart:          rules.HealthStart,
		HealthLoss:           rules.HealthLoss,
	}
}

func float(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Parse reads the command line, flags default to Default()
func Parse(args []string) (Config, error) {
	d := Default()
	c := d
	app := kingpin.New("eotf", "Rhythm game for the terminal")
	app.Version(Version)

	app.Arg("directory", "Song directory with notes.mid or a .json chart").Required().ExistingDirVar(&c.Directory)
	app.Flag("difficulty", "Supaeasy, easy, medium or amazing").Default(d.Difficulty).Short('D').StringVar(&c.Difficulty)
	app.Flag("offset", "Global audio offset").Default(d.Offset.String()).Short('o').DurationVar(&c.Offset)
	app.Flag("delay", "Lead in before the song, negative").Default(d.LeadIn.String()).Short('d').DurationVar(&c.LeadIn)
	app.Flag("buffer", "Audio buffer").Default(d.Buffer.String()).DurationVar(&c.Buffer)
	app.Flag("frame-period", "Render frame period").Default(d.FramePeriod.String()).Short('p').DurationVar(&c.FramePeriod)
	app.Flag("scroll-speed", "Song time per row, lower is faster").Default(d.ScrollSpeed.String()).Short('s').DurationVar(&c.ScrollSpeed)
	app.Flag("bar-row", "Console row to render hit bar, from the bottom").Default(strconv.Itoa(int(d.BarRow))).UintVar(&c.BarRow)
	app.Flag("spacing", "Columns between lanes").Default(strconv.Itoa(int(d.Spacing))).Short('S').UintVar(&c.Spacing)
	app.Flag("hit-window", "Hit tolerance, 0 follows the tempo").Default(d.HitWindow.String()).DurationVar(&c.HitWindow)
	app.Flag("grace", "Sustain release grace, 0 follows the tempo").Default(d.Grace.String()).DurationVar(&c.Grace)
	app.Flag("strict", "Stop on judgment invariant violations").BoolVar(&c.Strict)
	app.Flag("replay", "Judge the last stored session of the chart again").Short('r').BoolVar(&c.Replay)
	app.Flag("device", "evdev keyboard, e.g. /dev/input/event3").Default(d.Device).StringVar(&c.Device)
	app.Flag("keys", "Terminal keys for the frets").Default(d.Keys).Short('k').StringVar(&c.Keys)
	app.Flag("latch", "How long a terminal fret stays down after a press").Default(d.Latch.String()).DurationVar(&c.Latch)
	app.Flag("miss-volume", "Guitar volume after a miss").Default(float(d.MissMute)).Float64Var(&c.MissMute)
	app.Flag("database", "Score database").Default(d.Database).StringVar(&c.Database)
	app.Flag("log", "Log file, empty disables logging").Default(d.LogFile).StringVar(&c.LogFile)
	app.Flag("log-level", "debug, info, warn or error").Default(d.LogLevel).EnumVar(&c.LogLevel, "debug", "info", "warn", "error")
	app.Flag("note-value", "Points per note").Default(strconv.FormatInt(d.NoteValue, 10)).Int64Var(&c.NoteValue)
	app.Flag("sustain-value", "Points per second of sustain").Default(float(d.SustainValue)).Float64Var(&c.SustainValue)
	app.Flag("combo-step", "Hits per multiplier step").Default(strconv.Itoa(d.ComboStep)).IntVar(&c.ComboStep)
	app.Flag("max-multiplier", "Highest multiplier").Default(strconv.Itoa(d.MaxMultiplier)).IntVar(&c.MaxMultiplier)
	app.Flag("overstrum-breaks", "Overstrums reset the combo").Default(strconv.FormatBool(d.OverstrumBreaksCombo)).BoolVar(&c.OverstrumBreaksCombo)
	app.Flag("fail-streak", "Consecutive misses that fail the song, 0 disables").Default(strconv.Itoa(d.FailStreak)).IntVar(&c.FailStreak)
	app.Flag("health", "Starting health").Default(float(d.HealthStart)).Float64Var(&c.HealthStart)
	app.Flag("health-loss", "Health lost per miss, 0 disables").Default(float(d.HealthLoss)).Float64Var(&c.HealthLoss)

	if _, err := app.Parse(args); nil != err {
		return c, err
	}
	if _, ok := game.DifficultyByName(c.Difficulty); !ok {
		return c, fmt.Errorf("unknown difficulty %q", c.Difficulty)
	}
	if len([]rune(c.Keys)) != game.FretLanes {
		return c, fmt.Errorf("expected %d fret keys, got %q", game.FretLanes, c.Keys)
	}
	if c.LeadIn > 0 {
		c.LeadIn = -c.LeadIn
	}
	return c, nil
}

// Window follows the tempo unless a tolerance is configured
func (c Config) Window(bpm float64) game.Window {
	w := game.WindowForTempo(bpm)
	if c.HitWindow > 0 {
		w.Hit = c.HitWindow
	}
	if c.Grace > 0 {
		w.SustainReleaseGrace = c.Grace
	}
	return w
}

func (c Config) Rules() score.Rules {
	r := score.DefaultRules()
	r.NoteValue = c.NoteValue
	r.SustainValue = c.SustainValue
	r.ComboStep = c.ComboStep
	r.MaxMultiplier = c.MaxMultiplier
	r.OverstrumBreaksCombo = c.OverstrumBreaksCombo
	r.FailStreak = c.FailStreak
	r.HealthStart = c.HealthStart
	r.HealthLoss = c.HealthLoss
	return r
}

// KeyMap maps the fret keys onto controls, leaving the default extras
func (c Config) KeyMap() map[rune]input.Control {
	m := map[rune]input.Control{}
	for r, ctrl := range input.DefaultRunes {
		if !ctrl.IsFret() {
			m[r] = ctrl
		}
	}
	for i, r := range []rune(c.Keys) {
		m[r] = input.FretControl(game.Lane(i))
	}
	return m
}

func (c Config) Logger() logger.Config {
	return logger.Config{
		Level:      logger.Level(c.LogLevel),
		OutputPath: c.LogFile,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
	}
}
