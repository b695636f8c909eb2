package clock

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"git.lost.host/meutraa/eotf/internal/game"
	"git.lost.host/meutraa/eotf/internal/logger"
	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
)

// tap counts the samples the speaker has pulled. The speaker goroutine is
// the only writer, the game loop the only reader.
type tap struct {
	s       beep.Streamer
	samples atomic.Int64
	drained atomic.Bool
}

func (t *tap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.s.Stream(samples)
	t.samples.Add(int64(n))
	if !ok {
		t.drained.Store(true)
	}
	return n, ok
}

func (t *tap) Err() error {
	return t.s.Err()
}

// BeepTrack plays a song and an optional guitar stem through the beep speaker
type BeepTrack struct {
	Song   string
	Guitar string
	Buffer time.Duration // Speaker buffer, also the output latency

	// Silenced guitar volume after a miss, in the effects.Volume scale
	MissVolume float64

	format  beep.Format
	song    beep.StreamSeekCloser
	guitar  beep.StreamSeekCloser
	volume  *effects.Volume
	ctrl    *beep.Ctrl
	tap     *tap
	buffer  int
	playing bool
}

func decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if nil != err {
		return nil, beep.Format{}, err
	}
	var s beep.StreamSeekCloser
	var format beep.Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ogg":
		s, format, err = vorbis.Decode(f)
	case ".mp3":
		s, format, err = mp3.Decode(f)
	case ".wav":
		s, format, err = wav.Decode(f)
	default:
		err = fmt.Errorf("unknown audio format %v", filepath.Ext(path))
	}
	if nil != err {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("unable to decode %v: %w", path, err)
	}
	return s, format, nil
}

// Open decodes the audio and opens the output device
func (t *BeepTrack) Open() error {
	song, format, err := decode(t.Song)
	if nil != err {
		return err
	}
	t.song = song
	t.format = format

	streamers := []beep.Streamer{song}
	if t.Guitar != "" {
		guitar, gf, err := decode(t.Guitar)
		if nil != err {
			// The game is playable without the stem
			logger.Warn("unable to open guitar track", logger.Err(err))
		} else {
			t.guitar = guitar
			var s beep.Streamer = guitar
			if gf.SampleRate != format.SampleRate {
				s = beep.Resample(4, gf.SampleRate, format.SampleRate, guitar)
			}
			t.volume = &effects.Volume{Streamer: s, Base: 2}
			streamers = append(streamers, t.volume)
		}
	}

	buffer := t.Buffer
	if buffer <= 0 {
		buffer = time.Second / 60
	}
	t.buffer = format.SampleRate.N(buffer)
	t.tap = &tap{s: beep.Mix(streamers...)}
	t.ctrl = &beep.Ctrl{Streamer: t.tap}

	if err := speaker.Init(format.SampleRate, t.buffer); nil != err {
		t.Close()
		return fmt.Errorf("unable to open audio device: %w", err)
	}
	logger.Info("opened audio",
		logger.String("song", t.Song),
		logger.Int("rate", int(format.SampleRate)),
		logger.Duration("buffer", buffer),
	)
	return nil
}

func (t *BeepTrack) Play() error {
	if t.ctrl == nil {
		return fmt.Errorf("audio track is not open")
	}
	if !t.playing {
		t.playing = true
		speaker.Play(t.ctrl)
	}
	return nil
}

func (t *BeepTrack) Pause() {
	speaker.Lock()
	t.ctrl.Paused = true
	speaker.Unlock()
}

func (t *BeepTrack) Resume() {
	speaker.Lock()
	t.ctrl.Paused = false
	speaker.Unlock()
}

func (t *BeepTrack) Seek(d time.Duration) error {
	n := t.format.SampleRate.N(d)
	if n > t.song.Len() {
		n = t.song.Len()
	}
	speaker.Lock()
	defer speaker.Unlock()
	if err := t.song.Seek(n); nil != err {
		return err
	}
	if t.guitar != nil {
		gn := n
		if gn > t.guitar.Len() {
			gn = t.guitar.Len()
		}
		if err := t.guitar.Seek(gn); nil != err {
			return err
		}
	}
	// Samples already buffered by the speaker are still counted as played
	t.tap.samples.Store(int64(n + t.buffer))
	return nil
}

// PlaybackPosition is the number of pulled samples less the speaker buffer
func (t *BeepTrack) PlaybackPosition() (time.Duration, bool) {
	if t.tap == nil || !t.playing {
		return 0, false
	}
	if t.tap.drained.Load() {
		return 0, false
	}
	n := int(t.tap.samples.Load()) - t.buffer
	if n < 0 {
		n = 0
	}
	return t.format.SampleRate.D(n), true
}

// Length of the song
func (t *BeepTrack) Length() time.Duration {
	if t.song == nil {
		return 0
	}
	return t.format.SampleRate.D(t.song.Len())
}

// OnJudgment silences the guitar stem on a miss and restores it on a hit
func (t *BeepTrack) OnJudgment(j game.Judgment) {
	if t.volume == nil {
		return
	}
	switch j.Kind {
	case game.KindHit, game.KindHeldComplete:
		speaker.Lock()
		t.volume.Volume = 0
		t.volume.Silent = false
		speaker.Unlock()
	case game.KindMissed, game.KindHeldBroken:
		speaker.Lock()
		t.volume.Volume = t.MissVolume
		t.volume.Silent = t.MissVolume <= -10
		speaker.Unlock()
	}
}

func (t *BeepTrack) Close() {
	if t.playing {
		speaker.Clear()
		t.playing = false
	}
	if t.song != nil {
		t.song.Close()
	}
	if t.guitar != nil {
		t.guitar.Close()
	}
}
