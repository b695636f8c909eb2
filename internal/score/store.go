package score

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"git.lost.host/meutraa/eotf/internal/game"
	"git.lost.host/meutraa/eotf/internal/input"
	"git.lost.host/meutraa/eotf/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

// Store keeps finished sessions in sqlite, keyed by the chart hash
type Store struct {
	db *sql.DB
}

// History is one stored session of a chart
type History struct {
	ID         string
	Sum        string
	Difficulty string
	Played     time.Time
	Score      State
	Records    []input.Record
}

// InputsCompact holds every transition of one control, presses and
// releases are kept apart so that a fret can be replayed exactly
type InputsCompact struct {
	Control  input.Control
	Presses  []time.Duration
	Releases []time.Duration
}

func compactInputs(records []input.Record) []InputsCompact {
	count := 0
	for _, r := range records {
		if int(r.Control) >= count {
			count = int(r.Control) + 1
		}
	}
	ins := make([]InputsCompact, count)
	for i := range ins {
		ins[i].Control = input.Control(i)
		ins[i].Presses = []time.Duration{}
		ins[i].Releases = []time.Duration{}
	}
	for _, r := range records {
		c := &ins[r.Control]
		if r.Pressed {
			c.Presses = append(c.Presses, r.Time)
		} else {
			c.Releases = append(c.Releases, r.Time)
		}
	}
	return ins
}

// uncompactInputs restores time order. Transitions of one instant follow
// control order, the order a sampler reports them in.
func uncompactInputs(inputs []InputsCompact) []input.Record {
	records := []input.Record{}
	for _, c := range inputs {
		for _, t := range c.Presses {
			records = append(records, input.Record{Control: c.Control, Pressed: true, Time: t})
		}
		for _, t := range c.Releases {
			records = append(records, input.Record{Control: c.Control, Pressed: false, Time: t})
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Time != records[j].Time {
			return records[i].Time < records[j].Time
		}
		if records[i].Control != records[j].Control {
			return records[i].Control < records[j].Control
		}
		// A press and release at one instant, the key was down before
		return !records[i].Pressed && records[j].Pressed
	})
	return records
}

// OpenStore opens or creates the score database at path
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if nil != err {
		return nil, fmt.Errorf("unable to open score database: %w", err)
	}

	initStatement := `
	create table if not exists sessions
	  (
		  id text not null primary key,
		  sum text not null,
		  difficulty text,
		  played integer,
		  score integer,
		  failed integer,
		  state blob,
		  inputs blob
	  );
	create index if not exists sessions_sum on sessions(sum);
	`
	if _, err = db.Exec(initStatement); nil != err {
		db.Close()
		return nil, fmt.Errorf("unable to create score tables: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if nil != s.db {
		return s.db.Close()
	}
	return nil
}

// Save stores a finished session
func (s *Store) Save(c *game.Chart, h History) error {
	state, err := json.Marshal(h.Score)
	if nil != err {
		return fmt.Errorf("unable to marshal score: %w", err)
	}
	inputs, err := json.Marshal(compactInputs(h.Records))
	if nil != err {
		return fmt.Errorf("unable to marshal inputs: %w", err)
	}
	_, err = s.db.Exec(
		"insert into sessions(id, sum, difficulty, played, score, failed, state, inputs) values(?, ?, ?, ?, ?, ?, ?, ?)",
		h.ID, c.Sum, c.Difficulty.Name, h.Played.UnixNano(), h.Score.TotalScore, h.Score.IsFailed, state, inputs,
	)
	if nil != err {
		return fmt.Errorf("unable to save score: %w", err)
	}
	logger.Info("saved session",
		logger.String("id", h.ID),
		logger.String("chart", c.Name),
		logger.Int("score", int(h.Score.TotalScore)),
	)
	return nil
}

// Load returns every stored session of the chart, oldest first.
// Rows that fail to decode are logged and skipped.
func (s *Store) Load(c *game.Chart) ([]History, error) {
	histories := []History{}
	rows, err := s.db.Query("select id, sum, difficulty, played, state, inputs from sessions where sum = ? order by played", c.Sum)
	if nil != err {
		return histories, fmt.Errorf("unable to load scores: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var h History
		var played int64
		var state, inputs []byte
		if err := rows.Scan(&h.ID, &h.Sum, &h.Difficulty, &played, &state, &inputs); nil != err {
			logger.Warn("unable to read score row", logger.Err(err))
			continue
		}
		h.Played = time.Unix(0, played)
		if err := json.Unmarshal(state, &h.Score); nil != err {
			logger.Warn("unable to unmarshal score", logger.String("id", h.ID), logger.Err(err))
			continue
		}
		var ns []InputsCompact
		if err := json.Unmarshal(inputs, &ns); nil != err {
			logger.Warn("unable to unmarshal input history", logger.String("id", h.ID), logger.Err(err))
			continue
		}
		h.Records = uncompactInputs(ns)
		histories = append(histories, h)
	}
	return histories, rows.Err()
}

// Best returns the highest passing score of the chart, 0 when there is none
func (s *Store) Best(c *game.Chart) (int64, error) {
	var best sql.NullInt64
	err := s.db.QueryRow("select max(score) from sessions where sum = ? and failed = 0", c.Sum).Scan(&best)
	if nil != err && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("unable to load best score: %w", err)
	}
	return best.Int64, nil
}
