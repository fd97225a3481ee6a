// Package store reads and writes the pipeline's file artifacts: the canonical
// match table, assembled feature vectors, final ratings, and trained model
// artifacts. All formats are plain CSV or JSON on local disk.
package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/okian/breakpoint/internal/domain/model"
)

const fileMode = 0o644

// matchColumns is the canonical match table schema written by the clean stage.
var matchColumns = []string{
	"match_id", "date", "tournament", "level", "round", "surface", "indoor",
	"best_of", "p1_id", "p2_id", "winner_id", "p1_name", "p2_name",
	"p1_hold", "p1_break", "p2_hold", "p2_break", "retired",
}

// LoadMatches reads the canonical match table. Rows come back in file order;
// the clean stage guarantees that order is chronological.
func LoadMatches(path string) ([]model.Match, error) {
	rows, err := readCSV(path, matchColumns)
	if err != nil {
		return nil, err
	}

	matches := make([]model.Match, 0, len(rows))
	for i, row := range rows {
		date, err := time.Parse(time.DateOnly, row[1])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d has unparseable date %q", ErrBadSchema, i+2, row[1])
		}
		bestOf, _ := strconv.Atoi(row[7])
		m := model.Match{
			ID:       row[0],
			Date:     date,
			Level:    row[3],
			Round:    model.ParseRound(row[4]),
			Surface:  model.ParseSurface(row[5]),
			Indoor:   row[6] == "true",
			BestOf:   bestOf,
			PlayerA:  model.PlayerInfo{ID: row[8]},
			PlayerB:  model.PlayerInfo{ID: row[9]},
			WinnerID: row[10],
			StatsA:   parseServeStats(row[13], row[14]),
			StatsB:   parseServeStats(row[15], row[16]),
			Retired:  row[17] == "true",
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// SaveMatches writes matches in the canonical table schema. The synthetic
// generator and tests use it to stand in for the clean stage.
func SaveMatches(path string, matches []model.Match) error {
	rows := make([][]string, 0, len(matches)+1)
	rows = append(rows, matchColumns)
	for _, m := range matches {
		rows = append(rows, []string{
			m.ID,
			m.Date.Format(time.DateOnly),
			"",
			m.Level,
			m.Round.String(),
			m.Surface.String(),
			strconv.FormatBool(m.Indoor),
			strconv.Itoa(m.BestOf),
			m.PlayerA.ID,
			m.PlayerB.ID,
			m.WinnerID,
			"", "",
			formatServeStat(m.StatsA.Valid, m.StatsA.HoldRate),
			formatServeStat(m.StatsA.Valid, m.StatsA.BreakRate),
			formatServeStat(m.StatsB.Valid, m.StatsB.HoldRate),
			formatServeStat(m.StatsB.Valid, m.StatsB.BreakRate),
			strconv.FormatBool(m.Retired),
		})
	}
	return writeCSV(path, rows)
}

func formatServeStat(valid bool, rate float64) string {
	if !valid {
		return ""
	}
	return strconv.FormatFloat(rate, 'g', -1, 64)
}

func parseServeStats(hold, brk string) model.ServeStats {
	h, errH := strconv.ParseFloat(strings.TrimSpace(hold), 64)
	b, errB := strconv.ParseFloat(strings.TrimSpace(brk), 64)
	if errH != nil || errB != nil {
		return model.ServeStats{}
	}
	return model.ServeStats{Valid: true, HoldRate: h, BreakRate: b}
}

// readCSV loads a CSV file and verifies its header starts with the wanted
// columns.
func readCSV(path string, wantHeader []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrBadSchema, path)
	}
	header := all[0]
	if len(header) < len(wantHeader) {
		return nil, fmt.Errorf("%w: %s has %d columns, want %d", ErrBadSchema, path, len(header), len(wantHeader))
	}
	for i, want := range wantHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return nil, fmt.Errorf("%w: %s column %d is %q, want %q", ErrBadSchema, path, i, header[i], want)
		}
	}
	return all[1:], nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.Flush()
	return w.Error()
}
