// Package clean canonicalizes raw scraped tennis data: player names are
// normalized into stable hashed identifiers, surfaces and rounds fold into
// their closed sets, duplicate rows collapse, and the output is the
// date-sorted canonical match table the rating engine consumes.
package clean

import (
	"context"
	"crypto/md5" //nolint:gosec // non-cryptographic, stable short ids only
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/okian/breakpoint/internal/domain/model"
	"github.com/okian/breakpoint/pkg/logger"
)

// Output file names under the processed directory.
const (
	MatchesFile = "matches.csv"
	PlayersFile = "players.csv"

	rawMatchesFile = "atp_tennis.csv"
	playerIDLength = 8
	outputFileMode = 0o644
)

// matchesHeader is the canonical match table schema. Serve/return rate
// columns are optional per row; sources without per-match stats leave them
// empty.
var matchesHeader = []string{
	"match_id", "date", "tournament", "level", "round", "surface", "indoor",
	"best_of", "p1_id", "p2_id", "winner_id", "p1_name", "p2_name",
	"p1_hold", "p1_break", "p2_hold", "p2_break", "retired",
}

var (
	multiSpace   = regexp.MustCompile(`\s+`)
	abbreviated  = regexp.MustCompile(`^\p{Lu}\p{Ll}+ \p{Lu}\.$`)
	retiredScore = regexp.MustCompile(`(?i)(ret|w/o|walkover|def\.)`)
)

// Summary reports what a clean run did.
type Summary struct {
	RawRows    int
	Kept       int
	Dropped    int
	Duplicates int
	Players    int
}

// Cleaner runs the canonicalization stage.
type Cleaner struct {
	log    logger.Logger
	dedupe *matchKeyDeduper
	ids    map[string]string // normalized name -> player id
}

// New constructs a Cleaner.
func New(log logger.Logger) *Cleaner {
	return &Cleaner{
		log:    log,
		dedupe: newMatchKeyDeduper(),
		ids:    make(map[string]string),
	}
}

// NormalizePlayerName standardizes a raw player name: whitespace collapsed,
// "Lastname F." flipped to "F. Lastname", words title-cased.
func NormalizePlayerName(raw string) string {
	name := multiSpace.ReplaceAllString(strings.TrimSpace(raw), " ")
	if name == "" {
		return ""
	}
	if abbreviated.MatchString(name) {
		parts := strings.Split(name, " ")
		name = parts[1] + " " + parts[0]
	}
	words := strings.Split(name, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		first, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(first)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

// PlayerID derives the stable 8-hex identifier from a normalized name.
func PlayerID(normalized string) string {
	if normalized == "" {
		return ""
	}
	sum := md5.Sum([]byte(normalized)) //nolint:gosec // stable id, not security
	return hex.EncodeToString(sum[:])[:playerIDLength]
}

// Run reads the raw match table from rawDir and writes the canonical match
// and player tables into processedDir.
func (c *Cleaner) Run(ctx context.Context, rawDir, processedDir string) (Summary, error) {
	var sum Summary

	rows, header, err := readCSV(filepath.Join(rawDir, rawMatchesFile))
	if err != nil {
		return sum, err
	}
	col, err := columnIndex(header)
	if err != nil {
		return sum, err
	}
	sum.RawRows = len(rows)

	type record struct {
		date time.Time
		out  []string
	}
	var records []record

	for _, row := range rows {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		default:
		}

		if len(row) < len(header) {
			sum.Dropped++
			continue
		}
		date, err := parseDate(row[col.date])
		if err != nil {
			sum.Dropped++
			continue
		}
		p1 := NormalizePlayerName(row[col.player1])
		p2 := NormalizePlayerName(row[col.player2])
		winner := NormalizePlayerName(row[col.winner])
		if p1 == "" || p2 == "" || (winner != p1 && winner != p2) {
			sum.Dropped++
			continue
		}

		p1ID := c.playerID(p1)
		p2ID := c.playerID(p2)
		winnerID := c.playerID(winner)

		round := model.ParseRound(row[col.round])
		key := matchKey(date, p1ID, p2ID, round)
		if c.dedupe.SeenAndRecord(key) {
			sum.Duplicates++
			continue
		}

		surface := model.ParseSurface(row[col.surface])
		indoor := strings.EqualFold(strings.TrimSpace(row[col.court]), "indoor")
		bestOf := 3
		if n, err := strconv.Atoi(strings.TrimSpace(row[col.bestOf])); err == nil && (n == 3 || n == 5) {
			bestOf = n
		}
		retired := col.score >= 0 && retiredScore.MatchString(row[col.score])

		out := []string{
			key,
			date.Format(time.DateOnly),
			strings.TrimSpace(row[col.tournament]),
			strings.TrimSpace(row[col.level]),
			round.String(),
			surface.String(),
			strconv.FormatBool(indoor),
			strconv.Itoa(bestOf),
			p1ID, p2ID, winnerID, p1, p2,
			"", "", "", "", // per-match serve/return rates absent in this source
			strconv.FormatBool(retired),
		}
		records = append(records, record{date: date, out: out})
		sum.Kept++
	}

	// The rating engine requires chronological order; sort here once instead
	// of trusting the source.
	sort.SliceStable(records, func(i, j int) bool { return records[i].date.Before(records[j].date) })

	outRows := make([][]string, 0, len(records)+1)
	outRows = append(outRows, matchesHeader)
	for _, r := range records {
		outRows = append(outRows, r.out)
	}
	if err := writeCSV(filepath.Join(processedDir, MatchesFile), outRows); err != nil {
		return sum, err
	}

	if err := c.writePlayers(processedDir); err != nil {
		return sum, err
	}
	sum.Players = len(c.ids)

	c.log.Info(ctx, "clean complete",
		logger.Int("raw_rows", sum.RawRows),
		logger.Int("kept", sum.Kept),
		logger.Int("dropped", sum.Dropped),
		logger.Int("duplicates", sum.Duplicates),
		logger.Int("players", sum.Players))
	return sum, nil
}

func (c *Cleaner) playerID(normalized string) string {
	if id, ok := c.ids[normalized]; ok {
		return id
	}
	id := PlayerID(normalized)
	c.ids[normalized] = id
	return id
}

func (c *Cleaner) writePlayers(processedDir string) error {
	names := make([]string, 0, len(c.ids))
	for name := range c.ids {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := [][]string{{"player_id", "name", "hand", "birth_year"}}
	for _, name := range names {
		rows = append(rows, []string{c.ids[name], name, "", ""})
	}
	return writeCSV(filepath.Join(processedDir, PlayersFile), rows)
}

// matchKey identifies a match independent of row order: date plus the sorted
// player pair plus round.
func matchKey(date time.Time, p1ID, p2ID string, round model.Round) string {
	lo, hi := p1ID, p2ID
	if hi < lo {
		lo, hi = hi, lo
	}
	return fmt.Sprintf("%s-%s-%s-%s", date.Format("20060102"), lo, hi, round)
}

// columns maps raw header names to indices.
type columns struct {
	tournament, date, level, court, surface, round, bestOf int
	player1, player2, winner, score                        int
}

func columnIndex(header []string) (columns, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	get := func(name string) (int, bool) {
		i, ok := idx[name]
		return i, ok
	}
	col := columns{score: -1}
	required := []struct {
		name string
		dst  *int
	}{
		{"tournament", &col.tournament},
		{"date", &col.date},
		{"series", &col.level},
		{"court", &col.court},
		{"surface", &col.surface},
		{"round", &col.round},
		{"best of", &col.bestOf},
		{"player_1", &col.player1},
		{"player_2", &col.player2},
		{"winner", &col.winner},
	}
	for _, r := range required {
		i, ok := get(r.name)
		if !ok {
			return col, fmt.Errorf("%w: missing column %q", ErrBadHeader, r.name)
		}
		*r.dst = i
	}
	if i, ok := get("score"); ok {
		col.score = i
	}
	return col, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.DateOnly, "2006-01-02 15:04:05", "02/01/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

func readCSV(path string) ([][]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("%w: %s is empty", ErrBadHeader, path)
	}
	return all[1:], all[0], nil
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputFileMode)
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
