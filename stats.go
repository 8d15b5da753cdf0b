package levelkv

// stats.go parses the engine's text properties into structured statistics.
// Reference: LevelDB db/db_impl.cc (DBImpl::GetProperty)

import (
	"bufio"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// NumLevels is the number of levels in the engine's LSM tree.
const NumLevels = 7

// Property names understood by the engine.
const (
	PropertyStats                  = "leveldb.stats"
	PropertySSTables               = "leveldb.sstables"
	PropertyApproximateMemoryUsage = "leveldb.approximate-memory-usage"
	propertyFilesAtLevelPrefix     = "leveldb.num-files-at-level"
)

// LevelStats is one row of the engine's compaction table.
type LevelStats struct {
	Level   int
	Files   int
	SizeMB  float64
	TimeSec float64
	ReadMB  float64
	WriteMB float64
}

// Stats is a structured view of the engine's statistics properties.
type Stats struct {
	// FilesAtLevel holds the table file count for each level.
	FilesAtLevel [NumLevels]int

	// Levels holds the rows of the compaction table, for levels that have
	// files or compaction history.
	Levels []LevelStats

	// ApproximateMemoryUsage is the engine's memory estimate in bytes, zero
	// when the engine does not report it.
	ApproximateMemoryUsage uint64

	// Raw is the unparsed leveldb.stats text.
	Raw string
}

// Stats collects the engine's statistics properties.
func (db *DB) Stats() (*Stats, error) {
	if _, err := db.h.Ptr(); err != nil {
		return nil, err
	}

	st := &Stats{}
	for level := range NumLevels {
		v, ok := db.GetProperty(propertyFilesAtLevelPrefix + strconv.Itoa(level))
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, newError(ErrOperation, "stats", "bad file count "+strconv.Quote(v))
		}
		st.FilesAtLevel[level] = n
	}

	if v, ok := db.GetProperty(PropertyApproximateMemoryUsage); ok {
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, newError(ErrOperation, "stats", "bad memory usage "+strconv.Quote(v))
		}
		st.ApproximateMemoryUsage = n
	}

	if raw, ok := db.GetProperty(PropertyStats); ok {
		st.Raw = raw
		levels, err := parseLevelStats(raw)
		if err != nil {
			return nil, err
		}
		st.Levels = levels
	}
	return st, nil
}

// parseLevelStats parses the table printed by the leveldb.stats property:
//
//	                               Compactions
//	Level  Files Size(MB) Time(sec) Read(MB) Write(MB)
//	--------------------------------------------------
//	  0        2        0         0        0         0
func parseLevelStats(raw string) ([]LevelStats, error) {
	var (
		levels  []LevelStats
		inTable bool
	)
	sc := bufio.NewScanner(strings.NewReader(raw))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "---") {
			inTable = true
			continue
		}
		if !inTable || line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 6 {
			return nil, newError(ErrOperation, "stats", "bad stats row "+strconv.Quote(line))
		}
		var (
			row  LevelStats
			errs = make([]error, 6)
		)
		row.Level, errs[0] = strconv.Atoi(fields[0])
		row.Files, errs[1] = strconv.Atoi(fields[1])
		row.SizeMB, errs[2] = strconv.ParseFloat(fields[2], 64)
		row.TimeSec, errs[3] = strconv.ParseFloat(fields[3], 64)
		row.ReadMB, errs[4] = strconv.ParseFloat(fields[4], 64)
		row.WriteMB, errs[5] = strconv.ParseFloat(fields[5], 64)
		if err := multierr.Combine(errs...); err != nil {
			return nil, newError(ErrOperation, "stats", "bad stats row "+strconv.Quote(line)+": "+err.Error())
		}
		levels = append(levels, row)
	}
	return levels, nil
}
