package neighborhoods

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/citylens/citylens/internal/logx"
)

// DBFile is the sqlite database the store looks for under the data dir.
const DBFile = "neighborhoods.db"

// Store serves neighborhood profiles from an immutable snapshot. The
// snapshot comes from a sqlite database when one exists, otherwise from
// the built-in seed profiles so the service can still start.
type Store struct {
	dataDir string
	snap    atomic.Pointer[Snapshot]
}

// Status reports where the current snapshot came from.
type Status struct {
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at"`
	Count    int       `json:"count"`
	DBPath   string    `json:"db_path,omitempty"`
}

// NewStore loads the initial snapshot. A missing or unreadable database
// is not fatal: the seed profiles are used and a warning is logged.
func NewStore(dataDir string) *Store {
	s := &Store{dataDir: dataDir}

	snap, err := s.loadFromDB()
	if err != nil {
		logx.Warn().Err(err).Str("data_dir", dataDir).Msg("falling back to seed neighborhood profiles")
		snap = buildSnapshot(seedProfiles(), "seed")
	}
	s.snap.Store(snap)

	logx.Info().Int("profiles", snap.Count()).Str("source", snap.source).Msg("neighborhood profiles loaded")
	return s
}

// Snapshot returns the current immutable snapshot.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Refresh rebuilds the snapshot from the database and swaps it in
// atomically. In-flight requests keep the snapshot they started with.
// When the database cannot be read, the current snapshot stays active.
func (s *Store) Refresh() (*Status, error) {
	snap, err := s.loadFromDB()
	if err != nil {
		return nil, fmt.Errorf("refresh failed, keeping current snapshot: %w", err)
	}
	s.snap.Store(snap)
	logx.Info().Int("profiles", snap.Count()).Msg("neighborhood snapshot refreshed")
	st := s.Status()
	return &st, nil
}

// Status describes the active snapshot.
func (s *Store) Status() Status {
	snap := s.snap.Load()
	st := Status{
		Source:   snap.source,
		LoadedAt: snap.loadedAt,
		Count:    snap.Count(),
	}
	if snap.source == "sqlite" {
		st.DBPath = filepath.Join(s.dataDir, DBFile)
	}
	return st
}

func (s *Store) loadFromDB() (*Snapshot, error) {
	dbPath := filepath.Join(s.dataDir, DBFile)
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("no neighborhood database at %s: %w", dbPath, err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dbPath, err)
	}
	defer db.Close()

	rows, err := db.Query("SELECT id, name, area_type, data FROM neighborhoods")
	if err != nil {
		return nil, fmt.Errorf("failed to query neighborhoods: %w", err)
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		var id, name, areaType, data string
		if err := rows.Scan(&id, &name, &areaType, &data); err != nil {
			logx.Warn().Err(err).Msg("skipping unreadable neighborhood row")
			continue
		}

		profile := &Profile{}
		if err := json.Unmarshal([]byte(data), profile); err != nil {
			logx.Warn().Err(err).Str("id", id).Msg("skipping neighborhood with invalid data")
			continue
		}
		profile.ID = id
		profile.Name = name
		profile.AreaType = areaType
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("neighborhood database %s holds no usable rows", dbPath)
	}

	return buildSnapshot(profiles, "sqlite"), nil
}
