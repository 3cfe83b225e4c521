package storage

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Storage keys
const (
	keyPreferences = "preferences"
	keyStats       = "stats"
	gamePrefix     = "game/"
)

// ErrGameNotFound is returned when no archived game has the requested ID.
var ErrGameNotFound = errors.New("game not found")

// Preferences stores user settings between runs.
type Preferences struct {
	Username   string    `json:"username"`
	Elo        int       `json:"elo"`
	MoveTimeMs int       `json:"move_time_ms"`
	UserSide   string    `json:"user_side"`
	LastPlayed time.Time `json:"last_played"`
}

// DefaultPreferences returns default user preferences.
func DefaultPreferences() *Preferences {
	return &Preferences{
		Username:   "Player",
		Elo:        1500,
		MoveTimeMs: 1000,
		UserSide:   "white",
		LastPlayed: time.Now(),
	}
}

// GameStats stores game statistics.
type GameStats struct {
	GamesPlayed    int            `json:"games_played"`
	Wins           int            `json:"wins"`
	Losses         int            `json:"losses"`
	Draws          int            `json:"draws"`
	Unfinished     int            `json:"unfinished"`
	WinsBySide     map[string]int `json:"wins_by_side"`
	LongestWinStrk int            `json:"longest_win_streak"`
	CurrentStreak  int            `json:"current_streak"`
	HighestEloBeat int            `json:"highest_elo_beaten"`
}

// NewGameStats returns empty game statistics.
func NewGameStats() *GameStats {
	return &GameStats{WinsBySide: make(map[string]int)}
}

// Result is the outcome written to the game log.
type Result string

const (
	ResultWhiteWins  Result = "White wins"
	ResultBlackWins  Result = "Black wins"
	ResultDraw       Result = "Draw"
	ResultUnfinished Result = "Unfinished"
)

// GameRecord is an archived game.
type GameRecord struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Played    time.Time `json:"played"`
	EngineElo int       `json:"engine_elo"`
	White     string    `json:"white"`
	Black     string    `json:"black"`
	Result    Result    `json:"result"`
	Reason    string    `json:"reason"`
	Variant   string    `json:"variant"`
	StartFEN  string    `json:"start_fen"`
	Moves     []string  `json:"moves"`
}

// UserSide returns "white" or "black" depending on which player is the user.
func (r *GameRecord) UserSide() string {
	if r.Black == r.User && r.White != r.User {
		return "black"
	}
	return "white"
}

// Won reports whether the user won the game.
func (r *GameRecord) Won() bool {
	side := r.UserSide()
	return (r.Result == ResultWhiteWins && side == "white") || (r.Result == ResultBlackWins && side == "black")
}

// Storage wraps BadgerDB for persistent storage.
type Storage struct {
	db  *badger.DB
	log *zap.SugaredLogger
}

// badgerLogger routes badger's internal logging to zap.
type badgerLogger struct {
	*zap.SugaredLogger
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}

// Open opens (or creates) the database in dir. An empty dir selects the
// platform data directory.
func Open(dir string, log *zap.SugaredLogger) (*Storage, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if dir == "" {
		d, err := GetDatabaseDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = badgerLogger{log.Named("badger")}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	log.Debugw("storage opened", "dir", dir)
	return &Storage{db: db, log: log}, nil
}

// Close closes the database.
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) put(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// get decodes key into v. It reports false when the key does not exist.
func (s *Storage) get(key string, v interface{}) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	return found, err
}

// SavePreferences saves user preferences.
func (s *Storage) SavePreferences(prefs *Preferences) error {
	prefs.LastPlayed = time.Now()
	return s.put(keyPreferences, prefs)
}

// LoadPreferences loads user preferences, returns defaults if not found.
func (s *Storage) LoadPreferences() (*Preferences, error) {
	prefs := DefaultPreferences()
	_, err := s.get(keyPreferences, prefs)
	return prefs, err
}

// SaveStats saves game statistics.
func (s *Storage) SaveStats(stats *GameStats) error {
	return s.put(keyStats, stats)
}

// LoadStats loads game statistics, returns empty stats if not found.
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := NewGameStats()
	_, err := s.get(keyStats, stats)
	if stats.WinsBySide == nil {
		stats.WinsBySide = make(map[string]int)
	}
	return stats, err
}

// RecordGame archives a game and updates statistics.
func (s *Storage) RecordGame(rec GameRecord) error {
	if err := s.SaveGame(rec); err != nil {
		return err
	}

	stats, err := s.LoadStats()
	if err != nil {
		return err
	}
	stats.GamesPlayed++

	switch {
	case rec.Result == ResultUnfinished:
		stats.Unfinished++
	case rec.Result == ResultDraw:
		stats.Draws++
		stats.CurrentStreak = 0
	case rec.Won():
		stats.Wins++
		stats.CurrentStreak++
		if stats.CurrentStreak > stats.LongestWinStrk {
			stats.LongestWinStrk = stats.CurrentStreak
		}
		stats.WinsBySide[rec.UserSide()]++
		if rec.EngineElo > stats.HighestEloBeat {
			stats.HighestEloBeat = rec.EngineElo
		}
	default:
		stats.Losses++
		stats.CurrentStreak = 0
	}

	s.log.Infow("game recorded", "id", rec.ID, "result", rec.Result, "moves", len(rec.Moves))
	return s.SaveStats(stats)
}

// SaveGame stores rec under its ID, replacing any earlier version.
func (s *Storage) SaveGame(rec GameRecord) error {
	if rec.ID == "" {
		return errors.New("game record has no id")
	}
	return s.put(gamePrefix+rec.ID, rec)
}

// LoadGame returns the archived game with the given ID.
func (s *Storage) LoadGame(id string) (*GameRecord, error) {
	var rec GameRecord
	found, err := s.get(gamePrefix+id, &rec)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrGameNotFound
	}
	return &rec, nil
}

// ListGames returns all archived games, newest first.
func (s *Storage) ListGames() ([]GameRecord, error) {
	var games []GameRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(gamePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec GameRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			games = append(games, rec)
		}
		return nil
	})
	sort.SliceStable(games, func(i, j int) bool {
		if games[i].Played.Equal(games[j].Played) {
			return strings.Compare(games[i].ID, games[j].ID) < 0
		}
		return games[i].Played.After(games[j].Played)
	})
	return games, err
}

// GetWinRate returns the win rate as a percentage (0-100).
func (s *GameStats) GetWinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.GamesPlayed) * 100
}
