package models

import (
	"sort"
	"time"
)

// WeekKey is the YYYY-MM-DD date of the Thursday (UTC) that opens a weekly period.
type WeekKey string

func (key WeekKey) String() string {
	return string(key)
}

// CharacterID is a stable per-week character slot. It is never an array position and
// is never renumbered after a removal.
type CharacterID int

type WeeklyRecord struct {
	UserID       string                 `json:"userId"`
	WeekStart    WeekKey                `json:"weekStart"`
	CharMap      map[CharacterID]string `json:"charMap"`
	BossConfig   map[CharacterID]string `json:"bossConfig"`
	WeeklyClears map[CharacterID]string `json:"weeklyClears"`
	NextID       CharacterID            `json:"nextId"`
	Version      int                    `json:"version"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

func NewWeeklyRecord(userID string, weekStart WeekKey) WeeklyRecord {
	return WeeklyRecord{
		UserID:       userID,
		WeekStart:    weekStart,
		CharMap:      map[CharacterID]string{},
		BossConfig:   map[CharacterID]string{},
		WeeklyClears: map[CharacterID]string{},
	}
}

// CharacterIDs returns the ids present in CharMap in ascending order.
func (record WeeklyRecord) CharacterIDs() []CharacterID {
	ids := make([]CharacterID, 0, len(record.CharMap))
	for id := range record.CharMap {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// WeeklyRecordUpdate carries the fields of an upsert. Nil maps leave the stored
// value untouched.
type WeeklyRecordUpdate struct {
	CharMap      map[CharacterID]string
	BossConfig   map[CharacterID]string
	WeeklyClears map[CharacterID]string
	NextID       *CharacterID

	// ExpectedVersion, when set, makes the write fail unless the stored row is
	// still at that version (0 means "row must not exist yet").
	ExpectedVersion *int
}

type PitchedItem struct {
	ID        string    `json:"id"`
	Character string    `json:"character"`
	Boss      string    `json:"boss"`
	Item      string    `json:"item"`
	Date      time.Time `json:"date"`
	WeekKey   WeekKey   `json:"weekKey"`
	UserID    string    `json:"userId"`
}

type BossRegistryEntry struct {
	BossCode       string `json:"bossCode" yaml:"boss_code"`
	DifficultyCode string `json:"difficultyCode" yaml:"difficulty_code"`
	BossName       string `json:"bossName" yaml:"boss_name"`
	Difficulty     string `json:"difficulty" yaml:"difficulty"`
	CrystalValue   int64  `json:"crystalValue" yaml:"crystal_value"`
	MaxPartySize   int    `json:"maxPartySize" yaml:"max_party_size"`
	Enabled        bool   `json:"enabled" yaml:"-"`
}

type APIToken struct {
	ID        string
	Name      string
	TokenHash string
	UserID    string
	ExpiresAt *time.Time
	CreatedAt time.Time
}
