package models

import (
	"encoding/json"
	"time"
)

type CharacterBoss struct {
	Name       string `json:"name"`
	Difficulty string `json:"difficulty"`
	Price      int64  `json:"price"`
	PartySize  int    `json:"partySize"`
}

type Character struct {
	Name   string          `json:"name"`
	Bosses []CharacterBoss `json:"bosses,omitempty"`
}

// ClearStatus maps "CharName-idx" to "BossName-Difficulty" to a cleared flag.
type ClearStatus map[string]map[string]bool

type WeekEntry struct {
	WeekKey         WeekKey     `json:"weekKey"`
	BossClearStatus ClearStatus `json:"bossClearStatus"`
}

// LegacyBlob is the flat pre-history layout: a single checked map for one week.
type LegacyBlob struct {
	Characters         []Character       `json:"characters"`
	Checked            ClearStatus       `json:"checked,omitempty"`
	WeekKey            WeekKey           `json:"weekKey,omitempty"`
	WeeklyHistory      []json.RawMessage `json:"weeklyHistory,omitempty"`
	AccountCreatedDate *time.Time        `json:"accountCreatedDate,omitempty"`

	// Present on blobs that gained history but never got a currentWeekKey.
	WeeklyBossClearHistory map[WeekKey]WeekEntry `json:"weeklyBossClearHistory,omitempty"`
}

type CurrentBlob struct {
	Characters             []Character           `json:"characters"`
	WeeklyBossClearHistory map[WeekKey]WeekEntry `json:"weeklyBossClearHistory"`
	CurrentWeekKey         WeekKey               `json:"currentWeekKey"`
	WeeklyProgressHistory  []json.RawMessage     `json:"weeklyProgressHistory"`
	AccountCreatedDate     time.Time             `json:"accountCreatedDate"`
	LastActiveDate         time.Time             `json:"lastActiveDate"`
	LegacyWeekKey          WeekKey               `json:"legacyWeekKey,omitempty"`
	LegacyCheckedData      ClearStatus           `json:"legacyCheckedData,omitempty"`
	LastUpdated            time.Time             `json:"lastUpdated"`
}

func (blob *CurrentBlob) HasLegacyFields() bool {
	return blob.LegacyWeekKey != "" || blob.LegacyCheckedData != nil
}

// CharacterNames returns the set of character names on the blob.
func (blob *CurrentBlob) CharacterNames() map[string]bool {
	names := make(map[string]bool, len(blob.Characters))
	for _, character := range blob.Characters {
		names[character.Name] = true
	}
	return names
}

type Shape string

const (
	ShapeLegacy  Shape = "legacy"
	ShapeCurrent Shape = "current"
)

// Blob is either a *LegacyBlob or a *CurrentBlob.
type Blob interface {
	Shape() Shape
}

func (*LegacyBlob) Shape() Shape  { return ShapeLegacy }
func (*CurrentBlob) Shape() Shape { return ShapeCurrent }
