package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/nv0110/bosstracker/internal/models"
	"github.com/nv0110/bosstracker/internal/weekclock"
)

// CleanupStats counts what a cleanup pass removed.
type CleanupStats struct {
	ClearEntriesRemoved int `json:"clearEntriesRemoved"`
	WeeksAffected       int `json:"weeksAffected"`
	PitchedItemsRemoved int `json:"pitchedItemsRemoved"`
}

func (stats CleanupStats) Changed() bool {
	return stats.ClearEntriesRemoved > 0 || stats.PitchedItemsRemoved > 0
}

// DetectShape reports which layout a stored blob uses by probing its top-level keys.
func DetectShape(raw []byte) models.Shape {
	if NeedsMigration(raw) {
		return models.ShapeLegacy
	}
	return models.ShapeCurrent
}

// NeedsMigration is true when the blob has a checked map without history, or a
// week key without a current week key.
func NeedsMigration(raw []byte) bool {
	results := gjson.GetManyBytes(raw, "checked", "weeklyBossClearHistory", "weekKey", "currentWeekKey")
	checked, history, weekKey, currentWeekKey := results[0], results[1], results[2], results[3]
	return (present(checked) && !present(history)) || (present(weekKey) && !present(currentWeekKey))
}

func present(result gjson.Result) bool {
	if !result.Exists() || result.Type == gjson.Null {
		return false
	}
	return !(result.Type == gjson.String && result.Str == "")
}

// DecodeBlob decodes stored data into the variant its shape calls for. Empty data
// is an empty current blob.
func DecodeBlob(raw []byte) (models.Blob, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return &models.CurrentBlob{}, nil
	}
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("decoding user data: invalid JSON")
	}

	if DetectShape(raw) == models.ShapeLegacy {
		var legacy models.LegacyBlob
		if err := json.Unmarshal(raw, &legacy); err != nil {
			return nil, fmt.Errorf("decoding legacy user data: %w", err)
		}
		return &legacy, nil
	}

	var current models.CurrentBlob
	if err := json.Unmarshal(raw, &current); err != nil {
		return nil, fmt.Errorf("decoding user data: %w", err)
	}
	return &current, nil
}

// Upgrade returns the current-shape form of any blob. Current blobs pass through.
func Upgrade(blob models.Blob, now time.Time) *models.CurrentBlob {
	switch typed := blob.(type) {
	case *models.LegacyBlob:
		return Migrate(typed, now)
	case *models.CurrentBlob:
		return typed
	default:
		return &models.CurrentBlob{}
	}
}

// Migrate converts a legacy blob. The legacy week key and checked map are kept on
// the result until PurgeLegacyFields runs.
func Migrate(legacy *models.LegacyBlob, now time.Time) *models.CurrentBlob {
	now = now.UTC()
	currentWeek := weekclock.StartOf(now)

	characters := legacy.Characters
	if characters == nil {
		characters = []models.Character{}
	}
	progress := legacy.WeeklyHistory
	if progress == nil {
		progress = []json.RawMessage{}
	}
	created := now
	if legacy.AccountCreatedDate != nil {
		created = *legacy.AccountCreatedDate
	}

	history := make(map[models.WeekKey]models.WeekEntry, len(legacy.WeeklyBossClearHistory)+1)
	for week, entry := range legacy.WeeklyBossClearHistory {
		history[week] = models.WeekEntry{WeekKey: week, BossClearStatus: copyClearStatus(entry.BossClearStatus)}
	}

	if len(legacy.Checked) > 0 {
		week := legacy.WeekKey
		if week == "" {
			week = currentWeek
		}
		entry, ok := history[week]
		if !ok {
			entry = models.WeekEntry{WeekKey: week, BossClearStatus: models.ClearStatus{}}
		}
		mergeClearStatus(entry.BossClearStatus, legacy.Checked)
		history[week] = entry
	}

	migrated := &models.CurrentBlob{
		Characters:             characters,
		WeeklyBossClearHistory: history,
		CurrentWeekKey:         currentWeek,
		WeeklyProgressHistory:  progress,
		AccountCreatedDate:     created,
		LastActiveDate:         now,
		LegacyWeekKey:          legacy.WeekKey,
		LegacyCheckedData:      legacy.Checked,
		LastUpdated:            now,
	}
	EnsureCurrentWeek(migrated, now)
	return migrated
}

// EnsureCurrentWeek moves the blob to the week containing now and makes sure that
// week has a history entry. It reports whether the blob changed.
func EnsureCurrentWeek(blob *models.CurrentBlob, now time.Time) bool {
	week := weekclock.StartOf(now)
	changed := false
	if blob.CurrentWeekKey != week {
		blob.CurrentWeekKey = week
		changed = true
	}
	if blob.WeeklyBossClearHistory == nil {
		blob.WeeklyBossClearHistory = map[models.WeekKey]models.WeekEntry{}
	}
	if _, ok := blob.WeeklyBossClearHistory[week]; !ok {
		blob.WeeklyBossClearHistory[week] = models.WeekEntry{WeekKey: week, BossClearStatus: models.ClearStatus{}}
		changed = true
	}
	return changed
}

func PurgeLegacyFields(blob *models.CurrentBlob) bool {
	if !blob.HasLegacyFields() {
		return false
	}
	blob.LegacyWeekKey = ""
	blob.LegacyCheckedData = nil
	return true
}

// CleanupOrphanedCharacterData drops clear status and pitched items that name a
// character the blob no longer has. Clean input comes back unchanged.
func CleanupOrphanedCharacterData(blob *models.CurrentBlob, items []models.PitchedItem) (*models.CurrentBlob, []models.PitchedItem, CleanupStats) {
	names := blob.CharacterNames()
	return cleanup(blob, items,
		func(statusKey string) bool { return !names[characterNameFromKey(statusKey)] },
		func(item models.PitchedItem) bool { return !names[item.Character] },
	)
}

// CleanupDeletedCharacterData removes the "{name}-{index}" status key from every
// week and every pitched item recorded for name.
func CleanupDeletedCharacterData(blob *models.CurrentBlob, items []models.PitchedItem, name string, index models.CharacterID) (*models.CurrentBlob, []models.PitchedItem, CleanupStats) {
	target := fmt.Sprintf("%s-%d", name, index)
	return cleanup(blob, items,
		func(statusKey string) bool { return statusKey == target },
		func(item models.PitchedItem) bool { return item.Character == name },
	)
}

func cleanup(blob *models.CurrentBlob, items []models.PitchedItem, dropKey func(string) bool, dropItem func(models.PitchedItem) bool) (*models.CurrentBlob, []models.PitchedItem, CleanupStats) {
	var stats CleanupStats
	result := *blob

	var history map[models.WeekKey]models.WeekEntry
	for week, entry := range blob.WeeklyBossClearHistory {
		removed := 0
		for key := range entry.BossClearStatus {
			if dropKey(key) {
				removed++
			}
		}
		if removed == 0 {
			continue
		}
		if history == nil {
			history = make(map[models.WeekKey]models.WeekEntry, len(blob.WeeklyBossClearHistory))
			for existingWeek, existingEntry := range blob.WeeklyBossClearHistory {
				history[existingWeek] = existingEntry
			}
		}
		status := make(models.ClearStatus, len(entry.BossClearStatus)-removed)
		for key, bosses := range entry.BossClearStatus {
			if !dropKey(key) {
				status[key] = bosses
			}
		}
		history[week] = models.WeekEntry{WeekKey: entry.WeekKey, BossClearStatus: status}
		stats.ClearEntriesRemoved += removed
		stats.WeeksAffected++
	}
	if history != nil {
		result.WeeklyBossClearHistory = history
	}

	for _, item := range items {
		if dropItem(item) {
			stats.PitchedItemsRemoved++
		}
	}
	kept := items
	if stats.PitchedItemsRemoved > 0 {
		kept = make([]models.PitchedItem, 0, len(items)-stats.PitchedItemsRemoved)
		for _, item := range items {
			if !dropItem(item) {
				kept = append(kept, item)
			}
		}
	}

	return &result, kept, stats
}

// SyncCharacters appends a character for every name the blob does not list yet
// and reports whether it added any.
func SyncCharacters(blob *models.CurrentBlob, names []string) bool {
	known := blob.CharacterNames()
	changed := false
	for _, name := range names {
		if name == "" || known[name] {
			continue
		}
		blob.Characters = append(blob.Characters, models.Character{Name: name})
		known[name] = true
		changed = true
	}
	return changed
}

// RenameCharacterData moves the blob's references to oldName over to newName:
// the character list, every "{oldName}-{index}" status key and every pitched item
// recorded for oldName. It returns how many references moved.
func RenameCharacterData(blob *models.CurrentBlob, items []models.PitchedItem, oldName string, newName string, index models.CharacterID) (*models.CurrentBlob, []models.PitchedItem, int) {
	result := *blob
	moved := 0

	newKnown := blob.CharacterNames()[newName]
	characters := make([]models.Character, 0, len(blob.Characters))
	for _, character := range blob.Characters {
		if character.Name == oldName {
			moved++
			if newKnown {
				continue
			}
			character.Name = newName
			newKnown = true
		}
		characters = append(characters, character)
	}
	result.Characters = characters

	oldKey := fmt.Sprintf("%s-%d", oldName, index)
	newKey := fmt.Sprintf("%s-%d", newName, index)
	history := make(map[models.WeekKey]models.WeekEntry, len(blob.WeeklyBossClearHistory))
	for week, entry := range blob.WeeklyBossClearHistory {
		bosses, ok := entry.BossClearStatus[oldKey]
		if !ok {
			history[week] = entry
			continue
		}
		status := make(models.ClearStatus, len(entry.BossClearStatus))
		for key, value := range entry.BossClearStatus {
			if key != oldKey {
				status[key] = value
			}
		}
		merged := make(map[string]bool, len(bosses)+len(status[newKey]))
		for boss, cleared := range status[newKey] {
			merged[boss] = cleared
		}
		for boss, cleared := range bosses {
			merged[boss] = merged[boss] || cleared
		}
		status[newKey] = merged
		history[week] = models.WeekEntry{WeekKey: entry.WeekKey, BossClearStatus: status}
		moved++
	}
	if blob.WeeklyBossClearHistory != nil {
		result.WeeklyBossClearHistory = history
	}

	renamed := make([]models.PitchedItem, len(items))
	for i, item := range items {
		if item.Character == oldName {
			item.Character = newName
			moved++
		}
		renamed[i] = item
	}
	return &result, renamed, moved
}

// characterNameFromKey returns everything before the last hyphen of a
// "{name}-{index}" status key.
func characterNameFromKey(key string) string {
	i := strings.LastIndex(key, "-")
	if i < 0 {
		return ""
	}
	return key[:i]
}

func copyClearStatus(status models.ClearStatus) models.ClearStatus {
	copied := make(models.ClearStatus, len(status))
	for key, bosses := range status {
		inner := make(map[string]bool, len(bosses))
		for boss, cleared := range bosses {
			inner[boss] = cleared
		}
		copied[key] = inner
	}
	return copied
}

func mergeClearStatus(into models.ClearStatus, from models.ClearStatus) {
	for key, bosses := range from {
		inner, ok := into[key]
		if !ok {
			inner = make(map[string]bool, len(bosses))
			into[key] = inner
		}
		for boss, cleared := range bosses {
			inner[boss] = inner[boss] || cleared
		}
	}
}
