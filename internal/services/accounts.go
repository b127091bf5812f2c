package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nv0110/bosstracker/internal/models"
	"github.com/nv0110/bosstracker/internal/repository"
)

type LoadResult struct {
	Blob         *models.CurrentBlob  `json:"data"`
	PitchedItems []models.PitchedItem `json:"pitchedItems"`
	Migrated     bool                 `json:"migrated"`
	Cleanup      CleanupStats         `json:"cleanup"`
}

// AccountService runs the whole-account flows: loading and reconciling the data
// blob, deleting a character everywhere it is referenced, and account deletion.
type AccountService struct {
	userData repository.UserDataRepository
	accounts repository.AccountRepository
	weekly   *WeeklyService
}

func NewAccountService(
	userData repository.UserDataRepository,
	accounts repository.AccountRepository,
	weekly *WeeklyService,
) *AccountService {
	return &AccountService{
		userData: userData,
		accounts: accounts,
		weekly:   weekly,
	}
}

// Load returns the user's blob in the current shape. A legacy blob is migrated and
// written back. Characters found in weekly records are added to the blob before
// orphaned clear status and pitched items are dropped.
func (service *AccountService) Load(ctx context.Context, userID string) (LoadResult, error) {
	if userID == "" {
		return LoadResult{}, ErrMissingParameters
	}
	now := time.Now().UTC()

	userData, err := service.userData.Find(ctx, userID)
	if err != nil {
		return LoadResult{}, storeError("loading user data", err)
	}
	raw := []byte(nil)
	items := []models.PitchedItem{}
	if userData != nil {
		raw = userData.Data
		items = userData.PitchedItems
	}

	decoded, err := DecodeBlob(raw)
	if err != nil {
		return LoadResult{}, err
	}

	var result LoadResult
	blob := Upgrade(decoded, now)
	if decoded.Shape() == models.ShapeLegacy {
		result.Migrated = true
		slog.Info("migrated legacy user data", "user_id", userID, "weeks", len(blob.WeeklyBossClearHistory))
		if err := service.saveBlob(ctx, userID, blob); err != nil {
			slog.Warn("saving migrated user data", "user_id", userID, "error", err)
		}
	}

	weekChanged := EnsureCurrentWeek(blob, now)
	names, err := service.recordedCharacterNames(ctx, userID)
	if err != nil {
		return LoadResult{}, err
	}
	synced := SyncCharacters(blob, names)
	blob, items, result.Cleanup = CleanupOrphanedCharacterData(blob, items)
	if result.Cleanup.Changed() {
		slog.Info("removed orphaned character data",
			"user_id", userID,
			"clear_entries", result.Cleanup.ClearEntriesRemoved,
			"weeks", result.Cleanup.WeeksAffected,
			"pitched_items", result.Cleanup.PitchedItemsRemoved,
		)
	}
	if weekChanged || synced || result.Cleanup.Changed() {
		if err := service.save(ctx, userID, blob, items); err != nil {
			slog.Warn("saving reconciled user data", "user_id", userID, "error", err)
		}
	}

	result.Blob = blob
	result.PitchedItems = items
	return result, nil
}

func (service *AccountService) SaveBlob(ctx context.Context, userID string, blob *models.CurrentBlob) error {
	if userID == "" || blob == nil {
		return ErrMissingParameters
	}
	return service.saveBlob(ctx, userID, blob)
}

// PurgeLegacy drops the retained legacy fields. The blob must already be stored in
// the current shape.
func (service *AccountService) PurgeLegacy(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, ErrMissingParameters
	}
	userData, err := service.userData.Find(ctx, userID)
	if err != nil {
		return false, storeError("loading user data", err)
	}
	if userData == nil {
		return false, fmt.Errorf("%w: no data for user %s", ErrNotFound, userID)
	}

	decoded, err := DecodeBlob(userData.Data)
	if err != nil {
		return false, err
	}
	blob, ok := decoded.(*models.CurrentBlob)
	if !ok {
		return false, fmt.Errorf("%w: user data has not been migrated yet", ErrConflict)
	}
	if !PurgeLegacyFields(blob) {
		return false, nil
	}
	if err := service.saveBlob(ctx, userID, blob); err != nil {
		return false, err
	}
	slog.Info("purged legacy fields", "user_id", userID)
	return true, nil
}

// RenameCharacter renames the character in the week's record and moves its clear
// status keys and pitched items in the blob to the new name.
func (service *AccountService) RenameCharacter(ctx context.Context, userID string, weekStart models.WeekKey, id models.CharacterID, newName string) error {
	record, err := service.weekly.loadCharacter(ctx, userID, weekStart, id)
	if err != nil {
		return err
	}
	oldName := record.CharMap[id]

	if err := service.weekly.RenameCharacter(ctx, userID, weekStart, id, newName); err != nil {
		return err
	}
	newName = strings.TrimSpace(newName)
	if newName == oldName {
		return nil
	}

	userData, err := service.userData.Find(ctx, userID)
	if err != nil {
		return storeError("loading user data", err)
	}
	if userData == nil {
		return nil
	}
	decoded, err := DecodeBlob(userData.Data)
	if err != nil {
		return err
	}

	blob, items, moved := RenameCharacterData(Upgrade(decoded, time.Now()), userData.PitchedItems, oldName, newName, id)
	if moved == 0 {
		return nil
	}
	slog.Info("renamed character data", "user_id", userID, "from", oldName, "to", newName, "references", moved)
	return service.save(ctx, userID, blob, items)
}

// DeleteCharacter removes the character from the week's record, then drops its
// name, clear status and pitched items from the blob. Blob data is kept while
// another week's record still has a character of that name.
func (service *AccountService) DeleteCharacter(ctx context.Context, userID string, weekStart models.WeekKey, id models.CharacterID) (CleanupStats, error) {
	record, err := service.weekly.loadCharacter(ctx, userID, weekStart, id)
	if err != nil {
		return CleanupStats{}, err
	}
	name := record.CharMap[id]

	if err := service.weekly.RemoveCharacter(ctx, userID, weekStart, id); err != nil {
		return CleanupStats{}, err
	}
	names, err := service.recordedCharacterNames(ctx, userID)
	if err != nil {
		return CleanupStats{}, err
	}
	for _, remaining := range names {
		if remaining == name {
			return CleanupStats{}, nil
		}
	}

	userData, err := service.userData.Find(ctx, userID)
	if err != nil {
		return CleanupStats{}, storeError("loading user data", err)
	}
	if userData == nil {
		return CleanupStats{}, nil
	}
	decoded, err := DecodeBlob(userData.Data)
	if err != nil {
		return CleanupStats{}, err
	}

	blob := Upgrade(decoded, time.Now())
	characters := make([]models.Character, 0, len(blob.Characters))
	for _, character := range blob.Characters {
		if character.Name != name {
			characters = append(characters, character)
		}
	}
	blob.Characters = characters

	blob, items, stats := CleanupDeletedCharacterData(blob, userData.PitchedItems, name, id)
	if err := service.save(ctx, userID, blob, items); err != nil {
		return CleanupStats{}, err
	}
	return stats, nil
}

func (service *AccountService) DeleteAccount(ctx context.Context, userID string) (repository.DeletedAccount, error) {
	if userID == "" {
		return repository.DeletedAccount{}, ErrMissingParameters
	}
	deleted, err := service.accounts.DeleteUser(ctx, userID)
	if err != nil {
		return repository.DeletedAccount{}, storeError("deleting account", err)
	}
	slog.Info("deleted account",
		"user_id", userID,
		"weekly_records", deleted.WeeklyRecords,
		"tokens", deleted.Tokens,
	)
	return deleted, nil
}

// recordedCharacterNames lists the distinct character names across all of the
// user's weekly records, sorted.
func (service *AccountService) recordedCharacterNames(ctx context.Context, userID string) ([]string, error) {
	weeks, err := service.weekly.ListWeeks(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, week := range weeks {
		record, err := service.weekly.load(ctx, userID, week)
		if err != nil {
			return nil, err
		}
		if record == nil {
			continue
		}
		for _, name := range record.CharMap {
			seen[name] = true
		}
	}
	return sortedKeys(seen), nil
}

func (service *AccountService) saveBlob(ctx context.Context, userID string, blob *models.CurrentBlob) error {
	data, err := encodeBlob(blob)
	if err != nil {
		return err
	}
	if err := service.userData.SaveData(ctx, userID, data); err != nil {
		return storeError("saving user data", err)
	}
	return nil
}

func (service *AccountService) save(ctx context.Context, userID string, blob *models.CurrentBlob, items []models.PitchedItem) error {
	data, err := encodeBlob(blob)
	if err != nil {
		return err
	}
	if err := service.userData.Save(ctx, userID, data, items); err != nil {
		return storeError("saving user data", err)
	}
	return nil
}

func encodeBlob(blob *models.CurrentBlob) ([]byte, error) {
	blob.LastUpdated = time.Now().UTC()
	data, err := json.Marshal(blob)
	if err != nil {
		return nil, fmt.Errorf("encoding user data: %w", err)
	}
	return data, nil
}
