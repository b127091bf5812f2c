package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nv0110/bosstracker/internal/bossconfig"
	"github.com/nv0110/bosstracker/internal/models"
	"github.com/nv0110/bosstracker/internal/repository"
	"github.com/nv0110/bosstracker/internal/weekclock"
)

// WeeklyService owns every read and write of weekly records. Writes are
// read-merge-write with last-write-wins semantics unless strict versioning is on.
type WeeklyService struct {
	records  repository.WeeklyRecordRepository
	registry repository.BossRegistryRepository
	strict   bool
}

func NewWeeklyService(records repository.WeeklyRecordRepository, registry repository.BossRegistryRepository) *WeeklyService {
	return &WeeklyService{
		records:  records,
		registry: registry,
	}
}

// WithStrictVersioning makes every write fail with ErrConflict when the row
// changed between the read and the write.
func (service *WeeklyService) WithStrictVersioning(strict bool) *WeeklyService {
	service.strict = strict
	return service
}

func (service *WeeklyService) StrictVersioning() bool {
	return service.strict
}

func (service *WeeklyService) Fetch(ctx context.Context, userID string, weekStart models.WeekKey) (*models.WeeklyRecord, error) {
	if err := checkUserWeek(userID, weekStart); err != nil {
		return nil, err
	}
	return service.load(ctx, userID, weekStart)
}

func (service *WeeklyService) Upsert(ctx context.Context, userID string, weekStart models.WeekKey, update models.WeeklyRecordUpdate) error {
	if err := checkUserWeek(userID, weekStart); err != nil {
		return err
	}
	if service.strict && update.ExpectedVersion == nil {
		current, err := service.load(ctx, userID, weekStart)
		if err != nil {
			return err
		}
		return service.write(ctx, current, userID, weekStart, update)
	}
	_, err := service.upsert(ctx, userID, weekStart, update)
	return err
}

func (service *WeeklyService) ListWeeks(ctx context.Context, userID string) ([]models.WeekKey, error) {
	if userID == "" {
		return nil, ErrMissingParameters
	}
	weeks, err := service.records.ListWeeks(ctx, userID)
	if err != nil {
		return nil, storeError("listing weeks", err)
	}
	return weeks, nil
}

func (service *WeeklyService) AddCharacter(ctx context.Context, userID string, weekStart models.WeekKey, name string) (models.CharacterID, error) {
	name = strings.TrimSpace(name)
	if err := checkUserWeek(userID, weekStart); err != nil {
		return 0, err
	}
	if name == "" {
		return 0, ErrMissingParameters
	}

	current, err := service.load(ctx, userID, weekStart)
	if err != nil {
		return 0, err
	}
	record := models.NewWeeklyRecord(userID, weekStart)
	if current != nil {
		record = *current
	}

	if _, taken := findByName(record.CharMap, name, nil); taken {
		return 0, fmt.Errorf("%w: a character named %q already exists", ErrDuplicateName, name)
	}

	id := nextCharacterID(record)
	charMap := copyIDMap(record.CharMap)
	bossConfig := copyIDMap(record.BossConfig)
	weeklyClears := copyIDMap(record.WeeklyClears)
	charMap[id] = name
	bossConfig[id] = ""
	weeklyClears[id] = ""
	nextID := id + 1

	err = service.write(ctx, current, userID, weekStart, models.WeeklyRecordUpdate{
		CharMap:      charMap,
		BossConfig:   bossConfig,
		WeeklyClears: weeklyClears,
		NextID:       &nextID,
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// RemoveCharacter drops the id from all three maps. Remaining ids keep their values.
func (service *WeeklyService) RemoveCharacter(ctx context.Context, userID string, weekStart models.WeekKey, id models.CharacterID) error {
	record, err := service.loadCharacter(ctx, userID, weekStart, id)
	if err != nil {
		return err
	}

	charMap := copyIDMap(record.CharMap)
	bossConfig := copyIDMap(record.BossConfig)
	weeklyClears := copyIDMap(record.WeeklyClears)
	delete(charMap, id)
	delete(bossConfig, id)
	delete(weeklyClears, id)

	nextID := nextCharacterID(*record)
	return service.write(ctx, record, userID, weekStart, models.WeeklyRecordUpdate{
		CharMap:      charMap,
		BossConfig:   bossConfig,
		WeeklyClears: weeklyClears,
		NextID:       &nextID,
	})
}

func (service *WeeklyService) RenameCharacter(ctx context.Context, userID string, weekStart models.WeekKey, id models.CharacterID, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrMissingParameters
	}
	record, err := service.loadCharacter(ctx, userID, weekStart, id)
	if err != nil {
		return err
	}

	if _, taken := findByName(record.CharMap, newName, &id); taken {
		return fmt.Errorf("%w: a character named %q already exists", ErrDuplicateName, newName)
	}

	charMap := copyIDMap(record.CharMap)
	charMap[id] = newName
	return service.write(ctx, record, userID, weekStart, models.WeeklyRecordUpdate{CharMap: charMap})
}

func (service *WeeklyService) SetBossConfig(ctx context.Context, userID string, weekStart models.WeekKey, id models.CharacterID, config string) error {
	if err := checkUserWeek(userID, weekStart); err != nil {
		return err
	}
	if strings.TrimSpace(config) != "" {
		registry, err := service.loadRegistry(ctx)
		if err != nil {
			return err
		}
		if err := bossconfig.Validate(config, registry); err != nil {
			return err
		}
	} else {
		config = ""
	}

	record, err := service.loadCharacter(ctx, userID, weekStart, id)
	if err != nil {
		return err
	}

	bossConfig := copyIDMap(record.BossConfig)
	bossConfig[id] = config
	return service.write(ctx, record, userID, weekStart, models.WeeklyRecordUpdate{BossConfig: bossConfig})
}

// SetWeeklyClears replaces a character's clears. Unknown codes are reported together.
func (service *WeeklyService) SetWeeklyClears(ctx context.Context, userID string, weekStart models.WeekKey, id models.CharacterID, clears string) error {
	if err := checkUserWeek(userID, weekStart); err != nil {
		return err
	}
	codes := uniqueCodes(bossconfig.SplitClears(clears))
	if len(codes) > 0 {
		registry, err := service.loadRegistry(ctx)
		if err != nil {
			return err
		}
		if err := bossconfig.ValidateCodes(codes, registry); err != nil {
			return err
		}
	}

	record, err := service.loadCharacter(ctx, userID, weekStart, id)
	if err != nil {
		return err
	}
	return service.writeClears(ctx, record, id, bossconfig.JoinClears(codes))
}

// ToggleBossClear adds or removes one code. Repeating a toggle is a no-op.
func (service *WeeklyService) ToggleBossClear(ctx context.Context, userID string, weekStart models.WeekKey, id models.CharacterID, bossCode string, cleared bool) error {
	bossCode = strings.TrimSpace(bossCode)
	if bossCode == "" {
		return ErrMissingParameters
	}
	record, err := service.loadCharacter(ctx, userID, weekStart, id)
	if err != nil {
		return err
	}

	codes := bossconfig.SplitClears(record.WeeklyClears[id])
	present := false
	for _, code := range codes {
		if code == bossCode {
			present = true
			break
		}
	}

	switch {
	case cleared && !present:
		codes = append(codes, bossCode)
	case !cleared && present:
		kept := codes[:0]
		for _, code := range codes {
			if code != bossCode {
				kept = append(kept, code)
			}
		}
		codes = kept
	default:
		return nil
	}
	return service.writeClears(ctx, record, id, bossconfig.JoinClears(uniqueCodes(codes)))
}

func (service *WeeklyService) ClearAllForCharacter(ctx context.Context, userID string, weekStart models.WeekKey, id models.CharacterID) error {
	record, err := service.loadCharacter(ctx, userID, weekStart, id)
	if err != nil {
		return err
	}
	return service.writeClears(ctx, record, id, "")
}

// MarkAllForCharacter marks every boss in the character's config as cleared.
func (service *WeeklyService) MarkAllForCharacter(ctx context.Context, userID string, weekStart models.WeekKey, id models.CharacterID) error {
	record, err := service.loadCharacter(ctx, userID, weekStart, id)
	if err != nil {
		return err
	}
	codes, err := bossconfig.Codes(record.BossConfig[id])
	if err != nil {
		return err
	}
	return service.writeClears(ctx, record, id, bossconfig.JoinClears(uniqueCodes(codes)))
}

// CopyCharactersForward seeds the target week with the source week's characters
// and boss configs and no clears. An existing target record is left alone.
func (service *WeeklyService) CopyCharactersForward(ctx context.Context, userID string, from models.WeekKey, to models.WeekKey) (*models.WeeklyRecord, error) {
	if err := checkUserWeek(userID, from); err != nil {
		return nil, err
	}
	if err := checkUserWeek(userID, to); err != nil {
		return nil, err
	}

	target, err := service.load(ctx, userID, to)
	if err != nil {
		return nil, err
	}
	if target != nil {
		return target, nil
	}

	source, err := service.load(ctx, userID, from)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("%w: no record for week %s", ErrNotFound, from)
	}

	weeklyClears := make(map[models.CharacterID]string, len(source.CharMap))
	for id := range source.CharMap {
		weeklyClears[id] = ""
	}
	nextID := nextCharacterID(*source)
	update := models.WeeklyRecordUpdate{
		CharMap:      copyIDMap(source.CharMap),
		BossConfig:   copyIDMap(source.BossConfig),
		WeeklyClears: weeklyClears,
		NextID:       &nextID,
	}
	if service.strict {
		fresh := 0
		update.ExpectedVersion = &fresh
	}
	saved, err := service.upsert(ctx, userID, to, update)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (service *WeeklyService) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, ErrMissingParameters
	}
	deleted, err := service.records.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, storeError("deleting weekly records", err)
	}
	return deleted, nil
}

func (service *WeeklyService) load(ctx context.Context, userID string, weekStart models.WeekKey) (*models.WeeklyRecord, error) {
	record, err := service.records.Find(ctx, userID, weekStart)
	if err != nil {
		return nil, storeError("loading weekly record", err)
	}
	return record, nil
}

func (service *WeeklyService) loadCharacter(ctx context.Context, userID string, weekStart models.WeekKey, id models.CharacterID) (*models.WeeklyRecord, error) {
	if err := checkUserWeek(userID, weekStart); err != nil {
		return nil, err
	}
	record, err := service.load(ctx, userID, weekStart)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: no record for week %s", ErrNotFound, weekStart)
	}
	if _, ok := record.CharMap[id]; !ok {
		return nil, fmt.Errorf("%w: character %d", ErrNotFound, id)
	}
	return record, nil
}

func (service *WeeklyService) loadRegistry(ctx context.Context) ([]models.BossRegistryEntry, error) {
	registry, err := service.registry.FindAll(ctx)
	if err != nil {
		return nil, storeError("loading boss registry", err)
	}
	return registry, nil
}

func (service *WeeklyService) writeClears(ctx context.Context, record *models.WeeklyRecord, id models.CharacterID, clears string) error {
	weeklyClears := copyIDMap(record.WeeklyClears)
	weeklyClears[id] = clears
	return service.write(ctx, record, record.UserID, record.WeekStart, models.WeeklyRecordUpdate{WeeklyClears: weeklyClears})
}

// write upserts a change computed from current, which is nil when the week had
// no row when it was read.
func (service *WeeklyService) write(ctx context.Context, current *models.WeeklyRecord, userID string, weekStart models.WeekKey, update models.WeeklyRecordUpdate) error {
	if service.strict {
		version := 0
		if current != nil {
			version = current.Version
		}
		update.ExpectedVersion = &version
	}
	_, err := service.upsert(ctx, userID, weekStart, update)
	return err
}

func (service *WeeklyService) upsert(ctx context.Context, userID string, weekStart models.WeekKey, update models.WeeklyRecordUpdate) (models.WeeklyRecord, error) {
	saved, err := service.records.Upsert(ctx, userID, weekStart, update)
	if errors.Is(err, repository.ErrVersionConflict) {
		return models.WeeklyRecord{}, fmt.Errorf("%w: week %s", ErrConflict, weekStart)
	}
	if err != nil {
		return models.WeeklyRecord{}, storeError("saving weekly record", err)
	}
	return saved, nil
}

func checkUserWeek(userID string, weekStart models.WeekKey) error {
	if userID == "" || weekStart == "" {
		return ErrMissingParameters
	}
	if !weekclock.IsValidWeekStart(string(weekStart)) {
		return fmt.Errorf("%w: %q", ErrInvalidWeekStart, weekStart)
	}
	return nil
}

// nextCharacterID never hands out an id that the record has used before.
func nextCharacterID(record models.WeeklyRecord) models.CharacterID {
	next := record.NextID
	for id := range record.CharMap {
		if id+1 > next {
			next = id + 1
		}
	}
	return next
}

func findByName(charMap map[models.CharacterID]string, name string, exclude *models.CharacterID) (models.CharacterID, bool) {
	for id, existing := range charMap {
		if exclude != nil && id == *exclude {
			continue
		}
		if strings.EqualFold(existing, name) {
			return id, true
		}
	}
	return 0, false
}

func copyIDMap(values map[models.CharacterID]string) map[models.CharacterID]string {
	copied := make(map[models.CharacterID]string, len(values))
	for id, value := range values {
		copied[id] = value
	}
	return copied
}

func uniqueCodes(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	unique := make([]string, 0, len(codes))
	for _, code := range codes {
		if !seen[code] {
			seen[code] = true
			unique = append(unique, code)
		}
	}
	return unique
}
