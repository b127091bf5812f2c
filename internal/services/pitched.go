package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nv0110/bosstracker/internal/models"
	"github.com/nv0110/bosstracker/internal/repository"
	"github.com/nv0110/bosstracker/internal/weekclock"
)

type PitchedItemInput struct {
	Character string         `json:"character"`
	Boss      string         `json:"boss"`
	Item      string         `json:"item"`
	Date      *time.Time     `json:"date,omitempty"`
	WeekKey   models.WeekKey `json:"weekKey,omitempty"`
}

type YearlyStats struct {
	Year       int                  `json:"year"`
	Total      int                  `json:"total"`
	Characters []string             `json:"characters"`
	Bosses     []string             `json:"bosses"`
	Items      []models.PitchedItem `json:"items"`
}

// PitchedItemService manages the flat pitched item list stored alongside each
// user's data blob.
type PitchedItemService struct {
	userData repository.UserDataRepository
}

func NewPitchedItemService(userData repository.UserDataRepository) *PitchedItemService {
	return &PitchedItemService{userData: userData}
}

func (service *PitchedItemService) Add(ctx context.Context, userID string, input PitchedItemInput) (models.PitchedItem, error) {
	if userID == "" {
		return models.PitchedItem{}, ErrMissingParameters
	}
	input.Character = strings.TrimSpace(input.Character)
	input.Boss = strings.TrimSpace(input.Boss)
	input.Item = strings.TrimSpace(input.Item)
	if input.Character == "" || input.Boss == "" || input.Item == "" {
		return models.PitchedItem{}, ErrMissingFields
	}

	date := time.Now().UTC()
	if input.Date != nil {
		date = input.Date.UTC()
	}
	weekKey := input.WeekKey
	if weekKey == "" {
		weekKey = weekclock.StartOf(date)
	} else if !weekclock.IsValidWeekStart(string(weekKey)) {
		return models.PitchedItem{}, fmt.Errorf("%w: %q", ErrInvalidWeekStart, weekKey)
	}

	items, err := service.load(ctx, userID)
	if err != nil {
		return models.PitchedItem{}, err
	}

	taken := make(map[string]bool, len(items))
	for _, existing := range items {
		taken[existing.ID] = true
	}
	id := newPitchedItemID(userID, time.Now())
	for taken[id] {
		id = newPitchedItemID(userID, time.Now())
	}

	item := models.PitchedItem{
		ID:        id,
		Character: input.Character,
		Boss:      input.Boss,
		Item:      input.Item,
		Date:      date,
		WeekKey:   weekKey,
		UserID:    userID,
	}
	if err := service.save(ctx, userID, append(items, item)); err != nil {
		return models.PitchedItem{}, err
	}
	return item, nil
}

func (service *PitchedItemService) Remove(ctx context.Context, userID string, itemID string) error {
	if userID == "" || itemID == "" {
		return ErrMissingParameters
	}
	items, err := service.load(ctx, userID)
	if err != nil {
		return err
	}

	kept, removed := filterItems(items, func(item models.PitchedItem) bool { return item.ID == itemID })
	if removed == 0 {
		return fmt.Errorf("%w: pitched item %s", ErrNotFound, itemID)
	}
	return service.save(ctx, userID, kept)
}

// RemoveMany removes every item whose id is in itemIDs. Ids that do not match are
// ignored as long as at least one does.
func (service *PitchedItemService) RemoveMany(ctx context.Context, userID string, itemIDs []string) (int, error) {
	if userID == "" || len(itemIDs) == 0 {
		return 0, ErrMissingParameters
	}
	wanted := make(map[string]bool, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = true
	}

	items, err := service.load(ctx, userID)
	if err != nil {
		return 0, err
	}
	kept, removed := filterItems(items, func(item models.PitchedItem) bool { return wanted[item.ID] })
	if removed == 0 {
		return 0, ErrNoneMatched
	}
	if err := service.save(ctx, userID, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// ListForWeek returns the items recorded for weekKey, or every item when weekKey is empty.
func (service *PitchedItemService) ListForWeek(ctx context.Context, userID string, weekKey models.WeekKey) ([]models.PitchedItem, error) {
	if userID == "" {
		return nil, ErrMissingParameters
	}
	items, err := service.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if weekKey == "" {
		return items, nil
	}

	matched := []models.PitchedItem{}
	for _, item := range items {
		if item.WeekKey == weekKey {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

// ClearForWeek succeeds with a zero count when the week had no items.
func (service *PitchedItemService) ClearForWeek(ctx context.Context, userID string, weekKey models.WeekKey) (int, error) {
	if userID == "" || weekKey == "" {
		return 0, ErrMissingParameters
	}
	items, err := service.load(ctx, userID)
	if err != nil {
		return 0, err
	}
	kept, removed := filterItems(items, func(item models.PitchedItem) bool { return item.WeekKey == weekKey })
	if removed == 0 {
		return 0, nil
	}
	if err := service.save(ctx, userID, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// YearlyStats aggregates the items dated in year. A zero year means the current one.
func (service *PitchedItemService) YearlyStats(ctx context.Context, userID string, year int) (YearlyStats, error) {
	if userID == "" {
		return YearlyStats{}, ErrMissingParameters
	}
	if year == 0 {
		year = time.Now().UTC().Year()
	}
	items, err := service.load(ctx, userID)
	if err != nil {
		return YearlyStats{}, err
	}

	stats := YearlyStats{Year: year, Characters: []string{}, Bosses: []string{}, Items: []models.PitchedItem{}}
	characters := map[string]bool{}
	bosses := map[string]bool{}
	for _, item := range items {
		if item.Date.UTC().Year() != year {
			continue
		}
		stats.Items = append(stats.Items, item)
		characters[item.Character] = true
		bosses[item.Boss] = true
	}
	stats.Total = len(stats.Items)
	stats.Characters = sortedKeys(characters)
	stats.Bosses = sortedKeys(bosses)
	return stats, nil
}

func (service *PitchedItemService) PurgeAll(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, ErrMissingParameters
	}
	items, err := service.load(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := service.save(ctx, userID, []models.PitchedItem{}); err != nil {
		return 0, err
	}
	return len(items), nil
}

func (service *PitchedItemService) load(ctx context.Context, userID string) ([]models.PitchedItem, error) {
	userData, err := service.userData.Find(ctx, userID)
	if err != nil {
		return nil, storeError("loading pitched items", err)
	}
	if userData == nil {
		return []models.PitchedItem{}, nil
	}
	return userData.PitchedItems, nil
}

func (service *PitchedItemService) save(ctx context.Context, userID string, items []models.PitchedItem) error {
	if err := service.userData.SavePitchedItems(ctx, userID, items); err != nil {
		return storeError("saving pitched items", err)
	}
	return nil
}

func newPitchedItemID(userID string, at time.Time) string {
	return fmt.Sprintf("%s-%d-%s", userID, at.UnixMilli(), uuid.NewString()[:8])
}

func filterItems(items []models.PitchedItem, drop func(models.PitchedItem) bool) ([]models.PitchedItem, int) {
	kept := make([]models.PitchedItem, 0, len(items))
	for _, item := range items {
		if !drop(item) {
			kept = append(kept, item)
		}
	}
	return kept, len(items) - len(kept)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
