package bossconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nv0110/bosstracker/internal/models"
)

var (
	ErrUnknownBossCode      = errors.New("unknown boss code")
	ErrBossDisabled         = errors.New("boss disabled")
	ErrCrystalValueMismatch = errors.New("crystal value mismatch")
	ErrInvalidPartySize     = errors.New("invalid party size")
)

// ValidationError is a registry check failure. Error() is safe to show to users.
type ValidationError struct {
	Kind     error
	Code     string
	Codes    []string
	Value    int64
	Expected int64
	Max      int
}

func (err *ValidationError) Error() string {
	switch err.Kind {
	case ErrUnknownBossCode:
		if len(err.Codes) > 1 {
			return fmt.Sprintf("Unknown boss codes: %s.", strings.Join(err.Codes, ", "))
		}
		return fmt.Sprintf("Unknown boss code: %s.", err.Code)
	case ErrBossDisabled:
		return fmt.Sprintf("Boss %s is currently disabled.", err.Code)
	case ErrCrystalValueMismatch:
		return fmt.Sprintf("Invalid crystal value for %s. Expected %d, got %d.", err.Code, err.Expected, err.Value)
	case ErrInvalidPartySize:
		return fmt.Sprintf("Invalid party size for %s. Must be between 1 and %d.", err.Code, err.Max)
	default:
		return fmt.Sprintf("invalid boss %s", err.Code)
	}
}

func (err *ValidationError) Unwrap() error {
	return err.Kind
}

// Lookup finds a registry entry by its bare code or by "code-difficulty".
func Lookup(code string, registry []models.BossRegistryEntry) (models.BossRegistryEntry, bool) {
	for _, entry := range registry {
		if entry.BossCode == code || entry.BossCode+"-"+entry.DifficultyCode == code {
			return entry, true
		}
	}
	return models.BossRegistryEntry{}, false
}

// Validate checks every entry of a config string and stops at the first failure.
func Validate(config string, registry []models.BossRegistryEntry) error {
	entries, err := Parse(config)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		registered, ok := Lookup(entry.BossCode, registry)
		if !ok {
			return &ValidationError{Kind: ErrUnknownBossCode, Code: entry.BossCode, Codes: []string{entry.BossCode}}
		}
		if !registered.Enabled {
			return &ValidationError{Kind: ErrBossDisabled, Code: entry.BossCode}
		}
		if entry.CrystalValue != registered.CrystalValue {
			return &ValidationError{
				Kind:     ErrCrystalValueMismatch,
				Code:     entry.BossCode,
				Value:    entry.CrystalValue,
				Expected: registered.CrystalValue,
			}
		}
		if entry.PartySize < 1 || entry.PartySize > registered.MaxPartySize {
			return &ValidationError{Kind: ErrInvalidPartySize, Code: entry.BossCode, Max: registered.MaxPartySize}
		}
	}
	return nil
}

// ValidateCodes reports every code missing from the registry at once.
func ValidateCodes(codes []string, registry []models.BossRegistryEntry) error {
	var unknown []string
	for _, code := range codes {
		if _, ok := Lookup(code, registry); !ok {
			unknown = append(unknown, code)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	return &ValidationError{Kind: ErrUnknownBossCode, Code: unknown[0], Codes: unknown}
}
