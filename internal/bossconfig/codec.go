// Package bossconfig reads and writes the compact per-character boss selection
// string "code:crystalValue:partySize,..." and checks it against the boss registry.
package bossconfig

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	entrySeparator = ","
	fieldSeparator = ":"
)

var ErrMalformedConfig = errors.New("malformed boss config")

type Entry struct {
	BossCode     string `json:"bossCode"`
	CrystalValue int64  `json:"crystalValue"`
	PartySize    int    `json:"partySize"`
}

type ParseError struct {
	Entry    string
	Position int
	Reason   string
}

func (err *ParseError) Error() string {
	return fmt.Sprintf("malformed boss config entry %d %q: %s", err.Position, err.Entry, err.Reason)
}

func (err *ParseError) Unwrap() error {
	return ErrMalformedConfig
}

// Parse decodes a config string. A blank string is an empty selection; any
// malformed entry fails the whole string.
func Parse(config string) ([]Entry, error) {
	if strings.TrimSpace(config) == "" {
		return []Entry{}, nil
	}

	parts := strings.Split(config, entrySeparator)
	entries := make([]Entry, 0, len(parts))
	for position, part := range parts {
		fields := strings.Split(part, fieldSeparator)
		if len(fields) != 3 {
			return nil, &ParseError{Entry: part, Position: position, Reason: "expected code:crystalValue:partySize"}
		}
		if fields[0] == "" {
			return nil, &ParseError{Entry: part, Position: position, Reason: "empty boss code"}
		}
		crystalValue, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, &ParseError{Entry: part, Position: position, Reason: "crystal value is not an integer"}
		}
		partySize, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, &ParseError{Entry: part, Position: position, Reason: "party size is not an integer"}
		}
		entries = append(entries, Entry{BossCode: fields[0], CrystalValue: crystalValue, PartySize: partySize})
	}
	return entries, nil
}

func Serialize(entries []Entry) string {
	parts := make([]string, 0, len(entries))
	for _, entry := range entries {
		parts = append(parts, entry.BossCode+fieldSeparator+
			strconv.FormatInt(entry.CrystalValue, 10)+fieldSeparator+
			strconv.Itoa(entry.PartySize))
	}
	return strings.Join(parts, entrySeparator)
}

// Codes returns the boss codes selected in a config string, in order.
func Codes(config string) ([]string, error) {
	entries, err := Parse(config)
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(entries))
	for _, entry := range entries {
		codes = append(codes, entry.BossCode)
	}
	return codes, nil
}

// SplitClears turns a weekly clears string into its codes, skipping blanks.
func SplitClears(clears string) []string {
	var codes []string
	for _, code := range strings.Split(clears, entrySeparator) {
		code = strings.TrimSpace(code)
		if code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

func JoinClears(codes []string) string {
	return strings.Join(codes, entrySeparator)
}
