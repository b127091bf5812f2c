package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nv0110/bosstracker/internal/weekclock"
)

func TestWeekCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"week", "--offset", "-1"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("running week: %v", err)
	}

	fields := strings.Fields(out.String())
	if len(fields) != 2 {
		t.Fatalf("expected start and end, got %q", out.String())
	}
	if fields[0] != string(weekclock.WeekStartWithOffset(-1)) {
		t.Errorf("expected last week's start, got %s", fields[0])
	}
	if !weekclock.IsValidWeekStart(fields[0]) {
		t.Errorf("expected a Thursday, got %s", fields[0])
	}
}
