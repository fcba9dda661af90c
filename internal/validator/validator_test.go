package validator

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/derekprior/cupleague/internal/config"
	"github.com/derekprior/cupleague/internal/excel"
	"github.com/derekprior/cupleague/internal/schedule"
	"github.com/xuri/excelize/v2"
)

const baseConfig = `
league: {name: Spring Cup}
teams: [Aces, Bandits, Comets, Dragons]
season:
  start_date: "2025-03-01"
schedule:
  strategy: %s
  start_time: "18:00"
  match_duration: 30
  tables: %d
  game_days: [%s]
`

func testConfig(t *testing.T, strat string, tables int, days string) *config.Config {
	t.Helper()
	yaml := fmt.Sprintf(baseConfig, strat, tables, days)
	cfg, err := config.LoadFromBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("LoadFromBytes() error: %v", err)
	}
	return cfg
}

// writeFixture generates a fixture for cfg and saves it as a workbook.
func writeFixture(t *testing.T, cfg *config.Config) string {
	t.Helper()
	matches, err := schedule.Generate(cfg.TeamRefs(), cfg.Plan(), schedule.WithRand(rand.New(rand.NewSource(7))))
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	f, err := excel.Generate(cfg.TeamRefs(), matches)
	if err != nil {
		t.Fatalf("excel.Generate() error: %v", err)
	}

	path := t.TempDir() + "/fixture.xlsx"
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}
	return path
}

// tamper rewrites cells of the master sheet.
func tamper(t *testing.T, path string, cells map[string]string) {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile error: %v", err)
	}
	defer f.Close()
	for cell, v := range cells {
		if err := f.SetCellValue(excel.MasterSheet, cell, v); err != nil {
			t.Fatalf("SetCellValue(%s) error: %v", cell, err)
		}
	}
	if err := f.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}
}

func cell(t *testing.T, path, ref string) string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile error: %v", err)
	}
	defer f.Close()
	v, _ := f.GetCellValue(excel.MasterSheet, ref)
	return v
}

func find(violations []Violation, typ, substr string) *Violation {
	for i, v := range violations {
		if v.Type == typ && strings.Contains(v.Message, substr) {
			return &violations[i]
		}
	}
	return nil
}

func mustValidate(t *testing.T, cfg *config.Config, path string) []Violation {
	t.Helper()
	violations, err := Validate(cfg, path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	return violations
}

func TestValidateGeneratedFixture(t *testing.T) {
	t.Run("double round robin", func(t *testing.T) {
		cfg := testConfig(t, "double_round_robin", 2, "{rounds: 3}, {rounds: 3}")
		violations := mustValidate(t, cfg, writeFixture(t, cfg))
		for _, v := range violations {
			t.Errorf("unexpected %s on row %d: %s", v.Type, v.Row, v.Message)
		}
	})

	t.Run("single round robin", func(t *testing.T) {
		cfg := testConfig(t, "single_round_robin", 2, "{rounds: 2}, {rounds: 1}")
		violations := mustValidate(t, cfg, writeFixture(t, cfg))
		for _, v := range violations {
			t.Errorf("unexpected %s on row %d: %s", v.Type, v.Row, v.Message)
		}
	})
}

func TestValidateUnderfilledFixture(t *testing.T) {
	cfg := testConfig(t, "double_round_robin", 2, "{rounds: 3}")
	violations := mustValidate(t, cfg, writeFixture(t, cfg))

	if find(violations, "warning", "6 of 12 pairings are not scheduled") == nil {
		t.Errorf("expected missing pairings warning, got %+v", violations)
	}
	for _, v := range violations {
		if v.Type == "error" {
			t.Errorf("unexpected error: %s", v.Message)
		}
	}
}

func TestValidateTamperedFixture(t *testing.T) {
	cfg := testConfig(t, "double_round_robin", 2, "{rounds: 3}, {rounds: 3}")

	t.Run("repeated game", func(t *testing.T) {
		path := writeFixture(t, cfg)
		tamper(t, path, map[string]string{"E3": cell(t, path, "E2")})

		violations := mustValidate(t, cfg, path)
		v := find(violations, "error", "scheduled 2 times")
		if v == nil {
			t.Fatalf("expected repeated pairing error, got %+v", violations)
		}
		if v.Row != 3 {
			t.Errorf("violation row = %d, want 3", v.Row)
		}
	})

	t.Run("team twice in a slot", func(t *testing.T) {
		path := writeFixture(t, cfg)
		home, _, _ := excel.ParseGameCell(cell(t, path, "E2"))
		_, away, _ := excel.ParseGameCell(cell(t, path, "F2"))
		tamper(t, path, map[string]string{"F2": excel.GameCell(away, home)})

		violations := mustValidate(t, cfg, path)
		if find(violations, "error", home+" plays 2 games in one slot") == nil {
			t.Errorf("expected double booking error, got %+v", violations)
		}
	})

	t.Run("round out of order", func(t *testing.T) {
		path := writeFixture(t, cfg)
		tamper(t, path, map[string]string{"D3": "1"})

		violations := mustValidate(t, cfg, path)
		if find(violations, "error", "round 1 follows round 1") == nil {
			t.Errorf("expected round order error, got %+v", violations)
		}
	})

	t.Run("unknown team", func(t *testing.T) {
		path := writeFixture(t, cfg)
		tamper(t, path, map[string]string{"E2": excel.GameCell("Aces", "Ghosts")})

		violations := mustValidate(t, cfg, path)
		if find(violations, "error", "Ghosts is not a league team") == nil {
			t.Errorf("expected unknown team error, got %+v", violations)
		}
	})

	t.Run("too many tables", func(t *testing.T) {
		path := writeFixture(t, cfg)
		narrow := testConfig(t, "double_round_robin", 1, "{rounds: 3}, {rounds: 3}")

		violations := mustValidate(t, narrow, path)
		if find(violations, "error", "fixture uses 2 tables (max 1)") == nil {
			t.Errorf("expected table bound error, got %+v", violations)
		}
	})

	t.Run("team without games", func(t *testing.T) {
		path := writeFixture(t, cfg)
		wide := testConfig(t, "double_round_robin", 2, "{rounds: 3}, {rounds: 3}")
		wide.Teams = append(wide.Teams, "Eagles")

		violations := mustValidate(t, wide, path)
		if find(violations, "error", "Eagles has no games scheduled") == nil {
			t.Errorf("expected completeness error, got %+v", violations)
		}
	})
}

func TestValidateMissingFile(t *testing.T) {
	cfg := testConfig(t, "double_round_robin", 2, "{rounds: 3}")
	if _, err := Validate(cfg, t.TempDir()+"/missing.xlsx"); err == nil {
		t.Error("expected error for missing file")
	}
}
