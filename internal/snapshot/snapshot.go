// Package snapshot reads and writes league snapshots and fixtures as JSON,
// YAML or MessagePack files, chosen by file extension.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/derekprior/cupleague/internal/schedule"
	"github.com/derekprior/cupleague/internal/standings"
	"github.com/derekprior/cupleague/internal/team"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// League is everything the standings engine needs for one league.
type League struct {
	LeagueID string            `json:"leagueId,omitempty" yaml:"league_id,omitempty" msgpack:"league_id,omitempty"`
	Teams    []team.Ref        `json:"teams" yaml:"teams" msgpack:"teams"`
	Matches  []standings.Match `json:"matches" yaml:"matches" msgpack:"matches"`
}

// Fixture is a generated schedule as written by `schedule generate`.
type Fixture struct {
	Teams   []team.Ref       `json:"teams" yaml:"teams" msgpack:"teams"`
	Matches []schedule.Match `json:"matches" yaml:"matches" msgpack:"matches"`
}

// Format is a snapshot encoding.
type Format string

const (
	JSON    Format = "json"
	YAML    Format = "yaml"
	MsgPack Format = "msgpack"
)

// FormatFor picks the encoding from a file name.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	case ".msgpack", ".mp":
		return MsgPack, nil
	default:
		return "", fmt.Errorf("unsupported snapshot extension %q", filepath.Ext(path))
	}
}

// Marshal encodes v in the given format.
func Marshal(f Format, v any) ([]byte, error) {
	switch f {
	case JSON:
		return json.MarshalIndent(v, "", "  ")
	case YAML:
		return yaml.Marshal(v)
	case MsgPack:
		return msgpack.Marshal(v)
	default:
		return nil, fmt.Errorf("unknown snapshot format %q", f)
	}
}

// Unmarshal decodes data in the given format into v.
func Unmarshal(f Format, data []byte, v any) error {
	switch f {
	case JSON:
		return json.Unmarshal(data, v)
	case YAML:
		return yaml.Unmarshal(data, v)
	case MsgPack:
		return msgpack.Unmarshal(data, v)
	default:
		return fmt.Errorf("unknown snapshot format %q", f)
	}
}

// Save writes v to path in the format its extension names.
func Save(path string, v any) error {
	f, err := FormatFor(path)
	if err != nil {
		return err
	}
	data, err := Marshal(f, v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Load reads path into v in the format its extension names.
func Load(path string, v any) error {
	f, err := FormatFor(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := Unmarshal(f, data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// LoadLeague reads a league snapshot file.
func LoadLeague(path string) (*League, error) {
	var l League
	if err := Load(path, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// LoadFixture reads a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	var f Fixture
	if err := Load(path, &f); err != nil {
		return nil, err
	}
	return &f, nil
}
