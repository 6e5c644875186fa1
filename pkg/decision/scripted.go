package decision

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/findings"
	"github.com/agentstation/ghostmerge/pkg/matcher"
)

// Script is a pre-recorded set of answers. IDs may be integers or strings.
//
//	orphan_passes: 2
//	matches:
//	  - {left: 1, right: 7, decision: accept}
//	fields:
//	  - {left: 1, right: 7, field: severity, decision: manual, value: Critical}
//	pairings:
//	  - {pass: 1, left: 4, right: 12}
type Script struct {
	OrphanPasses *int           `yaml:"orphan_passes" toml:"orphan_passes"`
	Matches      []MatchEntry   `yaml:"matches" toml:"matches"`
	Fields       []FieldEntry   `yaml:"fields" toml:"fields"`
	Pairings     []PairingEntry `yaml:"pairings" toml:"pairings"`
}

// MatchEntry answers DecideMatch for one pair.
type MatchEntry struct {
	Left     any    `yaml:"left" toml:"left"`
	Right    any    `yaml:"right" toml:"right"`
	Decision string `yaml:"decision" toml:"decision"`
	Reason   string `yaml:"reason,omitempty" toml:"reason,omitempty"`
}

// FieldEntry answers DecideField for one field of one pair.
type FieldEntry struct {
	Left     any    `yaml:"left" toml:"left"`
	Right    any    `yaml:"right" toml:"right"`
	Field    string `yaml:"field" toml:"field"`
	Decision string `yaml:"decision" toml:"decision"`
	Value    any    `yaml:"value,omitempty" toml:"value,omitempty"`
}

// PairingEntry is a manual pairing, optionally bound to one orphan pass.
type PairingEntry struct {
	Pass  int `yaml:"pass,omitempty" toml:"pass,omitempty"`
	Left  any `yaml:"left" toml:"left"`
	Right any `yaml:"right" toml:"right"`
}

// LoadScript reads a YAML or TOML script, chosen by file extension.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("decision script", path)
		}
		return nil, errors.WrapIO("read", path, err)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = "toml"
	}
	return ParseScript(data, format, path)
}

// ParseScript decodes a script in the given format ("yaml" or "toml").
func ParseScript(data []byte, format, source string) (*Script, error) {
	var s Script
	var err error
	switch format {
	case "toml":
		err = toml.Unmarshal(data, &s)
	default:
		err = yaml.Unmarshal(data, &s)
	}
	if err != nil {
		return nil, errors.WrapParse(format, source, err)
	}
	return &s, nil
}

type pairKey struct {
	left, right findings.ID
}

type fieldKey struct {
	pairKey
	field string
}

type scriptedPairing struct {
	pass int
	Pairing
}

// Scripted answers from a Script and defers everything the script does not
// cover to a fallback source.
type Scripted struct {
	matches      map[pairKey]MatchDecision
	fields       map[fieldKey]FieldDecision
	pairings     []scriptedPairing
	orphanPasses *int
	passes       int
	fallback     Source
}

// NewScripted validates a script. A nil fallback uses DefaultAutomated.
func NewScripted(script *Script, fallback Source) (*Scripted, error) {
	if fallback == nil {
		fallback = DefaultAutomated()
	}
	s := &Scripted{
		matches:      make(map[pairKey]MatchDecision),
		fields:       make(map[fieldKey]FieldDecision),
		orphanPasses: script.OrphanPasses,
		fallback:     fallback,
	}

	var problems errors.MultiError
	for i, e := range script.Matches {
		key, err := parsePair(e.Left, e.Right)
		if err != nil {
			problems.Append(errors.WrapValidation(entryName("matches", i), err))
			continue
		}
		action, err := ParseMatchAction(e.Decision)
		if err != nil {
			problems.Append(errors.WrapValidation(entryName("matches", i), err))
			continue
		}
		s.matches[key] = MatchDecision{Action: action, Reason: e.Reason}
	}
	for i, e := range script.Fields {
		key, err := parsePair(e.Left, e.Right)
		if err != nil {
			problems.Append(errors.WrapValidation(entryName("fields", i), err))
			continue
		}
		action, err := ParseFieldAction(e.Decision)
		if err != nil {
			problems.Append(errors.WrapValidation(entryName("fields", i), err))
			continue
		}
		if e.Field == "" {
			problems.Append(errors.NewValidationError(entryName("fields", i), e, "field is required"))
			continue
		}
		s.fields[fieldKey{pairKey: key, field: e.Field}] = FieldDecision{Action: action, Value: e.Value}
	}
	for i, e := range script.Pairings {
		key, err := parsePair(e.Left, e.Right)
		if err != nil {
			problems.Append(errors.WrapValidation(entryName("pairings", i), err))
			continue
		}
		s.pairings = append(s.pairings, scriptedPairing{
			pass:    e.Pass,
			Pairing: Pairing{LeftID: key.left, RightID: key.right},
		})
	}
	if err := problems.ErrorOrNil(); err != nil {
		return nil, err
	}
	return s, nil
}

// DecideMatch answers from the script or the fallback.
func (s *Scripted) DecideMatch(ctx context.Context, m *matcher.Match) (MatchDecision, error) {
	if d, ok := s.matches[pairKey{m.Left.ID, m.Right.ID}]; ok {
		return d, nil
	}
	return s.fallback.DecideMatch(ctx, m)
}

// DecideField answers from the script or the fallback. A scripted answer
// is repeated when refused, so a bad script fails the run.
func (s *Scripted) DecideField(ctx context.Context, m *matcher.Match, c FieldConflict) (FieldDecision, error) {
	if d, ok := s.fields[fieldKey{pairKey{m.Left.ID, m.Right.ID}, c.Field}]; ok {
		return d, nil
	}
	return s.fallback.DecideField(ctx, m, c)
}

// DecideOrphanContinue runs the scripted number of passes, or defers.
func (s *Scripted) DecideOrphanContinue(ctx context.Context, pools Pools) (bool, error) {
	if s.orphanPasses == nil {
		return s.fallback.DecideOrphanContinue(ctx, pools)
	}
	if s.passes >= *s.orphanPasses {
		return false, nil
	}
	s.passes++
	return true, nil
}

// DecidePairing hands out scripted pairings for the current pass in order.
func (s *Scripted) DecidePairing(ctx context.Context, pools Pools) (*Pairing, error) {
	for i, p := range s.pairings {
		if p.pass != 0 && p.pass != pools.Pass {
			continue
		}
		s.pairings = append(s.pairings[:i], s.pairings[i+1:]...)
		pairing := p.Pairing
		return &pairing, nil
	}
	return s.fallback.DecidePairing(ctx, pools)
}

func parsePair(left, right any) (pairKey, error) {
	l, err := findings.ParseID(left)
	if err != nil {
		return pairKey{}, err
	}
	r, err := findings.ParseID(right)
	if err != nil {
		return pairKey{}, err
	}
	return pairKey{left: l, right: r}, nil
}

func entryName(section string, i int) string {
	return section + "[" + strconv.Itoa(i) + "]"
}
