// Package playbook loads the family → fix-checklist mapping from static
// YAML configuration.
//
// The store is loaded once at startup and read-only afterwards. A declared
// family without a checklist is a configuration error and is rejected at
// load time, not silently skipped at query time.
package playbook

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/debugassist/pkg/family"
)

//go:embed playbooks.yaml
var defaultPlaybooks []byte

var (
	// ErrIncomplete indicates a declared family without a playbook entry.
	ErrIncomplete = errors.New("playbook missing checklist for declared family")

	// ErrMissingFile indicates the playbook file could not be read.
	ErrMissingFile = errors.New("playbook file missing")
)

// KeywordTip is a supplementary tip triggered by a substring of the
// normalized query text, independent of the predicted family.
type KeywordTip struct {
	Trigger string   `koanf:"trigger"`
	Tips    []string `koanf:"tips"`
}

// Store is the immutable playbook mapping.
type Store struct {
	checklists map[family.Family][]string
	tips       []KeywordTip
}

type fileFormat struct {
	Families map[string]struct {
		Checklist []string `koanf:"checklist"`
	} `koanf:"families"`
	KeywordTips []KeywordTip `koanf:"keyword_tips"`
}

// Load reads playbooks from the given YAML file, or from the embedded
// default when path is empty.
func Load(path string) (*Store, error) {
	raw := defaultPlaybooks
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrMissingFile, path)
			}
			return nil, fmt.Errorf("reading playbooks %s: %w", path, err)
		}
		raw = data
	}
	return parse(raw)
}

func parse(raw []byte) (*Store, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(raw), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("parsing playbooks: %w", err)
	}

	var ff fileFormat
	if err := k.Unmarshal("", &ff); err != nil {
		return nil, fmt.Errorf("decoding playbooks: %w", err)
	}

	s := &Store{
		checklists: make(map[family.Family][]string, len(ff.Families)),
		tips:       ff.KeywordTips,
	}
	for label, entry := range ff.Families {
		f, err := family.Parse(label)
		if err != nil {
			return nil, fmt.Errorf("playbooks: %w", err)
		}
		s.checklists[f] = entry.Checklist
	}

	// Every declared family must carry a non-empty checklist.
	for _, f := range family.All() {
		if len(s.checklists[f]) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrIncomplete, f)
		}
	}

	for _, tip := range s.tips {
		if tip.Trigger == "" || len(tip.Tips) == 0 {
			return nil, fmt.Errorf("playbooks: keyword tip with empty trigger or tips")
		}
	}

	return s, nil
}

// Checklist returns the ordered fix steps for a declared family. The
// returned slice is a copy.
func (s *Store) Checklist(f family.Family) []string {
	steps := s.checklists[f]
	out := make([]string, len(steps))
	copy(out, steps)
	return out
}

// Tips returns the supplementary tips whose triggers occur in the
// normalized text, in declared tip order.
func (s *Store) Tips(normText string) []string {
	var out []string
	for _, tip := range s.tips {
		if strings.Contains(normText, strings.ToLower(tip.Trigger)) {
			out = append(out, tip.Tips...)
		}
	}
	return out
}
