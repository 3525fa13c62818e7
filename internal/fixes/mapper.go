package fixes

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gosight/gosight/optimizer/internal/identity"
)

// ValidationStatus is the advisory result of checking a selector
type ValidationStatus string

const (
	StatusValid   ValidationStatus = "valid"
	StatusInvalid ValidationStatus = "invalid"
	// StatusUnknown means the index could not be consulted
	StatusUnknown ValidationStatus = "unknown"
)

// Validation reports whether a change's selector exists in the element index
type Validation struct {
	Selector string           `json:"selector"`
	Status   ValidationStatus `json:"status"`
}

// IdentityFixMapping is the full set of changes proposed for one identity
type IdentityFixMapping struct {
	State           identity.State    `json:"state"`
	Confidence      float64           `json:"confidence"`
	UI              UIRecommendations `json:"ui"`
	Flags           []Flag            `json:"flags"`
	Rules           []string          `json:"rules"`
	Changes         []ElementChange   `json:"changes"`
	Summary         string            `json:"summary"`
	ExpectedImpacts []string          `json:"expected_impacts"`
	Validations     []Validation      `json:"validations,omitempty"`
}

// Invalid lists selectors the index reported missing
func (m IdentityFixMapping) Invalid() []string {
	var out []string
	for _, v := range m.Validations {
		if v.Status == StatusInvalid {
			out = append(out, v.Selector)
		}
	}
	return out
}

// Mapper selects and merges fix rules for an identity
type Mapper struct {
	rules []FixRule
	index ElementIndex
}

// NewMapper creates a mapper over rules. index may be nil to skip validation.
func NewMapper(rules []FixRule, index ElementIndex) *Mapper {
	return &Mapper{rules: rules, index: index}
}

// Map builds the mapping for id. Validation never removes a change.
func (m *Mapper) Map(ctx context.Context, id identity.Identity) IdentityFixMapping {
	ui := UIFor(id.State)
	flags := ui.Active()

	mapping := IdentityFixMapping{
		State:      id.State,
		Confidence: id.Confidence,
		UI:         ui,
		Flags:      flags,
		Rules:      []string{},
		Changes:    []ElementChange{},
	}

	active := make(map[Flag]bool, len(flags))
	for _, f := range flags {
		active[f] = true
	}

	var candidates []FixRule
	for _, r := range m.rules {
		if r.IdentityState == id.State && active[r.Flag] {
			candidates = append(candidates, r)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority > candidates[j].Priority
	})

	type key struct{ component, property string }
	seen := make(map[key]bool)
	var summaries []string
	for _, r := range candidates {
		mapping.Rules = append(mapping.Rules, string(r.IdentityState)+"/"+string(r.Flag))
		summaries = append(summaries, r.Summary)
		if r.ExpectedImpact != "" {
			mapping.ExpectedImpacts = append(mapping.ExpectedImpacts, r.ExpectedImpact)
		}
		for _, c := range r.Changes {
			k := key{c.ComponentPath, c.Property}
			if seen[k] {
				continue
			}
			seen[k] = true
			mapping.Changes = append(mapping.Changes, c)
		}
	}
	mapping.Summary = strings.Join(summaries, "; ")

	if m.index != nil {
		mapping.Validations = m.validate(ctx, mapping.Changes)
	}
	return mapping
}

func (m *Mapper) validate(ctx context.Context, changes []ElementChange) []Validation {
	checked := make(map[string]bool)
	var out []Validation
	for _, c := range changes {
		if checked[c.Selector] {
			continue
		}
		checked[c.Selector] = true

		status := StatusInvalid
		ok, err := m.index.Exists(ctx, c.Selector)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("selector", c.Selector).Msg("Element index lookup failed")
			status = StatusUnknown
		case ok:
			status = StatusValid
		}
		out = append(out, Validation{Selector: c.Selector, Status: status})
	}
	return out
}
