package checklist

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

// OtherStallReason is the stall reason that pairs with free-text detail.
const OtherStallReason = "Other (specify below)"

//go:embed catalog.yaml
var catalogYAML []byte

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := LoadCatalog(catalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
})

// Question is a single yes/no checklist item.
type Question struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// Section groups related questions under a heading.
type Section struct {
	Name      string     `json:"name" yaml:"name"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// Catalog is the read-only question set plus the enumerations the
// metadata fields are validated against. A Catalog is never mutated after
// construction and is safe to share between sessions and goroutines.
type Catalog struct {
	sections     []Section
	order        []string
	questions    map[string]Question
	microscopes  []string
	stallReasons []string
}

type catalogDocument struct {
	Microscopes  []string  `yaml:"microscopes"`
	StallReasons []string  `yaml:"stall_reasons"`
	Sections     []Section `yaml:"sections"`
}

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() *Catalog {
	return defaultCatalog()
}

// LoadCatalog parses a YAML catalog document. Question identifiers must be
// unique across all sections.
func LoadCatalog(data []byte) (*Catalog, error) {
	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	if len(doc.Sections) == 0 {
		return nil, fmt.Errorf("catalog has no sections")
	}
	if len(doc.Microscopes) == 0 {
		return nil, fmt.Errorf("catalog has no microscopes")
	}

	c := &Catalog{
		sections:     doc.Sections,
		questions:    make(map[string]Question),
		microscopes:  doc.Microscopes,
		stallReasons: doc.StallReasons,
	}

	for _, s := range doc.Sections {
		if s.Name == "" {
			return nil, fmt.Errorf("catalog section without name")
		}
		for _, q := range s.Questions {
			if q.ID == "" {
				return nil, fmt.Errorf("section %s: question without id", s.Name)
			}
			if _, ok := c.questions[q.ID]; ok {
				return nil, fmt.Errorf("duplicate question id %q", q.ID)
			}
			c.questions[q.ID] = q
			c.order = append(c.order, q.ID)
		}
	}

	return c, nil
}

// Sections returns the ordered sections.
func (c *Catalog) Sections() []Section {
	out := make([]Section, len(c.sections))
	for i, s := range c.sections {
		out[i] = Section{Name: s.Name, Questions: slices.Clone(s.Questions)}
	}
	return out
}

// IDs returns every question identifier in catalog order.
func (c *Catalog) IDs() []string {
	return slices.Clone(c.order)
}

// Len returns the number of questions.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Has reports whether id names a catalog question.
func (c *Catalog) Has(id string) bool {
	_, ok := c.questions[id]
	return ok
}

// Question looks up a question by identifier.
func (c *Catalog) Question(id string) (Question, bool) {
	q, ok := c.questions[id]
	return q, ok
}

// Microscopes returns the enumerated instrument names.
func (c *Catalog) Microscopes() []string {
	return slices.Clone(c.microscopes)
}

// IsMicroscope reports whether name is an enumerated instrument.
func (c *Catalog) IsMicroscope(name string) bool {
	return slices.Contains(c.microscopes, name)
}

// StallReasons returns the enumerated stall reason tags.
func (c *Catalog) StallReasons() []string {
	return slices.Clone(c.stallReasons)
}

// IsStallReason reports whether reason is an enumerated stall tag.
func (c *Catalog) IsStallReason(reason string) bool {
	return slices.Contains(c.stallReasons, reason)
}

// MarshalJSON renders the catalog for form-rendering clients.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Sections     []Section `json:"sections"`
		Microscopes  []string  `json:"microscopes"`
		StallReasons []string  `json:"stall_reasons"`
	}{
		Sections:     c.sections,
		Microscopes:  c.microscopes,
		StallReasons: c.stallReasons,
	})
}

// DecodeResponses expands a submitted questions mapping back into a full
// tri-state view of the catalog. Identifiers missing from questions are
// Unanswered. Unknown identifiers are rejected.
func DecodeResponses(c *Catalog, questions map[string]bool) (map[string]Answer, error) {
	for id := range questions {
		if !c.Has(id) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, id)
		}
	}

	out := make(map[string]Answer, len(c.order))
	for _, id := range c.order {
		if v, ok := questions[id]; ok {
			out[id] = AnswerOf(v)
		} else {
			out[id] = Unanswered
		}
	}
	return out, nil
}
