package catalog

import (
	"sync"

	"visa-locker/internal/questionnaire/answers"
	"visa-locker/pkg/registry"
)

// Catalog is one derived, immutable question list.
type Catalog struct {
	layout    AddressLayout
	questions []Question
	index     map[string]int
	inputs    map[string]InputType
	rules     map[string]string
}

func newCatalog(layout AddressLayout, destinations []DestinationGroup) *Catalog {
	c := &Catalog{
		layout:    layout,
		questions: buildQuestions(layout, destinations),
		index:     make(map[string]int),
		inputs:    make(map[string]InputType),
		rules:     make(map[string]string),
	}
	for i, q := range c.questions {
		c.index[q.ID] = i
		c.addFields(q.Fields)
		if q.Upload != nil {
			c.inputs[q.Upload.Field] = InputFile
		}
	}
	for _, sel := range SponsorOptions {
		c.addFields(SponsorFields(sel, layout))
	}
	for _, stay := range []string{"tourist", "family", "business"} {
		c.addFields(AccommodationFields(stay, layout))
	}
	return c
}

func (c *Catalog) addFields(fields []Field) {
	for _, f := range fields {
		c.inputs[f.ID] = f.Input
		if f.Validate != "" {
			c.rules[f.ID] = f.Validate
		}
	}
}

func (c *Catalog) Layout() AddressLayout { return c.layout }

func (c *Catalog) Len() int { return len(c.questions) }

// At returns the question at i. Callers must not mutate its slices.
func (c *Catalog) At(i int) Question { return c.questions[i] }

// Index returns the position of id, or -1.
func (c *Catalog) Index(id string) int {
	if i, ok := c.index[id]; ok {
		return i
	}
	return -1
}

// Questions returns the ordered list.
func (c *Catalog) Questions() []Question {
	return append([]Question(nil), c.questions...)
}

// FieldType returns the declared input type of a field id.
func (c *Catalog) FieldType(id string) (InputType, bool) {
	t, ok := c.inputs[id]
	return t, ok
}

// Rule returns the declared validate rule of a field id, e.g. RulePlaceName.
func (c *Catalog) Rule(id string) string {
	return c.rules[id]
}

// IsFileField reports whether id holds an upload list.
func (c *Catalog) IsFileField(id string) bool {
	if t, ok := c.inputs[id]; ok && t == InputFile {
		return true
	}
	return answers.IsFileField(id)
}

// Deriver memoizes catalogs by address layout.
type Deriver struct {
	mu           sync.Mutex
	destinations []DestinationGroup
	cache        map[AddressLayout]*Catalog
}

// NewDeriver builds a deriver offering the registry's destinations. A nil
// registry uses the built-in list.
func NewDeriver(reg *registry.DestinationRegistry) *Deriver {
	if reg == nil {
		reg = registry.Default()
	}
	groups := make([]DestinationGroup, 0, len(reg.Destinations))
	for _, d := range reg.Destinations {
		groups = append(groups, DestinationGroup{Label: d.Label(), Cities: append([]string(nil), d.Cities...)})
	}
	return WithDestinations(groups)
}

// WithDestinations builds a deriver offering exactly groups.
func WithDestinations(groups []DestinationGroup) *Deriver {
	return &Deriver{destinations: groups, cache: make(map[AddressLayout]*Catalog)}
}

// Destinations returns the offered destination groups.
func (d *Deriver) Destinations() []DestinationGroup {
	return append([]DestinationGroup(nil), d.destinations...)
}

// Derive returns the catalog for the current personal info. Equal layouts
// share one instance.
func (d *Deriver) Derive(personal answers.PersonalInfo) *Catalog {
	layout := LayoutFor(personal)

	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.cache[layout]; ok {
		return c
	}
	c := newCatalog(layout, d.destinations)
	d.cache[layout] = c
	return c
}

var defaultDeriver = NewDeriver(nil)

// Derive uses the built-in destination list.
func Derive(personal answers.PersonalInfo) *Catalog {
	return defaultDeriver.Derive(personal)
}

// UploadInputName returns the multipart input name for a file field, or the
// field id when none is declared.
func (c *Catalog) UploadInputName(id string) string {
	for _, q := range c.questions {
		if q.Upload != nil && q.Upload.Field == id && q.Upload.InputName != "" {
			return q.Upload.InputName
		}
		for _, f := range q.Fields {
			if f.ID == id && f.InputName != "" {
				return f.InputName
			}
		}
	}
	return id
}
