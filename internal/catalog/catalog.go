package catalog

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// OptionID identifies one enhancement option.
type OptionID int

// ShortCode is the single-character notation used in combo presets, e.g. "가".
type ShortCode string

// Category groups options that share a filter toggle.
type Category string

const (
	CategoryGeneral     Category = "general"
	CategoryBow         Category = "bow"
	CategorySide        Category = "side"
	CategoryStern       Category = "stern"
	CategoryRemodel     Category = "remodel"
	CategoryInheritance Category = "inheritance"
)

// ShipClass restricts an option to one hull type. The zero value means any.
type ShipClass string

const (
	ShipAny    ShipClass = ""
	ShipSail   ShipClass = "sail"
	ShipGalley ShipClass = "galley"
)

// Option is one immutable catalog entry. Gating rules live on the entry itself:
// Requires is the immediate predecessor in a progression chain (0 = none).
type Option struct {
	ID       OptionID  `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	Code     ShortCode `json:"code,omitempty" yaml:"code,omitempty"`
	Category Category  `json:"category" yaml:"category"`
	Class    ShipClass `json:"class,omitempty" yaml:"class,omitempty"`
	Requires OptionID  `json:"requires,omitempty" yaml:"requires,omitempty"`
	Line     string    `json:"line,omitempty" yaml:"line,omitempty"`
}

var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog is a read-only lookup table built once at startup.
type Catalog struct {
	options   []Option
	byID      map[OptionID]int
	supply    map[ShortCode]int
	codeOrder []ShortCode
	exclusive map[ShortCode]bool
	lines     []string
}

// New builds a catalog from options (kept in the given order) and the code
// priority order used for combo enumeration. Codes of remodel options form the
// mutually exclusive group.
func New(options []Option, codeOrder []ShortCode) (*Catalog, error) {
	c := &Catalog{
		options:   append([]Option(nil), options...),
		byID:      make(map[OptionID]int, len(options)),
		supply:    make(map[ShortCode]int),
		exclusive: make(map[ShortCode]bool),
	}
	seenLine := map[string]bool{}
	for i, o := range c.options {
		if o.ID <= 0 {
			return nil, fmt.Errorf("%w: option %q has non-positive id %d", ErrInvalidCatalog, o.Name, o.ID)
		}
		if _, dup := c.byID[o.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate option id %d", ErrInvalidCatalog, o.ID)
		}
		if o.Code != "" && utf8.RuneCountInString(string(o.Code)) != 1 {
			return nil, fmt.Errorf("%w: option %d code %q must be one character", ErrInvalidCatalog, o.ID, o.Code)
		}
		c.byID[o.ID] = i
		if o.Code != "" {
			c.supply[o.Code]++
			if o.Category == CategoryRemodel {
				c.exclusive[o.Code] = true
			}
		}
		if o.Line != "" && !seenLine[o.Line] {
			seenLine[o.Line] = true
			c.lines = append(c.lines, o.Line)
		}
	}
	for _, o := range c.options {
		if o.Requires == 0 {
			continue
		}
		if _, ok := c.byID[o.Requires]; !ok {
			return nil, fmt.Errorf("%w: option %d requires unknown option %d", ErrInvalidCatalog, o.ID, o.Requires)
		}
		if o.Requires == o.ID {
			return nil, fmt.Errorf("%w: option %d requires itself", ErrInvalidCatalog, o.ID)
		}
	}
	for _, code := range codeOrder {
		if c.supply[code] == 0 {
			return nil, fmt.Errorf("%w: code order names %q which no option carries", ErrInvalidCatalog, code)
		}
		c.codeOrder = append(c.codeOrder, code)
	}
	return c, nil
}

// Options returns the full option list in catalog order.
func (c *Catalog) Options() []Option {
	return append([]Option(nil), c.options...)
}

// Len reports the number of options.
func (c *Catalog) Len() int { return len(c.options) }

// Lookup finds an option by id.
func (c *Catalog) Lookup(id OptionID) (Option, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Option{}, false
	}
	return c.options[i], true
}

// CodeOf returns the short code of id, or "" when it has none.
func (c *Catalog) CodeOf(id OptionID) ShortCode {
	o, _ := c.Lookup(id)
	return o.Code
}

// Supply is the number of catalog entries carrying code.
func (c *Catalog) Supply(code ShortCode) int { return c.supply[code] }

// Supplies returns a copy of the per-code supply table.
func (c *Catalog) Supplies() map[ShortCode]int {
	out := make(map[ShortCode]int, len(c.supply))
	for k, v := range c.supply {
		out[k] = v
	}
	return out
}

// CodeOrder is the priority order used when enumerating combo presets.
func (c *Catalog) CodeOrder() []ShortCode {
	return append([]ShortCode(nil), c.codeOrder...)
}

// Exclusive reports whether code belongs to the mutually exclusive remodel group.
func (c *Catalog) Exclusive(code ShortCode) bool { return c.exclusive[code] }

// IsCode reports whether code is carried by at least one option.
func (c *Catalog) IsCode(code ShortCode) bool { return c.supply[code] > 0 }

// Lines lists the progression line names in first-seen catalog order.
func (c *Catalog) Lines() []string {
	return append([]string(nil), c.lines...)
}

// LineTiers returns the options of line ordered from chain head to tail.
func (c *Catalog) LineTiers(line string) []Option {
	var members []Option
	for _, o := range c.options {
		if o.Line == line {
			members = append(members, o)
		}
	}
	// walk from the head (no in-line prerequisite) along Requires links
	var tiers []Option
	var prev OptionID
	for len(tiers) < len(members) {
		found := false
		for _, o := range members {
			if o.Requires == prev {
				tiers = append(tiers, o)
				prev = o.ID
				found = true
				break
			}
		}
		if !found {
			break
		}
	}
	return tiers
}
