package equation

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Catalogue is an ordered, name-indexed set of equations.
type Catalogue struct {
	equations []Equation
	byName    map[string]int
}

type catalogueFile struct {
	Equations []Equation `yaml:"equations"`
}

// NewCatalogue validates every equation and rejects duplicate names.
func NewCatalogue(eqs ...Equation) (*Catalogue, error) {
	c := &Catalogue{byName: make(map[string]int, len(eqs))}
	if err := c.add(eqs...); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalogue) add(eqs ...Equation) error {
	for _, eq := range eqs {
		if err := eq.Validate(); err != nil {
			return errors.Wrapf(err, "equation %q", eq.Name)
		}
		if _, dup := c.byName[eq.Name]; dup {
			return errors.Errorf("duplicate equation %q", eq.Name)
		}
		c.byName[eq.Name] = len(c.equations)
		c.equations = append(c.equations, eq)
	}
	return nil
}

// With returns a new catalogue holding c's equations followed by eqs.
func (c *Catalogue) With(eqs ...Equation) (*Catalogue, error) {
	return NewCatalogue(append(c.List(), eqs...)...)
}

// Get looks an equation up by exact name.
func (c *Catalogue) Get(name string) (Equation, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Equation{}, false
	}
	return c.equations[i], true
}

// List returns all equations in catalogue order.
func (c *Catalogue) List() []Equation {
	out := make([]Equation, len(c.equations))
	copy(out, c.equations)
	return out
}

func (c *Catalogue) Len() int { return len(c.equations) }

// Search returns the equations matching every whitespace-separated keyword,
// case-insensitively, against name, expression, class and variable meanings.
func (c *Catalogue) Search(query string) []Equation {
	keywords := strings.Fields(strings.ToLower(query))
	var out []Equation
	for _, eq := range c.equations {
		text := searchText(eq)
		match := true
		for _, kw := range keywords {
			if !strings.Contains(text, kw) {
				match = false
				break
			}
		}
		if match {
			out = append(out, eq)
		}
	}
	return out
}

func searchText(eq Equation) string {
	parts := []string{eq.Name, eq.Expression, string(eq.Class)}
	for _, sym := range eq.Symbols() {
		parts = append(parts, sym, eq.Variables[sym])
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// Load reads a YAML catalogue file.
func Load(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f catalogueFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "parse catalogue %s", path)
	}
	return NewCatalogue(f.Equations...)
}

// Save writes c as a YAML catalogue file.
func (c *Catalogue) Save(path string) error {
	data, err := yaml.Marshal(catalogueFile{Equations: c.equations})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
