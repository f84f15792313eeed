package form

import (
	"errors"
	"strings"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/models"
)

var (
	ErrDuplicateSpec = errors.New("specification already exists")
	ErrEmptySpecName = errors.New("specification name is empty")
)

// User facing messages of the spec editor
const (
	MsgSpecAdded     = "Nieuwe specificatie succesvol toegevoegd, nu vindbaar in de lijst met specificaties."
	MsgDuplicateSpec = "De specificatie bestaat al, voer een andere specificatie in."
	MsgEmptySpecName = "Voer een naam in voor de specificatie."
)

// SpecSet holds a device's specifications keyed by name, in insertion order.
// The zero value is an empty set.
type SpecSet struct {
	order  []string
	byName map[string]models.Specification
}

// NewSpecSet builds a set from specs; a later duplicate name overwrites the earlier value
func NewSpecSet(specs ...models.Specification) SpecSet {
	var s SpecSet
	for _, sp := range specs {
		s.Upsert(sp.SpecName, sp.DataType, sp.Value)
	}
	return s
}

// Upsert sets the value of the named spec, appending it when absent.
// An empty dataType keeps the existing one.
func (s *SpecSet) Upsert(name string, dataType models.DataType, value string) {
	if s.byName == nil {
		s.byName = make(map[string]models.Specification)
	}
	if cur, ok := s.byName[name]; ok {
		cur.Value = value
		if dataType != "" {
			cur.DataType = dataType
		}
		s.byName[name] = cur
		return
	}
	if dataType == "" {
		dataType = models.DataTypeText
	}
	s.order = append(s.order, name)
	s.byName[name] = models.Specification{SpecName: name, DataType: dataType, Value: value}
}

// SetValue updates the value of the named spec
func (s *SpecSet) SetValue(name, value string) {
	s.Upsert(name, "", value)
}

// Select makes the set follow a multi-select of known spec names. Newly
// selected names are appended with an empty value; names no longer selected
// are removed. Names unknown to known are ignored.
func (s *SpecSet) Select(names []string, known *KnownSpecs) {
	selected := make(map[string]bool, len(names))
	for _, n := range names {
		def, ok := known.Lookup(n)
		if !ok {
			continue
		}
		selected[n] = true
		if !s.Has(n) {
			s.Upsert(n, def.DataType, "")
		}
	}
	for _, n := range s.Names() {
		if !selected[n] {
			s.Remove(n)
		}
	}
}

// Remove drops the named spec
func (s *SpecSet) Remove(name string) {
	if _, ok := s.byName[name]; !ok {
		return
	}
	delete(s.byName, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
}

// Get returns the named spec
func (s SpecSet) Get(name string) (models.Specification, bool) {
	sp, ok := s.byName[name]
	return sp, ok
}

// Has reports whether the set contains name
func (s SpecSet) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Len returns the number of specs
func (s SpecSet) Len() int { return len(s.order) }

// Names returns the spec names in insertion order
func (s SpecSet) Names() []string {
	return append([]string(nil), s.order...)
}

// List returns the specs in insertion order
func (s SpecSet) List() []models.Specification {
	out := make([]models.Specification, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.byName[n])
	}
	return out
}

// Clone returns an independent copy
func (s SpecSet) Clone() SpecSet {
	return NewSpecSet(s.List()...)
}

// KnownSpecs is the catalog of specification names a device may use
type KnownSpecs struct {
	defs []models.SpecDefinition
}

// NewKnownSpecs builds the catalog from defs, skipping empty and repeated names
func NewKnownSpecs(defs []models.SpecDefinition) *KnownSpecs {
	k := &KnownSpecs{}
	k.Merge(defs)
	return k
}

// Add appends a new definition. Empty and duplicate names are rejected and
// leave the catalog unchanged.
func (k *KnownSpecs) Add(def models.SpecDefinition) error {
	def.SpecName = strings.TrimSpace(def.SpecName)
	if def.SpecName == "" {
		return ErrEmptySpecName
	}
	if _, ok := k.Lookup(def.SpecName); ok {
		return ErrDuplicateSpec
	}
	if def.DataType == "" {
		def.DataType = models.DataTypeText
	}
	k.defs = append(k.defs, def)
	return nil
}

// Merge adds every definition whose name is not known yet
func (k *KnownSpecs) Merge(defs []models.SpecDefinition) {
	for _, d := range defs {
		_ = k.Add(d)
	}
}

// Lookup finds a definition by exact name
func (k *KnownSpecs) Lookup(name string) (models.SpecDefinition, bool) {
	if k == nil {
		return models.SpecDefinition{}, false
	}
	for _, d := range k.defs {
		if d.SpecName == name {
			return d, true
		}
	}
	return models.SpecDefinition{}, false
}

// List returns the definitions in catalog order
func (k *KnownSpecs) List() []models.SpecDefinition {
	if k == nil {
		return nil
	}
	return append([]models.SpecDefinition(nil), k.defs...)
}

// Len returns the number of definitions
func (k *KnownSpecs) Len() int {
	if k == nil {
		return 0
	}
	return len(k.defs)
}
