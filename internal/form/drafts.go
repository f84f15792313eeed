package form

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/models"
)

// Draft is the add-device editor of one session: the form and the spec
// definitions added locally that the backend does not know yet.
type Draft struct {
	Form  DeviceForm
	Added []models.SpecDefinition
}

// Known returns the catalog of the backend definitions plus the local additions
func (d Draft) Known(backend []models.SpecDefinition) *KnownSpecs {
	k := NewKnownSpecs(backend)
	k.Merge(d.Added)
	return k
}

// AddSpec validates def against the catalog and records it as a local addition
func (d *Draft) AddSpec(backend []models.SpecDefinition, def models.SpecDefinition) error {
	k := d.Known(backend)
	if err := k.Add(def); err != nil {
		return err
	}
	added := k.List()[k.Len()-1]
	d.Added = append(d.Added, added)
	return nil
}

func (d Draft) clone() Draft {
	return Draft{
		Form:  d.Form.Clone(),
		Added: append([]models.SpecDefinition(nil), d.Added...),
	}
}

// Drafts keeps a draft per session id and forgets idle ones
type Drafts struct {
	cache *cache.Cache
}

// NewDrafts creates a store that expires drafts after idle
func NewDrafts(idle time.Duration) *Drafts {
	return &Drafts{cache: cache.New(idle, 2*idle)}
}

// Get returns a copy of the session's draft, or an empty one
func (s *Drafts) Get(sid string) Draft {
	if v, ok := s.cache.Get(sid); ok {
		return v.(Draft).clone()
	}
	return Draft{Form: NewDeviceForm()}
}

// Put stores a copy of the draft and restarts its idle timer
func (s *Drafts) Put(sid string, d Draft) {
	s.cache.SetDefault(sid, d.clone())
}

// ClearForm empties the session's form and selection. Locally added spec
// definitions stay available for the next device.
func (s *Drafts) ClearForm(sid string) {
	d := s.Get(sid)
	if len(d.Added) == 0 {
		s.cache.Delete(sid)
		return
	}
	s.Put(sid, Draft{Form: NewDeviceForm(), Added: d.Added})
}

// Reset forgets the session's draft entirely
func (s *Drafts) Reset(sid string) {
	s.cache.Delete(sid)
}
