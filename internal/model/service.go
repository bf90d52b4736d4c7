package model

import (
	"encoding/json"
	"sort"
)

// ActivityCode is an authorized-activity code. Rule matching compares codes
// alone: the same activity held by two different firms is the same key.
type ActivityCode int

// ServiceKey identifies one cell of the (instrument, service) authorization
// matrix, independent of the firm holding it. It is the value used for
// rule-table lookups and set membership.
type ServiceKey struct {
	Instrument int `json:"instrument"`
	Service    int `json:"service"`
}

// Less orders service keys by instrument first, then service. The order is
// total, so sorting a firm's services gives a deterministic listing.
func (k ServiceKey) Less(other ServiceKey) bool {
	if k.Instrument != other.Instrument {
		return k.Instrument < other.Instrument
	}
	return k.Service < other.Service
}

// ServiceSet is a set of service keys. Duplicate authorizations decoded from
// the grid collapse naturally.
type ServiceSet map[ServiceKey]struct{}

func NewServiceSet(keys ...ServiceKey) ServiceSet {
	s := make(ServiceSet, len(keys))
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

func (s ServiceSet) Add(k ServiceKey) {
	s[k] = struct{}{}
}

func (s ServiceSet) Has(k ServiceKey) bool {
	_, ok := s[k]
	return ok
}

// Sorted returns the keys in their total order.
func (s ServiceSet) Sorted() []ServiceKey {
	keys := make([]ServiceKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// MarshalJSON renders the set as a sorted array, since struct-keyed maps have
// no JSON form.
func (s ServiceSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *ServiceSet) UnmarshalJSON(data []byte) error {
	var keys []ServiceKey
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*s = NewServiceSet(keys...)
	return nil
}

// AuthorizedActivity is a firm-owned activity row as persisted.
type AuthorizedActivity struct {
	CIB      int          `json:"cib"`
	Activity ActivityCode `json:"activity"`
}

// ProvidedService is a firm-owned service row as persisted.
type ProvidedService struct {
	CIB int        `json:"cib"`
	Key ServiceKey `json:"key"`
}
