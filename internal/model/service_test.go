package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceKey_EqualityIsFirmIndependent(t *testing.T) {
	// The same coded service owned by two firms is the same key.
	a := ProvidedService{CIB: 10057, Key: ServiceKey{Instrument: 2, Service: 6}}
	b := ProvidedService{CIB: 10160, Key: ServiceKey{Instrument: 2, Service: 6}}
	assert.Equal(t, a.Key, b.Key)

	assert.NotEqual(t, ServiceKey{Instrument: 2, Service: 6}, ServiceKey{Instrument: 3, Service: 6})
}

func TestServiceKey_TotalOrder(t *testing.T) {
	a := ServiceKey{Instrument: 1, Service: 9}
	b := ServiceKey{Instrument: 2, Service: 1}
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))

	// a <= b and b <= a implies a == b.
	c := ServiceKey{Instrument: 2, Service: 1}
	assert.False(t, b.Less(c))
	assert.False(t, c.Less(b))
	assert.Equal(t, b, c)
}

func TestServiceSet_DuplicatesCollapse(t *testing.T) {
	s := NewServiceSet(
		ServiceKey{Instrument: 1, Service: 2},
		ServiceKey{Instrument: 1, Service: 2},
		ServiceKey{Instrument: 2, Service: 1},
	)
	assert.Len(t, s, 2)
	assert.True(t, s.Has(ServiceKey{Instrument: 1, Service: 2}))
}

func TestServiceSet_SortedIsDeterministic(t *testing.T) {
	s := NewServiceSet(
		ServiceKey{Instrument: 3, Service: 1},
		ServiceKey{Instrument: 1, Service: 5},
		ServiceKey{Instrument: 1, Service: 2},
		ServiceKey{Instrument: 2, Service: 9},
	)
	got := s.Sorted()
	want := []ServiceKey{
		{Instrument: 1, Service: 2},
		{Instrument: 1, Service: 5},
		{Instrument: 2, Service: 9},
		{Instrument: 3, Service: 1},
	}
	assert.Equal(t, want, got)
}

func TestServiceSet_JSONRoundTrip(t *testing.T) {
	set := NewServiceSet(
		ServiceKey{Instrument: 2, Service: 6},
		ServiceKey{Instrument: 1, Service: 1},
	)

	data, err := json.Marshal(set)
	assert.NoError(t, err)
	assert.JSONEq(t, `[{"instrument":1,"service":1},{"instrument":2,"service":6}]`, string(data))

	var decoded ServiceSet
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, set, decoded)
}
