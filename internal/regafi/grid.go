package regafi

import (
	"github.com/rotisserie/eris"

	"github.com/equinoxe-ovh/regafind/internal/model"
)

// Traversal is the convention mapping a flat run of grid checkboxes to the
// 2-D (instrument, service) matrix. The registry renders the two regimes'
// grids with opposite fast axes.
type Traversal int

const (
	// DomesticOrder is the ACPR services grid: 45 cells, the instrument index
	// cycling 1..5 fastest, the service index stepping every 5 cells.
	DomesticOrder Traversal = iota
	// PassportingOrder is the CB services grid: 150 cells, the service index
	// cycling 1..15 fastest, the instrument index stepping every 15 cells.
	PassportingOrder
)

func (t Traversal) shape() (cells, fastMax int) {
	if t == PassportingOrder {
		return 150, 15
	}
	return 45, 5
}

// DecodeGrid turns the flat sequence of checkbox states into the set of
// (instrument, service) pairs that are checked. Unchecked cells are omitted:
// only positive authorizations are recorded. The flag count must match the
// traversal's grid size exactly.
func DecodeGrid(flags []bool, traversal Traversal) (model.ServiceSet, error) {
	cells, fastMax := traversal.shape()
	if len(flags) != cells {
		return nil, eris.Wrapf(ErrGridSize, "%d cells retrieved instead of %d", len(flags), cells)
	}

	services := model.NewServiceSet()
	for i, checked := range flags {
		if !checked {
			continue
		}
		fast := i%fastMax + 1
		slow := i/fastMax + 1
		if traversal == PassportingOrder {
			services.Add(model.ServiceKey{Instrument: slow, Service: fast})
		} else {
			services.Add(model.ServiceKey{Instrument: fast, Service: slow})
		}
	}
	return services, nil
}
