package geometry

import (
	"sort"

	"github.com/tofscope/tofscope/internal/domain"
	apperrors "github.com/tofscope/tofscope/internal/pkg/errors"
)

// Densities in g/cm3 as tabulated by NIST.
var nistMaterials = map[string]domain.Material{
	"G4_Galactic":    {Name: "G4_Galactic", Density: 1e-25, State: domain.MaterialStateGas},
	"G4_AIR":         {Name: "G4_AIR", Density: 0.00120479, State: domain.MaterialStateGas},
	"G4_WATER":       {Name: "G4_WATER", Density: 1.0, State: domain.MaterialStateLiquid},
	"G4_Si":          {Name: "G4_Si", Density: 2.33, State: domain.MaterialStateSolid},
	"G4_Fe":          {Name: "G4_Fe", Density: 7.874, State: domain.MaterialStateSolid},
	"G4_Cu":          {Name: "G4_Cu", Density: 8.96, State: domain.MaterialStateSolid},
	"G4_Pb":          {Name: "G4_Pb", Density: 11.35, State: domain.MaterialStateSolid},
	"G4_PbWO4":       {Name: "G4_PbWO4", Density: 8.28, State: domain.MaterialStateSolid},
	"G4_POLYSTYRENE": {Name: "G4_POLYSTYRENE", Density: 1.06, State: domain.MaterialStateSolid},
}

// LookupMaterial finds a material of the built-in database by name
func LookupMaterial(name string) (domain.Material, error) {
	m, ok := nistMaterials[name]
	if !ok {
		return domain.Material{}, apperrors.Configuration("unknown material").
			WithDetail("material", name)
	}
	return m, nil
}

// MaterialNames lists the names known to LookupMaterial, sorted
func MaterialNames() []string {
	names := make([]string, 0, len(nistMaterials))
	for name := range nistMaterials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
