package material

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor is an option builder that sets the albedo/diffuse RGBA color of the material.
//
// Parameters:
//   - color: the base color as RGBA float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}

// WithMetallic is an option builder that sets the metallic factor of the material.
//
// Parameters:
//   - metallic: the metallic factor (0.0 = dielectric, 1.0 = metal)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the metallic option to a material
func WithMetallic(metallic float32) MaterialBuilderOption {
	return func(m *material) {
		m.metallic = metallic
	}
}

// WithRoughness is an option builder that sets the roughness factor of the material.
//
// Parameters:
//   - roughness: the roughness factor (0.0 = smooth, 1.0 = rough)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the roughness option to a material
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.roughness = roughness
	}
}

// WithAlphaTest is an option builder that sets the alpha cutoff used by alpha-tested shadow casters.
func WithAlphaTest(cutoff float32) MaterialBuilderOption {
	return func(m *material) {
		m.alphaTest = cutoff
	}
}

// WithPass is an option builder that adds a pass to the material, replacing any pass of the same type.
//
// Parameters:
//   - pass: the pass to add
//
// Returns:
//   - MaterialBuilderOption: a function that applies the pass option to a material
func WithPass(pass *Pass) MaterialBuilderOption {
	return func(m *material) {
		if pass != nil {
			m.SetPass(pass.Type(), pass)
		}
	}
}

// WithDefaultPasses is an option builder that adds opaque and shadow passes using the given
// pipeline keys, the setup used by most scene materials.
func WithDefaultPasses(opaqueKey, shadowKey string) MaterialBuilderOption {
	return func(m *material) {
		m.SetPass(PassOpaque, NewPass(PassOpaque, opaqueKey))
		m.SetPass(PassShadow, NewPass(PassShadow, shadowKey))
	}
}
