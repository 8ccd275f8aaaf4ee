// Package templates holds the site template catalog.
//
// Templates are data: each one declares ordered steps, the fields collected
// at each step, the validation rule bound to every field and a set of
// derivations used when handing the collected values to a generator.
// The built-in catalog is embedded from catalog.yaml; alternative catalogs
// can be loaded from YAML, JSON or TOML files, or from a loam vault.
package templates
