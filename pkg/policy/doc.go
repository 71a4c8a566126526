// Package policy filters records with Open Policy Agent (OPA) Rego
// policies.
//
// Modules are loaded from .rego files or directories by Loader and
// compiled once into a Filter:
//
//	modules, err := policy.NewLoader(logger).LoadFromPaths("policies/")
//	if err != nil {
//	    return err
//	}
//	filter, err := policy.NewFilter(ctx, modules, "", logger)
//
// A policy sees each record as input.record (first value per property
// name) and input.properties (every property, in order):
//
//	package actorflow
//
//	default allow := false
//
//	allow if {
//	    input.record.country == "NZ"
//	    to_number(input.record.age) >= 18
//	}
package policy
