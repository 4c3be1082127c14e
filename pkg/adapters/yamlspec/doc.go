// Package yamlspec builds a metamodel from a declarative YAML file.
//
// Types declare fields, properties, collections and actions. Every rule
// (hidden, disabled, valid, default, choices, autocomplete, effects) is a CEL
// expression compiled by package rules, so a file is fully checked at load
// time. Instances are *Object values: a generic field map whose logical type
// is the declaring type.
//
//	types:
//	  - name: shop.Customer
//	    fields: {name: "", frozen: false}
//	    actions:
//	      - id: freeze
//	        semantics: idempotent
//	        effects: {frozen: "true"}
package yamlspec
