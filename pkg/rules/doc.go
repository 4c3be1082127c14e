/*
Package rules compiles CEL expressions into metamodel rule functions, so that
declarative models can state visibility, usability, validation, defaults and
choices without Go code.

Every expression is evaluated against the same variables:

	self    the owner, projected to CEL (maps, lists and scalars)
	args    the (pending) arguments, in parameter order
	value   the proposed value of a property or parameter
	search  the autocomplete search string
	where   the UI placement, e.g. "object_forms"
	target  the mixee of a mixin action

Compiled programs are cached by source and run under a cost limit.
*/
package rules
