/*
Package dsl provides a Go DSL for declaring object models in code.

It builds the same metamodel specs a YAML model would produce, but with typed
closures over your own Go types instead of reflection or expressions. This is
particularly useful for small embedded models and for unit testing.

Example usage:

	b := dsl.New()

	counter := dsl.Entity[*Counter](b, "demo.Counter").
		Title(func(c *Counter) string { return fmt.Sprintf("Counter at %d", c.Count) })

	counter.Property("count", "int", func(c *Counter) any { return c.Count }).
		Set(func(c *Counter, v any) (*Counter, error) { c.Count = v.(int); return c, nil }).
		Validate(func(_ *Counter, v any) string {
			if v.(int) < 0 {
				return "count cannot go below zero"
			}
			return ""
		})

	add := counter.Action("add", "demo.Counter").
		Invoke(func(c *Counter, args []any) (any, error) { c.Count += args[0].(int); return c, nil })
	add.Param("step", "int").Default(func(*Counter, []any) any { return 1 })

	// Composite values are edited as a whole through their mixin, which
	// receives the current value rather than the owner.
	money := dsl.Composite[Money](b, "demo.Money")
	money.Mixin("change", func(m Money, args []any) (Money, error) {
		m.Amount = args[0].(int)
		return m, nil
	}).Param("amount", "int")

	registry := b.MustBuild()
	// ... pass registry to parley.New(...)
*/
package dsl
