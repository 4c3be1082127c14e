/*
Package parley is the member-interaction core of a domain-object framework.

Viewers (HTML pages, HTTP clients, agents) never call domain objects directly.
They start an interaction with one member of an object (an action, a property
or a collection), chain the checks they need, and either get the member back
or a typed veto explaining why not.

# Concept

An interaction is a railway: every check runs only while the previous ones
passed, and the first veto sticks. Vetoes are data, not errors. Their type
tells a viewer what to do with the member:

  - NOT_FOUND and HIDDEN: do not render it.
  - READONLY: render it disabled, with the reason as tooltip.
  - INVALID and ACTION_PARAM_INVALID: render the reason next to the input.
  - ACTION_NOT_SAFE and ACTION_NOT_IDEMPOTENT: refuse the request method.

Action parameters are negotiated before invocation. A negotiation seeds
defaults left to right, offers choices or autocomplete matches, and only
shows validation messages once the user tried to submit. A pending
negotiation can be parked as a snapshot of bookmarks and resumed on the
next request.

# Usage

	registry := metamodel.NewRegistry()
	registry.MustRegister(customerSpec, orderSpec)

	fw, err := parley.New(registry)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	owner, _ := fw.Adapt(customer)

	ai := fw.Action(ctx, owner, "placeOrder", domain.WhereObjectForms).
		CheckVisibility(ctx).
		CheckUsability(ctx)

	model := ai.StartParameterNegotiation(ctx)
	_ = model.ParamModel(0).SetParsableText("apple")

	result, err := ai.InvokeWith(ctx, model)
	if err != nil {
		log.Fatal(err)
	}
	if veto, vetoed := result.GetVeto(); vetoed {
		log.Println("refused:", veto.ReasonAsString())
	}

Models can also be declared in YAML with CEL rules, see package yamlspec, and
served over HTTP or MCP, see the adapters under pkg/adapters.
*/
package parley
