/*
Package domain contains the value types shared by every layer of the interaction core.

It is kept pure and free of external dependencies: no metamodel, no I/O, no persistence.

# Key Entities

  - Consent: the allow/veto outcome of a single rule evaluation.
  - InteractionVeto: a Consent tagged with a VetoType (NOT_FOUND, HIDDEN, READONLY, INVALID,
    ACTION_NOT_SAFE, ACTION_NOT_IDEMPOTENT, ACTION_PARAM_INVALID). Vetoes are data, not errors.
  - Bookmark: the content identity of a domain object, stable across requests.
  - PendingParams: the serializable capture of an unsubmitted parameter negotiation.
  - LifecycleHooks: observability callbacks fired by the interaction layer.
*/
package domain
