// Package testutils holds the shop model shared by the package tests.
package testutils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/binding"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/managed"
	"github.com/aretw0/parley/pkg/metamodel"
)

// Logical type names of the shop model.
const (
	TypeCustomer = "shop.Customer"
	TypeOrder    = "shop.Order"
	TypeAddress  = "shop.Address"
	TypeFilter   = "shop.Filter"
)

// Products is the catalogue offered as choices.
var Products = []string{"apple", "apricot", "pear", "plum"}

type Customer struct {
	Name         string
	Discount     int
	Address      Address
	Orders       []*Order
	OrdersHidden bool
	Frozen       bool
}

type Order struct {
	Product  string
	Quantity int
}

// Address is a composite value edited through its "update" mixin.
type Address struct {
	Street string
	City   string
}

func (a Address) String() string { return a.Street + "|" + a.City }

func parseAddress(text string) (any, error) {
	street, city, ok := strings.Cut(text, "|")
	if !ok {
		return nil, fmt.Errorf("malformed address %q", text)
	}
	return Address{Street: street, City: city}, nil
}

// Filter is an immutable view model: setters return a new instance.
type Filter struct {
	Term  string
	Limit int
}

// Shop is a registry, an object manager and an env over the shop model.
type Shop struct {
	Registry *metamodel.Registry
	Objects  *memory.ObjectManager
	Env      *managed.Env

	// DefaultCalls counts parameter default evaluations by param id.
	DefaultCalls map[string]int
}

// NewShop builds the shop model. opts are applied on top of the object
// manager and formatter.
func NewShop(t testing.TB, opts ...managed.EnvOption) *Shop {
	t.Helper()

	s := &Shop{
		Registry:     metamodel.NewRegistry(),
		DefaultCalls: make(map[string]int),
	}
	types := binding.NewTypes()
	require.NoError(t, types.RegisterSpecs(s.Registry))

	s.Registry.MustRegister(s.customerSpec(), orderSpec(), addressSpec(), filterSpec())
	require.NoError(t, s.Registry.Validate())

	s.Objects = memory.NewObjectManager(s.Registry)
	base := []managed.EnvOption{
		managed.WithObjectManager(s.Objects),
		managed.WithFormatter(binding.NewFormatter(types)),
	}
	s.Env = managed.NewEnv(s.Registry, append(base, opts...)...)
	return s
}

// Adapt wraps pojo, failing the test on unknown types.
func (s *Shop) Adapt(t testing.TB, pojo any) metamodel.ManagedObject {
	t.Helper()
	obj, err := s.Registry.Adapt(pojo)
	require.NoError(t, err)
	return obj
}

// Value wraps a plain value of a registered value type.
func (s *Shop) Value(t testing.TB, typeName string, v any) metamodel.ManagedObject {
	t.Helper()
	spec, ok := s.Registry.Spec(typeName)
	require.True(t, ok, "unknown type %s", typeName)
	return metamodel.Of(spec, v)
}

func allow() (domain.Consent, error) { return domain.Allow(), nil }

func (s *Shop) customerSpec() *metamodel.ObjectSpec {
	customer := func(o metamodel.ManagedObject) *Customer { return o.Pojo.(*Customer) }

	return &metamodel.ObjectSpec{
		LogicalTypeName: TypeCustomer,
		Kind:            metamodel.KindEntity,
		GoType:          reflect.TypeOf(&Customer{}),
		TitleFunc:       func(p any) string { return p.(*Customer).Name },
		Properties: []*metamodel.PropertyDescriptor{
			{
				ID: "name", Name: "Name", TypeName: "string",
				Disabled: func(rc metamodel.RuleContext) (domain.Consent, error) {
					if customer(rc.Owner).Frozen {
						return domain.Veto("customer is frozen"), nil
					}
					return allow()
				},
				Get: func(o any) (any, error) { return o.(*Customer).Name, nil },
				Set: func(o, v any) (any, error) { o.(*Customer).Name = v.(string); return o, nil },
			},
			{
				ID: "discount", Name: "Discount", TypeName: "int",
				Validate: func(_ metamodel.RuleContext, v metamodel.ManagedObject) (domain.Consent, error) {
					if v.Pojo.(int) < 0 {
						return domain.Veto("discount must not be negative"), nil
					}
					return allow()
				},
				Get: func(o any) (any, error) { return o.(*Customer).Discount, nil },
				Set: func(o, v any) (any, error) { o.(*Customer).Discount = v.(int); return o, nil },
			},
			{
				ID: "address", Name: "Address", TypeName: TypeAddress, Optional: true,
				Get: func(o any) (any, error) {
					if a := o.(*Customer).Address; a != (Address{}) {
						return a, nil
					}
					return nil, nil
				},
				Set: func(o, v any) (any, error) {
					if v == nil {
						o.(*Customer).Address = Address{}
					} else {
						o.(*Customer).Address = v.(Address)
					}
					return o, nil
				},
			},
		},
		Collections: []*metamodel.CollectionDescriptor{
			{
				ID: "orders", Name: "Orders", ElementType: TypeOrder,
				Hidden: func(rc metamodel.RuleContext) (domain.Consent, error) {
					if customer(rc.Owner).OrdersHidden {
						return domain.Veto("orders are private"), nil
					}
					return allow()
				},
				Get: func(o any) ([]any, error) {
					var out []any
					for _, ord := range o.(*Customer).Orders {
						out = append(out, ord)
					}
					return out, nil
				},
			},
		},
		Actions: []*metamodel.ActionDescriptor{
			{
				ID: "placeOrder", Name: "Place Order", Semantics: domain.SemanticsNonIdempotent, ReturnType: TypeOrder,
				Params: []*metamodel.ParameterDescriptor{
					{
						ID: "product", Name: "Product", TypeName: "string",
						Choices: func(metamodel.RuleContext, metamodel.Arguments) ([]any, error) {
							out := make([]any, len(Products))
							for i, p := range Products {
								out[i] = p
							}
							return out, nil
						},
					},
					{
						ID: "quantity", Name: "Quantity", TypeName: "int",
						Default: func(metamodel.RuleContext, metamodel.Arguments) (any, error) {
							s.DefaultCalls["quantity"]++
							return 1, nil
						},
						Validate: func(_ metamodel.RuleContext, _ metamodel.Arguments, v metamodel.ManagedObject) (domain.Consent, error) {
							if v.Pojo.(int) <= 0 {
								return domain.Veto("quantity must be positive"), nil
							}
							return allow()
						},
					},
				},
				Disabled: func(rc metamodel.RuleContext) (domain.Consent, error) {
					if customer(rc.Owner).Frozen {
						return domain.Veto("customer is frozen"), nil
					}
					return allow()
				},
				Invoke: func(ic metamodel.InvocationContext) (any, error) {
					c := customer(ic.Owner)
					o := &Order{Product: ic.Args[0].Pojo.(string), Quantity: ic.Args[1].Pojo.(int)}
					c.Orders = append(c.Orders, o)
					return o, nil
				},
			},
			{
				ID: "cancel", Name: "Cancel", Semantics: domain.SemanticsIdempotent, ReturnType: TypeOrder,
				Invoke: func(ic metamodel.InvocationContext) (any, error) {
					c := customer(ic.Owner)
					c.Orders = nil
					return nil, nil
				},
			},
			{
				ID: "summary", Name: "Summary", Semantics: domain.SemanticsSafe, ReturnType: "string",
				Invoke: func(ic metamodel.InvocationContext) (any, error) {
					c := customer(ic.Owner)
					return fmt.Sprintf("%s (%d orders)", c.Name, len(c.Orders)), nil
				},
			},
			{
				ID: "greet", Name: "Greet", Semantics: domain.SemanticsSafe, ReturnType: "string",
				Params: []*metamodel.ParameterDescriptor{
					{
						ID: "salutation", TypeName: "string",
						Default: func(metamodel.RuleContext, metamodel.Arguments) (any, error) {
							s.DefaultCalls["salutation"]++
							return "Hello", nil
						},
					},
					{
						ID: "message", TypeName: "string",
						Default: func(rc metamodel.RuleContext, args metamodel.Arguments) (any, error) {
							s.DefaultCalls["message"]++
							prev, _ := args.Value(0).Pojo.(string)
							return prev + " " + customer(rc.Owner).Name, nil
						},
					},
				},
				Validate: func(_ metamodel.RuleContext, args metamodel.Arguments) (domain.Consent, error) {
					if args.Value(1).Pojo == args.Value(0).Pojo {
						return domain.Veto("message must differ from salutation"), nil
					}
					return allow()
				},
				Invoke: func(ic metamodel.InvocationContext) (any, error) {
					return ic.Args[1].Pojo.(string) + "!", nil
				},
			},
			{
				ID: "findProduct", Name: "Find Product", Semantics: domain.SemanticsSafe, ReturnType: "string",
				Params: []*metamodel.ParameterDescriptor{
					{
						ID: "product", TypeName: "string", MinSearchLength: 2,
						AutoComplete: func(_ metamodel.RuleContext, _ metamodel.Arguments, search string) ([]any, error) {
							var out []any
							for _, p := range Products {
								if strings.HasPrefix(p, search) {
									out = append(out, p)
								}
							}
							return out, nil
						},
					},
				},
				Invoke: func(ic metamodel.InvocationContext) (any, error) { return ic.Args[0].Pojo, nil },
			},
			{
				ID: "mergeOrders", Name: "Merge Orders", ReturnType: TypeOrder,
				Params: []*metamodel.ParameterDescriptor{
					{ID: "orders", TypeName: TypeOrder, Plural: true},
					{ID: "note", TypeName: "string", Optional: true},
				},
				Invoke: func(ic metamodel.InvocationContext) (any, error) {
					merged := &Order{}
					for _, o := range ic.Args[0].Pojos() {
						merged.Product = o.(*Order).Product
						merged.Quantity += o.(*Order).Quantity
					}
					return merged, nil
				},
			},
			{
				ID: "relocate", Name: "Relocate", Semantics: domain.SemanticsIdempotent, ReturnType: TypeCustomer,
				Params: []*metamodel.ParameterDescriptor{
					{ID: "destination", Name: "Destination", TypeName: TypeAddress},
				},
				Invoke: func(ic metamodel.InvocationContext) (any, error) {
					c := customer(ic.Owner)
					c.Address = ic.Args[0].Pojo.(Address)
					return c, nil
				},
			},
			{
				ID: "explode", Name: "Explode", Semantics: domain.SemanticsIdempotent,
				Invoke: func(metamodel.InvocationContext) (any, error) {
					return nil, errors.New("boom")
				},
			},
			{
				ID: "audit", Name: "Audit", Semantics: domain.SemanticsSafe,
				Hidden: func(metamodel.RuleContext) (domain.Consent, error) {
					panic("audit rule is broken")
				},
				Invoke: func(metamodel.InvocationContext) (any, error) { return nil, nil },
			},
		},
	}
}

func orderSpec() *metamodel.ObjectSpec {
	return &metamodel.ObjectSpec{
		LogicalTypeName: TypeOrder,
		Kind:            metamodel.KindEntity,
		GoType:          reflect.TypeOf(&Order{}),
		TitleFunc: func(p any) string {
			o := p.(*Order)
			return fmt.Sprintf("%d x %s", o.Quantity, o.Product)
		},
		Properties: []*metamodel.PropertyDescriptor{
			{ID: "product", TypeName: "string", Get: func(o any) (any, error) { return o.(*Order).Product, nil }},
			{ID: "quantity", TypeName: "int", Get: func(o any) (any, error) { return o.(*Order).Quantity, nil }},
		},
	}
}

func addressSpec() *metamodel.ObjectSpec {
	return &metamodel.ObjectSpec{
		LogicalTypeName: TypeAddress,
		Kind:            metamodel.KindComposite,
		GoType:          reflect.TypeOf(Address{}),
		TitleFunc:       func(p any) string { a := p.(Address); return a.Street + ", " + a.City },
		Encode:          func(p any) (string, error) { return p.(Address).String(), nil },
		Decode:          parseAddress,
		EmptyValue:      func() any { return Address{} },
		CompositeMixin:  "update",
		Actions: []*metamodel.ActionDescriptor{
			{
				ID: "update", Name: "Update", Semantics: domain.SemanticsIdempotent, ReturnType: TypeAddress,
				Params: []*metamodel.ParameterDescriptor{
					{ID: "street", TypeName: "string"},
					{ID: "city", TypeName: "string"},
				},
				Invoke: func(ic metamodel.InvocationContext) (any, error) {
					cur := ic.Target.Pojo.(Address)
					cur.Street = ic.Args[0].Pojo.(string)
					cur.City = ic.Args[1].Pojo.(string)
					return cur, nil
				},
			},
		},
	}
}

func filterSpec() *metamodel.ObjectSpec {
	return &metamodel.ObjectSpec{
		LogicalTypeName: TypeFilter,
		Kind:            metamodel.KindViewModel,
		GoType:          reflect.TypeOf(Filter{}),
		Properties: []*metamodel.PropertyDescriptor{
			{
				ID: "term", TypeName: "string",
				Get: func(o any) (any, error) { return o.(Filter).Term, nil },
				Set: func(o, v any) (any, error) {
					f := o.(Filter)
					f.Term = v.(string)
					return f, nil
				},
			},
			{
				ID: "limit", TypeName: "int", Optional: true,
				Get: func(o any) (any, error) { return o.(Filter).Limit, nil },
				Set: func(o, v any) (any, error) {
					f := o.(Filter)
					if v == nil {
						f.Limit = 0
					} else {
						f.Limit = v.(int)
					}
					return f, nil
				},
			},
		},
	}
}
