package dto

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/managed"
	"github.com/aretw0/parley/pkg/metamodel"
)

// Describer renders managed objects and members into wire shapes and reads
// arguments back. Entities and view models travel as bookmarks.
type Describer struct {
	env *managed.Env
}

func NewDescriber(env *managed.Env) *Describer {
	return &Describer{env: env}
}

// Resolve reads a bookmark in "<type>:<id>" form.
func (d *Describer) Resolve(ctx context.Context, bookmark string) (metamodel.ManagedObject, error) {
	b, err := domain.ParseBookmark(bookmark)
	if err != nil {
		return metamodel.ManagedObject{}, err
	}
	if d.env.Objects == nil {
		return metamodel.ManagedObject{}, fmt.Errorf("no object manager to resolve %s", b)
	}
	return d.env.Objects.Resolve(ctx, b)
}

// Bookmark returns the bookmark of obj, or "" when it has none.
func (d *Describer) Bookmark(obj metamodel.ManagedObject) string {
	if d.env.Objects == nil {
		return ""
	}
	b, err := d.env.Objects.Bookmark(obj)
	if err != nil {
		return ""
	}
	return b.String()
}

func (d *Describer) Ref(obj metamodel.ManagedObject) ObjectRef {
	return ObjectRef{
		Bookmark: d.Bookmark(obj),
		Type:     obj.LogicalTypeName(),
		Title:    d.env.Formatter.Title(obj),
	}
}

func (d *Describer) Property(ctx context.Context, p *managed.Property) PropertyResponse {
	v := p.PropertyValue()
	text, err := d.env.Formatter.ParsableText(v)
	if err != nil {
		text = d.Bookmark(v)
	}
	return PropertyResponse{
		MemberResponse: member(ctx, p, p.Descriptor().Name),
		Type:           p.Descriptor().TypeName,
		Value:          d.env.Formatter.Title(v),
		Text:           text,
	}
}

type laidOut interface {
	managed.Member
	Usability(ctx context.Context) *domain.InteractionVeto
}

func member(ctx context.Context, m laidOut, name string) MemberResponse {
	resp := MemberResponse{ID: m.ID(), Name: name}
	if v := m.Usability(ctx); v != nil {
		resp.Disabled = v.ReasonAsString()
	}
	return resp
}

// Describe lists the members of owner that are visible at where. Vetoes
// computed for the layout are not reported.
func (d *Describer) Describe(ctx context.Context, owner metamodel.ManagedObject, where domain.Where) ObjectResponse {
	resp := ObjectResponse{
		ObjectRef:   d.Ref(owner),
		Properties:  []PropertyResponse{},
		Collections: []MemberResponse{},
		Actions:     []ActionResponse{},
	}
	if owner.Spec == nil {
		return resp
	}
	for _, pd := range owner.Spec.Properties {
		p, _ := managed.LookupProperty(ctx, d.env, owner, pd.ID, where)
		if p.Visibility(ctx) != nil {
			continue
		}
		resp.Properties = append(resp.Properties, d.Property(ctx, p))
	}
	for _, cd := range owner.Spec.Collections {
		c, _ := managed.LookupCollection(ctx, d.env, owner, cd.ID, where)
		if c.Visibility(ctx) != nil {
			continue
		}
		resp.Collections = append(resp.Collections, member(ctx, c, cd.Name))
	}
	for _, ad := range owner.Spec.Actions {
		a, _ := managed.LookupAction(ctx, d.env, owner, ad.ID, where)
		if a.Visibility(ctx) != nil {
			continue
		}
		ar := ActionResponse{
			MemberResponse: member(ctx, a, ad.Name),
			Semantics:      ad.Semantics,
			Params:         make([]ParamResponse, 0, len(ad.Params)),
		}
		for _, p := range ad.Params {
			ar.Params = append(ar.Params, ParamResponse{
				ID:       p.ID,
				Name:     p.Name,
				Type:     p.TypeName,
				Plural:   p.Plural,
				Optional: p.Optional,
			})
		}
		resp.Actions = append(resp.Actions, ar)
	}
	return resp
}

// Parse reads text as a value of spec. Entities and view models are given
// by bookmark; plural values are comma separated.
func (d *Describer) Parse(ctx context.Context, spec *metamodel.ObjectSpec, plural bool, text string) (metamodel.ManagedObject, error) {
	if spec == nil {
		return metamodel.ManagedObject{}, fmt.Errorf("%w: cannot parse %q", domain.ErrUnknownType, text)
	}
	if plural {
		var elems []metamodel.ManagedObject
		for _, part := range strings.Split(text, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			v, err := d.Parse(ctx, spec, false, part)
			if err != nil {
				return metamodel.ManagedObject{}, err
			}
			elems = append(elems, v)
		}
		return metamodel.Packed(spec, elems), nil
	}
	if spec.Kind.IsValue() || text == "" {
		return d.env.Formatter.Parse(spec, text)
	}
	obj, err := d.Resolve(ctx, text)
	if err != nil {
		return metamodel.ManagedObject{}, err
	}
	if obj.LogicalTypeName() != spec.LogicalTypeName {
		return metamodel.ManagedObject{}, fmt.Errorf("expected a %s, got a %s", spec.LogicalTypeName, obj.LogicalTypeName())
	}
	return obj, nil
}

// Apply proposes the given arguments, keyed by parameter id, on model.
// Parameters that are not given keep their defaults.
func (d *Describer) Apply(ctx context.Context, model *managed.ParameterNegotiationModel, args map[string]string) error {
	for _, pm := range model.ParamModels() {
		text, set := args[pm.Descriptor().ID]
		if !set {
			continue
		}
		v, err := d.Parse(ctx, pm.ElementSpec(), pm.Descriptor().Plural, text)
		if err != nil {
			return fmt.Errorf("invalid argument '%s': %w", pm.Descriptor().ID, err)
		}
		pm.SetValue(v)
	}
	return nil
}

// Veto renders a veto.
func Veto(v domain.InteractionVeto) VetoResponse {
	return VetoResponse{Veto: v.Type().String(), Reason: v.ReasonAsString()}
}
