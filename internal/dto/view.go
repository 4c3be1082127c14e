// Package dto holds the wire shapes shared by the HTTP and MCP surfaces and
// the Describer that fills them from managed members.
package dto

import (
	"github.com/aretw0/parley/pkg/domain"
)

// ObjectRef names an object. Bookmark is empty for values without content
// identity.
type ObjectRef struct {
	Bookmark string `json:"bookmark,omitempty" jsonschema_description:"Reference to pass back as <type>:<id>"`
	Type     string `json:"type" jsonschema_description:"Logical type name"`
	Title    string `json:"title" jsonschema_description:"Human readable label"`
}

// ObjectResponse describes an object and the members visible where asked.
type ObjectResponse struct {
	ObjectRef
	Properties  []PropertyResponse `json:"properties"`
	Collections []MemberResponse   `json:"collections"`
	Actions     []ActionResponse   `json:"actions"`
}

type MemberResponse struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	// Disabled carries the usability veto reason, if any.
	Disabled string `json:"disabled,omitempty"`
}

type PropertyResponse struct {
	MemberResponse
	Type  string `json:"type"`
	Value string `json:"value"`
	// Text is the value in the form PUT accepts back.
	Text  string `json:"text"`
	Owner string `json:"owner,omitempty"`
}

type ParamResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Type     string `json:"type"`
	Plural   bool   `json:"plural,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

type ActionResponse struct {
	MemberResponse
	Semantics domain.ActionSemantics `json:"semantics"`
	Params    []ParamResponse        `json:"params"`
}

type CollectionResponse struct {
	ID       string      `json:"id"`
	Elements []ObjectRef `json:"elements"`
}

type ModifyRequest struct {
	Value string `json:"value"`
}

// InvokeRequest carries arguments in parsable text form keyed by parameter
// id. Omitted parameters keep their defaults.
type InvokeRequest struct {
	Args map[string]string `json:"args"`
}

type InvokeResponse struct {
	Result *ObjectRef `json:"result,omitempty"`
	Owner  string     `json:"owner,omitempty"`
}

type VetoResponse struct {
	Veto   string `json:"veto" jsonschema_description:"Veto type, e.g. HIDDEN or INVALID"`
	Reason string `json:"reason"`
}

// Event is pushed to the subscribers of an object.
type Event struct {
	Type     domain.EventType `json:"type"`
	MemberID string           `json:"member_id"`
	Owner    string           `json:"owner,omitempty"`
}

