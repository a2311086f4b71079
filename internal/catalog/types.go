package catalog

// Kind identifies what sort of catalog entry a Spec describes.
type Kind string

const (
	KindAPIFunction    Kind = "apiFunction"
	KindCustomFunction Kind = "customFunction"
	KindServerFunction Kind = "serverFunction"
	KindAuthFunction   Kind = "authFunction"
	KindWebhookHandle  Kind = "webhookHandle"
	KindServerVariable Kind = "serverVariable"
)

// FunctionLike reports whether the kind is callable (as opposed to a variable).
func (k Kind) FunctionLike() bool {
	return k != KindServerVariable
}

// PropertyKind enumerates the shapes an argument type can take.
const (
	PropVoid      = "void"
	PropPrimitive = "primitive"
	PropArray     = "array"
	PropObject    = "object"
	PropFunction  = "function"
	PropPlain     = "plain"
)

// PropertyType describes the type of a single argument or nested property.
type PropertyType struct {
	Kind       string         `json:"kind"`
	Type       string         `json:"type,omitempty"`
	Items      *PropertyType  `json:"items,omitempty"`
	Schema     map[string]any `json:"schema,omitempty"`
	Properties []Property     `json:"properties,omitempty"`
	TypeName   string         `json:"typeName,omitempty"`
	Value      any            `json:"value,omitempty"`
	Spec       *Signature     `json:"spec,omitempty"`
}

// Property is a named argument or object property with its type.
type Property struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Required    bool         `json:"required"`
	Nullable    bool         `json:"nullable,omitempty"`
	Type        PropertyType `json:"type"`
}

// Signature describes a callable's arguments and return type.
type Signature struct {
	Arguments   []Property     `json:"arguments"`
	ReturnType  map[string]any `json:"returnType,omitempty"`
	Synchronous bool           `json:"synchronous,omitempty"`
}

// VariableInfo carries variable-only metadata.
type VariableInfo struct {
	Secret bool `json:"secret"`
}

// Spec is one catalog entry: a discoverable function, event handler, or
// server variable. It is an immutable per-request snapshot; nothing in this
// service owns or persists it.
type Spec struct {
	ID          string        `json:"id"`
	Context     string        `json:"context"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Kind        Kind          `json:"type"`
	Function    *Signature    `json:"function,omitempty"`
	Variable    *VariableInfo `json:"variable,omitempty"`
	Method      string        `json:"method,omitempty"`
}

// Path returns the entry's dotted access path as exposed in the client library.
func (s Spec) Path() string {
	prefix := "lib."
	if s.Kind == KindServerVariable {
		prefix = "vars."
	}
	if s.Context == "" {
		return prefix + s.Name
	}
	return prefix + s.Context + "." + s.Name
}

// FilterToRealIDs returns the subset of ids that still exist in the given
// catalog snapshot, preserving input order. Entries can be deleted between
// turns, so ids extracted from a model answer must be re-validated.
func FilterToRealIDs(specs []Spec, ids []string) []string {
	real := make(map[string]bool, len(specs))
	for _, s := range specs {
		real[s.ID] = true
	}

	var out []string
	for _, id := range ids {
		if real[id] {
			out = append(out, id)
		}
	}
	return out
}

// ByIDs returns the specs whose ids are in the given set, preserving catalog order.
func ByIDs(specs []Spec, ids []string) []Spec {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var out []Spec
	for _, s := range specs {
		if want[s.ID] {
			out = append(out, s)
		}
	}
	return out
}
