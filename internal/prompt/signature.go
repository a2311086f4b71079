// Package prompt renders ranked catalog entries and conversation context into
// the message lists sent to the model.
package prompt

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/apiscout/apiscout/internal/catalog"
)

const maxSchemaDepth = 8

// RenderSignature renders a callable entry as its dotted path plus a
// multi-line argument list, one argument per line, with descriptions as
// trailing comments.
func RenderSignature(s catalog.Spec) string {
	args := renderArguments(s)
	if len(args) == 0 {
		return s.Path() + "()"
	}
	return s.Path() + "(\n" + strings.Join(args, "\n") + "\n)"
}

func renderArguments(s catalog.Spec) []string {
	if s.Function == nil {
		return nil
	}
	out := make([]string, 0, len(s.Function.Arguments))
	for _, arg := range s.Function.Arguments {
		out = append(out, renderProperty(arg))
	}
	return out
}

func renderProperty(p catalog.Property) string {
	suffix := ","
	if p.Description != "" {
		suffix += "  // " + p.Description
	}

	t := p.Type
	switch t.Kind {
	case catalog.PropVoid:
		return p.Name + suffix
	case catalog.PropPrimitive:
		return p.Name + ": " + t.Type + suffix
	case catalog.PropPlain:
		return fmt.Sprintf("%s: %v%s", p.Name, t.Value, suffix)
	case catalog.PropFunction:
		if t.TypeName != "" {
			return p.Name + ": " + t.TypeName + suffix
		}
		return p.Name + ": function" + suffix
	case catalog.PropArray:
		if t.Items != nil && t.Items.Type != "" {
			item := t.Items.Type
			return fmt.Sprintf("%s: [%s, %s, ...]%s", p.Name, item, item, suffix)
		}
		if t.Schema != nil {
			return p.Name + ": " + renderSchema(t.Schema) + descComment(p.Description)
		}
		return p.Name + ": []" + suffix
	case catalog.PropObject:
		if len(t.Properties) > 0 {
			var lines []string
			for _, sub := range t.Properties {
				lines = append(lines, renderProperty(sub))
			}
			return p.Name + ": {\n" + strings.Join(lines, "\n") + "\n}" + suffix
		}
		if t.Schema != nil {
			return p.Name + ": " + renderSchema(t.Schema) + descComment(p.Description)
		}
		log.Printf("prompt: object argument %q has no properties or schema", p.Name)
		return p.Name + ": object" + suffix
	default:
		return p.Name + suffix
	}
}

func descComment(desc string) string {
	if desc == "" {
		return ""
	}
	return "  // " + desc
}

// renderSchema renders a JSON-schema-typed argument, resolving local $ref
// definitions. The result carries its own trailing comma.
func renderSchema(schema map[string]any) string {
	defs, _ := schema["definitions"].(map[string]any)
	root := schemaRoot(schema, defs)
	if root == nil {
		return "object,"
	}
	return renderSchemaValue(root, defs, 0)
}

// schemaRoot picks the node to render: the schema itself when typed, a $ref
// target, or the definition no other definition points at.
func schemaRoot(schema, defs map[string]any) map[string]any {
	if ref, ok := schema["$ref"].(string); ok {
		return resolveRef(ref, defs)
	}
	if _, ok := schema["type"]; ok {
		return schema
	}
	if len(defs) == 0 {
		return nil
	}

	referenced := map[string]bool{}
	for _, def := range defs {
		raw := fmt.Sprintf("%v", def)
		for name := range defs {
			if strings.Contains(raw, "#/definitions/"+name) {
				referenced[name] = true
			}
		}
	}

	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !referenced[name] {
			node, _ := defs[name].(map[string]any)
			return node
		}
	}
	node, _ := defs[names[0]].(map[string]any)
	return node
}

func resolveRef(ref string, defs map[string]any) map[string]any {
	name := strings.TrimPrefix(ref, "#/definitions/")
	node, _ := defs[name].(map[string]any)
	if node == nil {
		log.Printf("prompt: unresolvable schema ref %q", ref)
	}
	return node
}

func renderSchemaValue(node, defs map[string]any, depth int) string {
	if depth > maxSchemaDepth || node == nil {
		return "object,"
	}
	if ref, ok := node["$ref"].(string); ok {
		return renderSchemaValue(resolveRef(ref, defs), defs, depth+1)
	}

	switch node["type"] {
	case "array":
		items, _ := node["items"].(map[string]any)
		if ref, ok := items["$ref"].(string); ok {
			items = resolveRef(ref, defs)
		}
		if items != nil && items["type"] == "object" {
			return "[{\n" + schemaPropLines(items, defs, depth+1) + "\n},],"
		}
		if items != nil {
			if t, ok := items["type"].(string); ok {
				return fmt.Sprintf("[%s, %s, ...],", t, t)
			}
		}
		return "[],"
	case "object":
		return "{\n" + schemaPropLines(node, defs, depth+1) + "\n},"
	default:
		if t, ok := node["type"].(string); ok {
			return t + ","
		}
		return "object,"
	}
}

func schemaPropLines(node, defs map[string]any, depth int) string {
	props, _ := node["properties"].(map[string]any)
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	var lines []string
	for _, name := range names {
		prop, _ := props[name].(map[string]any)
		line := name + ": " + renderSchemaValue(prop, defs, depth)
		if desc, ok := prop["description"].(string); ok && desc != "" {
			line += "  // " + desc
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
