package util

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// instruction templates are prompts, not markup; text/template keeps
// state values verbatim instead of HTML-escaping them.
var templateFuncs = template.FuncMap{
	"default": func(fallback any, val any) any {
		if val == nil || val == "" {
			return fallback
		}
		return val
	},
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
	},
	"join": func(sep string, items []any) string {
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = fmt.Sprintf("%v", item)
		}
		return strings.Join(out, sep)
	},
}

// RenderTemplate expands {{.key}} references in an instruction against the
// session state. Text without template markers is returned untouched so
// plain instructions pay no parsing cost.
func RenderTemplate(text string, state map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := template.New("instruction").Funcs(templateFuncs).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse instruction template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, state); err != nil {
		return "", fmt.Errorf("execute instruction template: %w", err)
	}

	return buf.String(), nil
}
