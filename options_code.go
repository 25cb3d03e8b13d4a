// FILE: lixenwraith/optcfg/options_code.go
package optcfg

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// ExprOption holds an HCL expression. The expression is checked for syntax
// when assigned and evaluated on demand.
type ExprOption struct {
	*option[string]
}

// NewExprOption declares an expression option.
func NewExprOption(name, description string, settings ...OptionSetting) (*ExprOption, error) {
	kind := &valueKind[string]{
		desc:    func() string { return "expr" },
		parse:   func(s string) (string, error) { return strings.TrimSpace(s), nil },
		format:  func(v string) string { return v },
		present: func(v string) string { return indentText(v, false) },
		equal:   func(a, b string) bool { return a == b },
		check: func(v string) error {
			_, err := parseExpr(v)
			return err
		},
		save: saveString(func(v string) string { return v }),
		load: stringArm(func(s string) (string, error) { return s, nil }),
	}
	base, err := newOption(name, description, kind, applySettings(settings))
	if err != nil {
		return nil, err
	}
	return &ExprOption{base}, nil
}

// Expression returns the parsed expression.
func (o *ExprOption) Expression() (hcl.Expression, error) {
	v, ok := o.Get()
	if !ok {
		return nil, &ValidationError{Path: o.Name(), Message: "no value"}
	}
	return parseExpr(v)
}

// Evaluate evaluates the expression in ctx, which may be nil.
func (o *ExprOption) Evaluate(ctx *hcl.EvalContext) (cty.Value, error) {
	expr, err := o.Expression()
	if err != nil {
		return cty.NilVal, err
	}
	val, diags := expr.Value(ctx)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("%s: evaluation failed: %w", o.Name(), diags)
	}
	return val, nil
}

// EvaluateInto evaluates the expression and decodes the result into target.
func (o *ExprOption) EvaluateInto(ctx *hcl.EvalContext, target any) error {
	expr, err := o.Expression()
	if err != nil {
		return err
	}
	if diags := gohcl.DecodeExpression(expr, ctx, target); diags.HasErrors() {
		return fmt.Errorf("%s: evaluation failed: %w", o.Name(), diags)
	}
	return nil
}

// Variables returns the root names of all variables the expression refers to.
func (o *ExprOption) Variables() []string {
	expr, err := o.Expression()
	if err != nil {
		return nil
	}
	seen := make(map[string]bool)
	for _, traversal := range expr.Variables() {
		seen[traversal.RootName()] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func parseExpr(src string) (hcl.Expression, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "expression", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid expression: %w", diags)
	}
	return expr, nil
}

// CodeOption holds a block of HCL configuration source. Leading whitespace of
// the lines is preserved in configuration files with vertical bars.
type CodeOption struct {
	*option[string]
}

// NewCodeOption declares a code option.
func NewCodeOption(name, description string, settings ...OptionSetting) (*CodeOption, error) {
	kind := &valueKind[string]{
		desc:   func() string { return "code" },
		parse:  func(s string) (string, error) { return unindentVerticals(s), nil },
		format: func(v string) string { return v },
		present: func(v string) string {
			return indentText(v, strings.Contains(v, "\n") || needsVerticals(v))
		},
		equal: func(a, b string) bool { return a == b },
		check: func(v string) error {
			_, err := parseBody(v)
			return err
		},
		save: saveString(func(v string) string { return v }),
		load: stringArm(func(s string) (string, error) { return s, nil }),
	}
	base, err := newOption(name, description, kind, applySettings(settings))
	if err != nil {
		return nil, err
	}
	return &CodeOption{base}, nil
}

// Body returns the parsed configuration body.
func (o *CodeOption) Body() (hcl.Body, error) {
	v, ok := o.Get()
	if !ok {
		return nil, &ValidationError{Path: o.Name(), Message: "no value"}
	}
	return parseBody(v)
}

// Decode decodes the body into target using gohcl struct tags.
func (o *CodeOption) Decode(ctx *hcl.EvalContext, target any) error {
	body, err := o.Body()
	if err != nil {
		return err
	}
	if diags := gohcl.DecodeBody(body, ctx, target); diags.HasErrors() {
		return fmt.Errorf("%s: decode failed: %w", o.Name(), diags)
	}
	return nil
}

func parseBody(src string) (hcl.Body, error) {
	file, diags := hclsyntax.ParseConfig([]byte(src), "code", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid code: %w", diags)
	}
	return file.Body, nil
}
