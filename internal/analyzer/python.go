package analyzer

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/dshills/monosplit/pkg/types"
)

// pythonClassifier applies the category rules to tree-sitter-python nodes
type pythonClassifier struct{}

func (pythonClassifier) language() *sitter.Language {
	return python.GetLanguage()
}

// invalid rejects Python 2 statements that the grammar still parses
func (pythonClassifier) invalid(root *sitter.Node) (*sitter.Node, string) {
	bad := findNode(root, "print_statement", "exec_statement")
	if bad == nil {
		return nil, ""
	}
	return bad, fmt.Sprintf("python 2 %s is not supported", bad.Type())
}

func (c pythonClassifier) classify(node *sitter.Node, src []byte) (types.NodeKind, types.Category, bool) {
	switch node.Type() {
	case "import_statement", "import_from_statement", "future_import_statement":
		return types.NodeImport, types.CategoryImports, true

	case "class_definition":
		return types.NodeClass, types.CategoryModels, true

	case "function_definition":
		return types.NodeFunction, types.CategoryUtils, true

	case "decorated_definition":
		def := node.ChildByFieldName("definition")
		if def == nil {
			return types.NodeOther, 0, false
		}
		if def.Type() == "class_definition" {
			return types.NodeClass, types.CategoryModels, true
		}
		if hasRouteDecorator(node, src) {
			return types.NodeFunction, types.CategoryRoutes, true
		}
		return types.NodeFunction, types.CategoryUtils, true

	case "if_statement":
		if isPythonEntryGuard(node.ChildByFieldName("condition"), src) {
			return types.NodeConditional, types.CategoryMain, true
		}
		return types.NodeConditional, 0, false

	case "expression_statement":
		return c.classifyExpression(node, src)
	}

	return types.NodeOther, 0, false
}

// classifyExpression handles assignments and bare expression statements
func (pythonClassifier) classifyExpression(node *sitter.Node, src []byte) (types.NodeKind, types.Category, bool) {
	inner := node.NamedChild(0)
	if inner == nil {
		return types.NodeExpression, 0, false
	}

	switch inner.Type() {
	case "assignment":
		if left := inner.ChildByFieldName("left"); left != nil &&
			left.Type() == "identifier" && isAppInstanceName(left.Content(src)) {
			return types.NodeAssignment, types.CategoryInitialization, true
		}
		return types.NodeAssignment, 0, false
	case "augmented_assignment":
		return types.NodeAssignment, 0, false
	}

	return types.NodeExpression, types.CategoryOthers, true
}

// hasRouteDecorator reports whether any decorator is x.route or x.route(...)
func hasRouteDecorator(decorated *sitter.Node, src []byte) bool {
	count := int(decorated.NamedChildCount())
	for i := 0; i < count; i++ {
		child := decorated.NamedChild(i)
		if child.Type() != "decorator" {
			continue
		}

		expr := child.NamedChild(0)
		if expr != nil && expr.Type() == "call" {
			expr = expr.ChildByFieldName("function")
		}
		if expr == nil || expr.Type() != "attribute" {
			continue
		}
		if attr := expr.ChildByFieldName("attribute"); attr != nil && attr.Content(src) == routeDecorator {
			return true
		}
	}
	return false
}

// isPythonEntryGuard matches comparisons with __name__ as either operand
func isPythonEntryGuard(cond *sitter.Node, src []byte) bool {
	if cond == nil {
		return false
	}
	if cond.Type() == "parenthesized_expression" {
		cond = cond.NamedChild(0)
		if cond == nil {
			return false
		}
	}
	if cond.Type() != "comparison_operator" {
		return false
	}

	count := int(cond.NamedChildCount())
	for i := 0; i < count; i++ {
		operand := cond.NamedChild(i)
		if operand.Type() == "identifier" && operand.Content(src) == pythonEntryName {
			return true
		}
	}
	return false
}
