package analyzer

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/dshills/monosplit/pkg/types"
)

// javascriptClassifier applies the category rules to tree-sitter-javascript nodes
type javascriptClassifier struct{}

func (javascriptClassifier) language() *sitter.Language {
	return javascript.GetLanguage()
}

// invalid rejects a return statement outside any function
func (javascriptClassifier) invalid(root *sitter.Node) (*sitter.Node, string) {
	count := int(root.NamedChildCount())
	for i := 0; i < count; i++ {
		if child := root.NamedChild(i); child.Type() == "return_statement" {
			return child, "illegal return statement at top level"
		}
	}
	return nil, ""
}

func (c javascriptClassifier) classify(node *sitter.Node, src []byte) (types.NodeKind, types.Category, bool) {
	switch node.Type() {
	case "import_statement":
		return types.NodeImport, types.CategoryImports, true

	case "class_declaration":
		return types.NodeClass, types.CategoryModels, true

	case "function_declaration", "generator_function_declaration":
		return types.NodeFunction, types.CategoryUtils, true

	case "lexical_declaration", "variable_declaration":
		return c.classifyDeclaration(node, src)

	case "if_statement":
		if isRequireMainGuard(node.ChildByFieldName("condition"), src) {
			return types.NodeConditional, types.CategoryMain, true
		}
		return types.NodeConditional, 0, false

	case "expression_statement":
		return c.classifyExpression(node, src)

	case "export_statement":
		if decl := node.ChildByFieldName("declaration"); decl != nil {
			return c.classify(decl, src)
		}
		if node.ChildByFieldName("source") != nil {
			return types.NodeImport, types.CategoryImports, true
		}
		return types.NodeExpression, types.CategoryOthers, true
	}

	return types.NodeOther, 0, false
}

// classifyDeclaration handles const/let/var declarations. The first declarator
// decides the category of the whole statement.
func (javascriptClassifier) classifyDeclaration(node *sitter.Node, src []byte) (types.NodeKind, types.Category, bool) {
	var declarator *sitter.Node
	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		if child := node.NamedChild(i); child.Type() == "variable_declarator" {
			declarator = child
			break
		}
	}
	if declarator == nil {
		return types.NodeAssignment, 0, false
	}

	value := declarator.ChildByFieldName("value")
	if isRequireCall(value, src) {
		return types.NodeImport, types.CategoryImports, true
	}

	if name := declarator.ChildByFieldName("name"); name != nil &&
		name.Type() == "identifier" && isAppInstanceName(name.Content(src)) {
		return types.NodeAssignment, types.CategoryInitialization, true
	}

	if value != nil {
		switch value.Type() {
		case "arrow_function", "function", "function_expression", "generator_function":
			return types.NodeFunction, types.CategoryUtils, true
		}
	}

	return types.NodeAssignment, 0, false
}

// classifyExpression handles assignments, route registrations and other expressions
func (javascriptClassifier) classifyExpression(node *sitter.Node, src []byte) (types.NodeKind, types.Category, bool) {
	inner := node.NamedChild(0)
	if inner == nil {
		return types.NodeExpression, 0, false
	}

	switch inner.Type() {
	case "assignment_expression":
		if left := inner.ChildByFieldName("left"); left != nil &&
			left.Type() == "identifier" && isAppInstanceName(left.Content(src)) {
			return types.NodeAssignment, types.CategoryInitialization, true
		}
		return types.NodeAssignment, 0, false
	case "augmented_assignment_expression":
		return types.NodeAssignment, 0, false
	case "call_expression":
		if isRouteRegistration(inner, src) {
			return types.NodeExpression, types.CategoryRoutes, true
		}
	}

	return types.NodeExpression, types.CategoryOthers, true
}

// isRequireCall matches require("x") and require("x").member
func isRequireCall(node *sitter.Node, src []byte) bool {
	for node != nil && node.Type() == "member_expression" {
		node = node.ChildByFieldName("object")
	}
	if node == nil || node.Type() != "call_expression" {
		return false
	}
	fn := node.ChildByFieldName("function")
	return fn != nil && fn.Type() == "identifier" && fn.Content(src) == "require"
}

// isRouteRegistration matches app.get(...), router.post(...) and chains
// rooted at one of them such as app.route("/x").get(...).
func isRouteRegistration(call *sitter.Node, src []byte) bool {
	var method string
	node := call
	for node != nil {
		switch node.Type() {
		case "call_expression":
			node = node.ChildByFieldName("function")
		case "member_expression":
			if prop := node.ChildByFieldName("property"); prop != nil {
				method = prop.Content(src)
			}
			node = node.ChildByFieldName("object")
		case "identifier":
			return isRouteReceiver(node.Content(src)) && isRouteMethod(method)
		default:
			return false
		}
	}
	return false
}

// isRequireMainGuard matches require.main === module in either order
func isRequireMainGuard(cond *sitter.Node, src []byte) bool {
	if cond == nil {
		return false
	}
	if cond.Type() == "parenthesized_expression" {
		cond = cond.NamedChild(0)
		if cond == nil {
			return false
		}
	}
	if cond.Type() != "binary_expression" {
		return false
	}

	op := cond.ChildByFieldName("operator")
	if op == nil {
		return false
	}
	if operator := op.Content(src); operator != "===" && operator != "==" {
		return false
	}

	left := cond.ChildByFieldName("left")
	right := cond.ChildByFieldName("right")
	if left == nil || right == nil {
		return false
	}

	l, r := left.Content(src), right.Content(src)
	return (l == "require.main" && r == "module") || (l == "module" && r == "require.main")
}
