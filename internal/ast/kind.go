package ast

// Kind enumerates the grammar productions the compiler supports. The walker
// dispatches on Kind exhaustively; anything mapping to Bad is reported as an
// unsupported construct instead of being silently skipped.
type Kind uint8

const (
	Bad Kind = iota

	Program
	ImportStatement
	ImportClause
	NamedImports
	ImportSpecifier
	ExportStatement
	ExportClause
	ExportSpecifier

	FunctionDeclaration
	FunctionSignature
	InterfaceDeclaration
	InterfaceBody
	PropertySignature
	FormalParameters
	RequiredParameter
	OptionalParameter
	RestPattern
	TypeParameters
	TypeParameter

	LexicalDeclaration
	VariableDeclarator
	StatementBlock
	ExpressionStatement
	EmptyStatement
	ReturnStatement
	IfStatement
	ElseClause
	WhileStatement
	ForStatement

	BinaryExpression
	UnaryExpression
	ParenthesizedExpression
	CallExpression
	MemberExpression
	SubscriptExpression
	AssignmentExpression
	Identifier
	PropertyIdentifier
	NumberLiteral
	StringLiteral
	TrueLiteral
	FalseLiteral
	ThisExpression

	TypeAnnotation
	PredefinedType
	TypeIdentifier
	ArrayType
	GenericType
	TypeArguments
	Arguments

	Comment
)

// grammarKinds maps tree-sitter-typescript node type strings onto Kind. Both
// the current and the pre-rename grammar spellings of the interface body are
// accepted.
var grammarKinds = map[string]Kind{
	"program": Program,

	"import_statement": ImportStatement,
	"import_clause":    ImportClause,
	"named_imports":    NamedImports,
	"import_specifier": ImportSpecifier,
	"export_statement": ExportStatement,
	"export_clause":    ExportClause,
	"export_specifier": ExportSpecifier,

	"function_declaration":  FunctionDeclaration,
	"function_signature":    FunctionSignature,
	"interface_declaration": InterfaceDeclaration,
	"interface_body":        InterfaceBody,
	"object_type":           InterfaceBody,
	"property_signature":    PropertySignature,
	"formal_parameters":     FormalParameters,
	"required_parameter":    RequiredParameter,
	"optional_parameter":    OptionalParameter,
	"rest_pattern":          RestPattern,
	"type_parameters":       TypeParameters,
	"type_parameter":        TypeParameter,

	"lexical_declaration":  LexicalDeclaration,
	"variable_declaration": LexicalDeclaration,
	"variable_declarator":  VariableDeclarator,
	"statement_block":      StatementBlock,
	"expression_statement": ExpressionStatement,
	"empty_statement":      EmptyStatement,
	"return_statement":     ReturnStatement,
	"if_statement":         IfStatement,
	"else_clause":          ElseClause,
	"while_statement":      WhileStatement,
	"for_statement":        ForStatement,

	"binary_expression":        BinaryExpression,
	"unary_expression":         UnaryExpression,
	"parenthesized_expression": ParenthesizedExpression,
	"call_expression":          CallExpression,
	"member_expression":        MemberExpression,
	"subscript_expression":     SubscriptExpression,
	"assignment_expression":    AssignmentExpression,
	"identifier":               Identifier,
	"property_identifier":      PropertyIdentifier,
	"number":                   NumberLiteral,
	"string":                   StringLiteral,
	"true":                     TrueLiteral,
	"false":                    FalseLiteral,
	"this":                     ThisExpression,

	"type_annotation": TypeAnnotation,
	"predefined_type": PredefinedType,
	"type_identifier": TypeIdentifier,
	"array_type":      ArrayType,
	"generic_type":    GenericType,
	"type_arguments":  TypeArguments,
	"arguments":       Arguments,

	"comment": Comment,
}

// KindOf translates a raw grammar node type into the supported-subset Kind.
func KindOf(grammarType string) Kind {
	if k, ok := grammarKinds[grammarType]; ok {
		return k
	}
	return Bad
}
