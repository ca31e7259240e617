// Package directive compiles free-form directive lines into script
// operations.
//
// A line is either engine-native code, which passes through verbatim, or
// up to two clauses joined by "and". Each clause is tokenised and parsed
// by a small recursive-descent parser into a typed AST:
//
//	move   <target> <direction> <distance>[m|cm|mm] [local|global] [except <names>]
//	rotate <target> <angle>[deg|degree|degrees|rad] [x|y|z] [local|global]
//	scale  <target> <value>(x|%)
//
// The leading verb picks the grammar; once a grammar owns a clause there is
// no fallback to another. raise, lower, translate and nudge are read as
// move; turn and spin as rotate. Only the first "and" splits: anything
// after it stays in the second clause.
//
// Targets resolve against the current scene and selection snapshots (see
// package resolve). A clause that fails to parse or resolves to nothing is
// skipped and reported; the rest of the line and block still compile.
//
// Example:
//
//	c := directive.NewCompiler(logger)
//	res := c.CompileBlock([]string{"move selected up 10cm"}, scene, sel)
//	code := script.Join(res.Ops)
package directive
