// Package query splits search strings written in a Gmail-style notation into
// a condition tree and the text that could not be interpreted.
//
//	res := query.Parse(ctx, `from:bob or not (label:inbox size:gt:10) trailing`)
//	// res.Parsed.String() == "from:eq:bob or not (label:eq:inbox and size:gt:10)"
//	// res.Unparsed == "trailing"
//
// # Notation
//
// A leaf is key:value or key:operator:value. Keys, operators, and values are
// unquoted words, single- or double-quoted strings, or (values only) text in
// parentheses. Adjacent terms are joined by "and", "or", "and not", or
// "or not" (case-insensitive); a missing keyword means "and". Terms may be
// grouped with parentheses.
//
// # Condition Trees
//
// A [Dump] is a sequence of [Node] values. Each node's [Node.Operator] joins
// it to the node that follows it, so consumers read the operator of node i
// to combine nodes i and i+1. [Dump.String] renders a tree back into
// notation that [Parse] reads into the same tree.
//
// # Recovery
//
// Parsing never fails outright. On the first term it cannot interpret,
// [Parse] stops, discards any partially built group, and reports the rest
// of the input in [Result.Unparsed] together with a positioned [*Error] in
// [Result.Err]. [FormatError] and [Result.Diagnose] render such a position
// for humans.
//
// # Serialization
//
// Results and trees encode to JSON, YAML, CBOR, and MessagePack with
// [Marshal]. [DecodeDump] reads a tree back after checking it against the
// embedded JSON [Schema].
package query
