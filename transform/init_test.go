package transform

import "github.com/fieldmark/fieldmark/test/builder"

var (
	schema = builder.Schema
	doc    = builder.Doc
	p      = builder.P
	h1     = builder.H1
	h2     = builder.H2
	em     = builder.Em
	strong = builder.Strong
)
