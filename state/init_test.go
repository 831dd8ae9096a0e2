package state

import "github.com/fieldmark/fieldmark/test/builder"

var (
	schema = builder.Schema
	doc    = builder.Doc
	p      = builder.P
	em     = builder.Em
)
