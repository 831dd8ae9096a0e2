package model_test

import (
	. "github.com/fieldmark/fieldmark/model"
	"github.com/fieldmark/fieldmark/test/builder"
)

var (
	schema     = builder.Schema
	doc        = builder.Doc
	blockquote = builder.Blockquote
	h1         = builder.H1
	h2         = builder.H2
	p          = builder.P
	pre        = builder.Pre
	em         = builder.Em
	strong     = builder.Strong
	ul         = builder.Ul
	ol         = builder.Ol
	li         = builder.Li
	img        = builder.Img
	hr         = builder.Hr
	br         = builder.Br
	code       = builder.Code
	a          = builder.A

	strong2 = schema.Mark("strong")
	em2     = schema.Mark("em")
	code2   = schema.Mark("code")
	link    = func(href string, title ...string) *Mark {
		attrs := map[string]interface{}{"href": href}
		if len(title) > 0 {
			attrs["title"] = title[0]
		}
		return schema.Mark("link", attrs)
	}
)
