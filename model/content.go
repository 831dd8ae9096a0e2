package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ContentMatch represents a match state of a node type's content expression,
// and can be used to find out whether further content matches here, and
// whether a given position is a valid end of the node.
type ContentMatch struct {
	// True when this match state represents a valid end of the node.
	ValidEnd bool
	next     []interface{} // even indexes are *NodeType, odd are *ContentMatch
}

// NewContentMatch is the constructor for ContentMatch.
func NewContentMatch(validEnd bool) *ContentMatch {
	return &ContentMatch{ValidEnd: validEnd}
}

// ParseContentMatch compiles a content expression like "paragraph block*"
// into a match automaton.
func ParseContentMatch(str string, nodeTypes map[string]*NodeType) (*ContentMatch, error) {
	stream := newTokenStream(str, nodeTypes)
	if stream.next() == nil {
		return EmptyContentMatch, nil
	}
	expr, err := parseExpr(stream)
	if err != nil {
		return nil, err
	}
	if stream.next() != nil {
		return nil, stream.err("Unexpected trailing text")
	}
	match := dfa(nfa(expr))
	if err := checkForDeadEnds(match, stream); err != nil {
		return nil, err
	}
	return match, nil
}

// MatchType matches a node type, returning a match after that node if
// successful.
func (cm *ContentMatch) MatchType(typ *NodeType) *ContentMatch {
	for i := 0; i < len(cm.next); i += 2 {
		if cm.next[i] == typ {
			return cm.next[i+1].(*ContentMatch)
		}
	}
	return nil
}

// MatchFragment tries to match a fragment. Returns the resulting match when
// successful.
//
// :: (Fragment, ?number, ?number) → ?ContentMatch
func (cm *ContentMatch) MatchFragment(frag *Fragment, args ...int) *ContentMatch {
	cur := cm
	start := 0
	if len(args) > 0 {
		start = args[0]
	}
	end := frag.ChildCount()
	if len(args) > 1 {
		end = args[1]
	}
	for i := start; cur != nil && i < end; i++ {
		child, err := frag.Child(i)
		if err != nil {
			return nil
		}
		cur = cur.MatchType(child.Type)
	}
	return cur
}

func (cm *ContentMatch) inlineContent() bool {
	if len(cm.next) == 0 {
		return false
	}
	return cm.next[0].(*NodeType).IsInline()
}

// DefaultType returns the first matching node type at this match position
// that can be generated.
func (cm *ContentMatch) DefaultType() *NodeType {
	for i := 0; i < len(cm.next); i += 2 {
		typ := cm.next[i].(*NodeType)
		if !typ.IsText() && !typ.HasRequiredAttrs() {
			return typ
		}
	}
	return nil
}

func (cm *ContentMatch) compatible(other *ContentMatch) bool {
	for i := 0; i < len(cm.next); i += 2 {
		for j := 0; j < len(other.next); j += 2 {
			if cm.next[i] == other.next[j] {
				return true
			}
		}
	}
	return false
}

// FillBefore tries to match the given fragment, and if that fails, see if it
// can be made to match by inserting nodes in front of it. When successful,
// return a fragment of inserted nodes (which may be empty if nothing had to
// be inserted). When toEnd is true, only return a fragment if the resulting
// match goes to the end of the content expression.
func (cm *ContentMatch) FillBefore(after *Fragment, toEnd bool, startIndex ...int) (*Fragment, error) {
	start := 0
	if len(startIndex) > 0 {
		start = startIndex[0]
	}
	seen := []*ContentMatch{cm}
	var search func(match *ContentMatch, types []*NodeType) (*Fragment, bool)
	search = func(match *ContentMatch, types []*NodeType) (*Fragment, bool) {
		finished := match.MatchFragment(after, start)
		if finished != nil && (!toEnd || finished.ValidEnd) {
			var nodes []*Node
			for _, typ := range types {
				node, err := typ.CreateAndFill()
				if err != nil || node == nil {
					return nil, false
				}
				nodes = append(nodes, node)
			}
			return NewFragment(nodes), true
		}
		for i := 0; i < len(match.next); i += 2 {
			typ := match.next[i].(*NodeType)
			next := match.next[i+1].(*ContentMatch)
			if typ.IsText() || typ.HasRequiredAttrs() {
				continue
			}
			alreadySeen := false
			for _, s := range seen {
				if s == next {
					alreadySeen = true
					break
				}
			}
			if alreadySeen {
				continue
			}
			seen = append(seen, next)
			if found, ok := search(next, append(types[:len(types):len(types)], typ)); ok {
				return found, true
			}
		}
		return nil, false
	}
	if found, ok := search(cm, nil); ok {
		return found, nil
	}
	return nil, nil
}

// EdgeCount is the number of outgoing edges this node has in the finite
// automaton that describes the content expression.
func (cm *ContentMatch) EdgeCount() int {
	return len(cm.next) / 2
}

// Edge gets the n'th outgoing edge from this node in the finite automaton
// that describes the content expression.
func (cm *ContentMatch) Edge(n int) (*NodeType, *ContentMatch, error) {
	i := n * 2
	if i >= len(cm.next) {
		return nil, nil, fmt.Errorf("There's no %dth edge in this content match", n)
	}
	return cm.next[i].(*NodeType), cm.next[i+1].(*ContentMatch), nil
}

// String returns a debugging representation of the automaton.
func (cm *ContentMatch) String() string {
	var scan func(m *ContentMatch, seen []*ContentMatch) []*ContentMatch
	scan = func(m *ContentMatch, seen []*ContentMatch) []*ContentMatch {
		seen = append(seen, m)
		for i := 1; i < len(m.next); i += 2 {
			found := false
			for _, s := range seen {
				if s == m.next[i] {
					found = true
					break
				}
			}
			if !found {
				seen = scan(m.next[i].(*ContentMatch), seen)
			}
		}
		return seen
	}
	seen := scan(cm, nil)
	lines := make([]string, len(seen))
	for i, m := range seen {
		out := ""
		if m.ValidEnd {
			out = "*"
		}
		var edges []string
		for j := 0; j < len(m.next); j += 2 {
			target := 0
			for k, s := range seen {
				if s == m.next[j+1] {
					target = k
					break
				}
			}
			edges = append(edges, fmt.Sprintf("%s->%d", m.next[j].(*NodeType).Name, target))
		}
		lines[i] = fmt.Sprintf("%d%s %s", i, out, strings.Join(edges, ", "))
	}
	return strings.Join(lines, "\n")
}

// EmptyContentMatch is an empty ContentMatch.
var EmptyContentMatch = NewContentMatch(true)

type tokenStream struct {
	str       string
	nodeTypes map[string]*NodeType
	inline    *bool
	pos       int
	tokens    []string
}

func newTokenStream(str string, nodeTypes map[string]*NodeType) *tokenStream {
	var tokens []string
	for _, field := range strings.Fields(str) {
		// Punctuation binds tighter than whitespace, so split the
		// operators off word tokens.
		word := ""
		for _, c := range field {
			if isWordCharacter(c) {
				word += string(c)
			} else {
				if word != "" {
					tokens = append(tokens, word)
					word = ""
				}
				tokens = append(tokens, string(c))
			}
		}
		if word != "" {
			tokens = append(tokens, word)
		}
	}
	return &tokenStream{
		str:       str,
		nodeTypes: nodeTypes,
		tokens:    tokens,
	}
}

func (ts *tokenStream) next() *string {
	if ts.pos >= len(ts.tokens) {
		return nil
	}
	return &ts.tokens[ts.pos]
}

func (ts *tokenStream) eat(tok string) bool {
	if s := ts.next(); s == nil || *s != tok {
		return false
	}
	ts.pos++
	return true
}

func (ts *tokenStream) err(format string, args ...interface{}) error {
	str := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s (in content expression %q)", str, ts.str)
}

type exprType struct {
	Type  string
	Exprs []*exprType
	Expr  *exprType
	Min   int
	Max   int
	Value *NodeType
}

func parseExpr(stream *tokenStream) (*exprType, error) {
	exprs := []*exprType{}
	for {
		seq, err := parseExprSeq(stream)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, seq)
		if !stream.eat("|") {
			break
		}
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &exprType{Type: "choice", Exprs: exprs}, nil
}

func parseExprSeq(stream *tokenStream) (*exprType, error) {
	exprs := []*exprType{}
	for {
		sub, err := parseExprSubscript(stream)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, sub)
		if s := stream.next(); s == nil || *s == ")" || *s == "|" {
			break
		}
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &exprType{Type: "seq", Exprs: exprs}, nil
}

func parseExprSubscript(stream *tokenStream) (*exprType, error) {
	expr, err := parseExprAtom(stream)
	if err != nil {
		return nil, err
	}
	for {
		if stream.eat("+") {
			expr = &exprType{Type: "plus", Expr: expr}
		} else if stream.eat("*") {
			expr = &exprType{Type: "star", Expr: expr}
		} else if stream.eat("?") {
			expr = &exprType{Type: "opt", Expr: expr}
		} else if stream.eat("{") {
			expr, err = parseExprRange(stream, expr)
			if err != nil {
				return nil, err
			}
		} else {
			break
		}
	}
	return expr, nil
}

func parseNum(stream *tokenStream) (int, error) {
	s := stream.next()
	if s == nil {
		return 0, stream.err("Expected number, got nil")
	}
	result, err := strconv.Atoi(*s)
	if err != nil {
		return 0, stream.err("Expected number, got %q", *s)
	}
	stream.pos++
	return result, nil
}

func parseExprRange(stream *tokenStream, expr *exprType) (*exprType, error) {
	min, err := parseNum(stream)
	if err != nil {
		return nil, err
	}
	max := min
	if stream.eat(",") {
		if s := stream.next(); s != nil && *s != "}" {
			max, err = parseNum(stream)
			if err != nil {
				return nil, err
			}
		} else {
			max = -1
		}
	}
	if !stream.eat("}") {
		return nil, stream.err("Unclosed braced range")
	}
	return &exprType{Type: "range", Min: min, Max: max, Expr: expr}, nil
}

func resolveName(stream *tokenStream, name string) ([]*NodeType, error) {
	types := stream.nodeTypes
	if typ, ok := types[name]; ok {
		return []*NodeType{typ}, nil
	}
	var result []*NodeType
	for _, typ := range types {
		for _, g := range typ.Groups {
			if g == name {
				result = append(result, typ)
				break
			}
		}
	}
	if len(result) == 0 {
		return nil, stream.err("No node type or group %q found", name)
	}
	return result, nil
}

func isWordCharacter(c rune) bool {
	switch {
	case '0' <= c && c <= '9':
	case 'a' <= c && c <= 'z':
	case 'A' <= c && c <= 'Z':
	case c == '_':
	default:
		return false
	}
	return true
}

func isWordCharacters(str string) bool {
	for _, c := range str {
		if !isWordCharacter(c) {
			return false
		}
	}
	return len(str) > 0
}

func parseExprAtom(stream *tokenStream) (*exprType, error) {
	if stream.eat("(") {
		expr, err := parseExpr(stream)
		if err != nil {
			return nil, err
		}
		if !stream.eat(")") {
			return nil, stream.err("Missing closing paren")
		}
		return expr, nil
	}

	s := stream.next()
	if s != nil && isWordCharacters(*s) {
		types, err := resolveName(stream, *s)
		if err != nil {
			return nil, err
		}
		var exprs []*exprType
		for _, typ := range types {
			inline := typ.IsInline()
			if stream.inline == nil {
				stream.inline = &inline
			} else if *stream.inline != inline {
				return nil, stream.err("Mixing inline and block content")
			}
			exprs = append(exprs, &exprType{Type: "name", Value: typ})
		}
		stream.pos++
		if len(exprs) == 1 {
			return exprs[0], nil
		}
		return &exprType{Type: "choice", Exprs: exprs}, nil
	}

	if s != nil {
		return nil, stream.err("Unexpected token %q", *s)
	}
	return nil, stream.err("Unexpected end of content expression")
}

// The code below helps compile a regular-expression-like language into a
// deterministic finite automaton. For a good introduction to these concepts,
// see https://swtch.com/~rsc/regexp/regexp1.html

type nfaEdge struct {
	term *NodeType // nil for null edges
	to   int       // -1 when dangling
}

// nfa constructs an NFA from an expression as returned by the parser. The NFA
// is represented as an array of states, which are themselves arrays of edges,
// which are {term, to} structs. The first state is the entry state and the
// last node is the success state.
//
// Note that unlike typical NFAs, the edge ordering in this one is
// significant, in that it is used to construct filler content when necessary.
func nfa(expr *exprType) [][]*nfaEdge {
	states := [][]*nfaEdge{nil}
	node := func() int {
		states = append(states, nil)
		return len(states) - 1
	}
	edge := func(from int, to int, term *NodeType) *nfaEdge {
		e := &nfaEdge{term: term, to: to}
		states[from] = append(states[from], e)
		return e
	}
	connect := func(edges []*nfaEdge, to int) {
		for _, e := range edges {
			e.to = to
		}
	}

	var compile func(expr *exprType, from int) []*nfaEdge
	compile = func(expr *exprType, from int) []*nfaEdge {
		switch expr.Type {
		case "choice":
			var out []*nfaEdge
			for _, e := range expr.Exprs {
				out = append(out, compile(e, from)...)
			}
			return out
		case "seq":
			for i := 0; ; i++ {
				next := compile(expr.Exprs[i], from)
				if i == len(expr.Exprs)-1 {
					return next
				}
				from = node()
				connect(next, from)
			}
		case "star":
			loop := node()
			edge(from, loop, nil)
			connect(compile(expr.Expr, loop), loop)
			return []*nfaEdge{edge(loop, -1, nil)}
		case "plus":
			loop := node()
			connect(compile(expr.Expr, from), loop)
			connect(compile(expr.Expr, loop), loop)
			return []*nfaEdge{edge(loop, -1, nil)}
		case "opt":
			return append([]*nfaEdge{edge(from, -1, nil)}, compile(expr.Expr, from)...)
		case "range":
			cur := from
			for i := 0; i < expr.Min; i++ {
				next := node()
				connect(compile(expr.Expr, cur), next)
				cur = next
			}
			if expr.Max == -1 {
				connect(compile(expr.Expr, cur), cur)
			} else {
				for i := expr.Min; i < expr.Max; i++ {
					next := node()
					edge(cur, next, nil)
					connect(compile(expr.Expr, cur), next)
					cur = next
				}
			}
			return []*nfaEdge{edge(cur, -1, nil)}
		case "name":
			return []*nfaEdge{edge(from, -1, expr.Value)}
		}
		panic(fmt.Errorf("Unknown expr type %s", expr.Type))
	}

	connect(compile(expr, 0), node())
	return states
}

// nullFrom gets the set of nodes reachable by null edges from node. Omit
// nodes with only a single null-out-edge, since they may lead to needless
// duplicated nodes.
func nullFrom(states [][]*nfaEdge, node int) []int {
	var result []int
	var scan func(n int)
	scan = func(n int) {
		edges := states[n]
		if len(edges) == 1 && edges[0].term == nil {
			scan(edges[0].to)
			return
		}
		for _, r := range result {
			if r == n {
				return
			}
		}
		result = append(result, n)
		for _, e := range edges {
			if e.term == nil {
				already := false
				for _, r := range result {
					if r == e.to {
						already = true
						break
					}
				}
				if !already {
					scan(e.to)
				}
			}
		}
	}
	scan(node)
	// Sort to get a stable key for the state set.
	for i := 1; i < len(result); i++ {
		for j := i; j > 0 && result[j-1] > result[j]; j-- {
			result[j-1], result[j] = result[j], result[j-1]
		}
	}
	return result
}

func statesKey(states []int) string {
	parts := make([]string, len(states))
	for i, s := range states {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ",")
}

// dfa compiles an NFA as produced by nfa into a DFA, modeled as a set of
// ContentMatch objects with transitions between them.
func dfa(states [][]*nfaEdge) *ContentMatch {
	labeled := map[string]*ContentMatch{}
	var explore func(stateSet []int) *ContentMatch
	explore = func(stateSet []int) *ContentMatch {
		validEnd := false
		for _, s := range stateSet {
			if s == len(states)-1 {
				validEnd = true
				break
			}
		}
		state := NewContentMatch(validEnd)
		labeled[statesKey(stateSet)] = state

		var terms []*NodeType
		targets := map[*NodeType][]int{}
		for _, node := range stateSet {
			for _, e := range states[node] {
				if e.term == nil {
					continue
				}
				if _, known := targets[e.term]; !known {
					terms = append(terms, e.term)
				}
				for _, t := range nullFrom(states, e.to) {
					seen := false
					for _, known := range targets[e.term] {
						if known == t {
							seen = true
							break
						}
					}
					if !seen {
						targets[e.term] = append(targets[e.term], t)
					}
				}
			}
		}
		for _, term := range terms {
			set := targets[term]
			for i := 1; i < len(set); i++ {
				for j := i; j > 0 && set[j-1] > set[j]; j-- {
					set[j-1], set[j] = set[j], set[j-1]
				}
			}
			target := labeled[statesKey(set)]
			if target == nil {
				target = explore(set)
			}
			state.next = append(state.next, term, target)
		}
		return state
	}
	return explore(nullFrom(states, 0))
}

func checkForDeadEnds(match *ContentMatch, stream *tokenStream) error {
	work := []*ContentMatch{match}
	for i := 0; i < len(work); i++ {
		state := work[i]
		dead := !state.ValidEnd
		var nodes []string
		for j := 0; j < len(state.next); j += 2 {
			typ := state.next[j].(*NodeType)
			nxt := state.next[j+1].(*ContentMatch)
			nodes = append(nodes, typ.Name)
			if dead && !(typ.IsText() || typ.HasRequiredAttrs()) {
				dead = false
			}
			seen := false
			for _, w := range work {
				if w == nxt {
					seen = true
					break
				}
			}
			if !seen {
				work = append(work, nxt)
			}
		}
		if dead {
			return stream.err("Only non-generatable nodes (%s) in a required position", strings.Join(nodes, ", "))
		}
	}
	return nil
}
