package symbol

import "github.com/dekarrin/gramlock/internal/gramerr"

// RootRule is the name every grammar must define as its entry point.
const RootRule = "root"

// Grammar is the immutable parsed form of a CFG: a name-to-symbol map with a
// distinguished root rule. It is built once by internal/gram/parse and then
// shared read-only by every matcher tree entered against it.
type Grammar struct {
	Rules map[string]Symbol
}

// NewGrammar wraps a freshly parsed rule set and validates it, returning a
// *gramerr.ValidationError if invariants from spec.md section 3 don't hold:
// root exists, every referenced name is defined, no rule resolves only
// through NonTerminals back to itself, every Terminal is non-empty. On
// success, the look-ahead decoration (RegExp.Next) has also been applied.
func NewGrammar(rules map[string]Symbol) (*Grammar, error) {
	g := &Grammar{Rules: rules}

	if _, ok := g.Rules[RootRule]; !ok {
		return nil, gramerr.NewValidationError("missing '"+RootRule+"' rule", nil)
	}

	for name, sym := range g.Rules {
		if err := g.validateSymbol(sym, map[string]bool{}); err != nil {
			return nil, gramerr.NewValidationError("rule '"+name+"': "+err.Error(), err)
		}
	}

	for _, sym := range g.Rules {
		decorateLookAhead(sym)
	}

	return g, nil
}

// Resolve follows a NonTerminal chain to the Symbol it names, detecting
// degenerate cycles: a rule whose resolution path is
// NonTerminal -> NonTerminal -> ... with no intervening production. Symbols
// are resolved lazily (every call re-walks the chain) so that the symbol
// graph itself may be legitimately cyclic through productions, e.g.
// `list ::= item list?`.
func (g *Grammar) Resolve(sym Symbol) (Symbol, error) {
	visited := map[string]bool{}
	for {
		nt, ok := sym.(NonTerminal)
		if !ok {
			return sym, nil
		}
		if visited[nt.Name] {
			return nil, gramerr.NewValidationError("infinite loop detected at rule '"+nt.Name+"'", nil)
		}
		visited[nt.Name] = true
		next, ok := g.Rules[nt.Name]
		if !ok {
			return nil, gramerr.NewValidationError("invalid rule name '"+nt.Name+"'", nil)
		}
		sym = next
	}
}

func (g *Grammar) validateSymbol(sym Symbol, resolving map[string]bool) error {
	switch s := sym.(type) {
	case *Terminal:
		if s.Value == "" {
			return gramerr.NewValidationError("empty terminal", nil)
		}
	case *RegExp:
		// compiled at construction time; nothing further to validate.
	case AnyToken:
	case NonTerminal:
		if resolving[s.Name] {
			return gramerr.NewValidationError("infinite loop detected at rule '"+s.Name+"'", nil)
		}
		target, ok := g.Rules[s.Name]
		if !ok {
			return gramerr.NewValidationError("invalid rule name '"+s.Name+"'", nil)
		}
		// only descend through other NonTerminals to catch degenerate
		// cycles; a rule that passes through any production is fine even if
		// it eventually returns to itself.
		if _, isNT := target.(NonTerminal); isNT {
			next := map[string]bool{}
			for k, v := range resolving {
				next[k] = v
			}
			next[s.Name] = true
			return g.validateSymbol(target, next)
		}
	case *Sequence:
		for _, it := range s.Items {
			if err := g.validateSymbol(it, resolving); err != nil {
				return err
			}
		}
	case *Alternative:
		for _, it := range s.Items {
			if err := g.validateSymbol(it, resolving); err != nil {
				return err
			}
		}
	case *Repeat:
		return g.validateSymbol(s.Item, resolving)
	}
	return nil
}

// decorateLookAhead implements the look-ahead decoration from spec.md
// section 3: for every Sequence([..., Repeat(_, RegExp R), Terminal T, ...])
// it records R.Next = T, so the negative-regexp boundary rule (spec.md
// 4.E.2) can later spare a token whose tail happens to spell the start of T.
func decorateLookAhead(sym Symbol) {
	switch s := sym.(type) {
	case *Sequence:
		for i, it := range s.Items {
			if rep, ok := it.(*Repeat); ok {
				if re, ok := rep.Item.(*RegExp); ok && i+1 < len(s.Items) {
					if term, ok := s.Items[i+1].(*Terminal); ok {
						re.Next = term
					}
				}
			}
			decorateLookAhead(it)
		}
	case *Alternative:
		for _, it := range s.Items {
			decorateLookAhead(it)
		}
	case *Repeat:
		decorateLookAhead(s.Item)
	}
}
