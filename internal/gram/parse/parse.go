// Package parse implements the grammar-text parser (component C): a
// comment-strip pass followed by a recursive-descent scan that builds a
// symbol.Grammar. Grounded directly on original_source/grammar.py's
// RE_RULE/RE_NEWLINE/RE_TERMINAL/RE_OR/RE_COMMENT regexes and its
// parse_sequence/parse_rule/find_unescaped_index functions; the division of
// labor (regex-assisted scanning feeding a hand-written recursive descent,
// rather than a generated-parser toolkit) is carried over unchanged because
// the input here is small, fixed-shape, user-supplied text parsed at
// request time.
package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dekarrin/gramlock/internal/gram/symbol"
	"github.com/dekarrin/gramlock/internal/gramerr"
)

var (
	reRule     = regexp.MustCompile(`(?s)^\s*([-a-z]+)\s*::=\s*(.*)`)
	reNewline  = regexp.MustCompile(`(?s)^[ \t]*\n[ \t\n]*(.*)`)
	reTerminal = regexp.MustCompile(`(?s)^[ \t]*([-a-z]+)[ \t]*(.*)`)
	reOr       = regexp.MustCompile(`(?s)^[ \t\n]*\|[ \t]*(.*)`)
	reComment  = regexp.MustCompile(`(?s)^([^#]*)#[^\n]*(.*)`)
)

// Parse turns grammar source text into a validated symbol.Grammar: strips
// comments, splits it into named rules, parses each rule body into a
// symbol tree, and runs symbol.NewGrammar's validation pass over the
// result.
func Parse(definition string) (*symbol.Grammar, error) {
	text := stripComments(definition)

	rules := map[string]symbol.Symbol{}
	for text != "" {
		m := reRule.FindStringSubmatch(text)
		if m == nil {
			return nil, gramerr.NewGrammarError("expected rule", nil)
		}
		name := m[1]
		rest := m[2]
		if _, exists := rules[name]; exists {
			return nil, gramerr.NewValidationError("duplicate rule '"+name+"'", nil)
		}

		sym, remaining, err := parseRule(rest, false)
		if err != nil {
			return nil, err
		}
		rules[name] = sym
		text = remaining
	}

	return symbol.NewGrammar(rules)
}

func stripComments(text string) string {
	for {
		m := reComment.FindStringSubmatch(text)
		if m == nil {
			return text
		}
		text = m[1] + m[2]
	}
}

// parseRule parses one rule body (or one parenthesized group, when
// parentheses is true) into a single Symbol, collapsing a one-item sequence
// down to that item, exactly mirroring parse_rule in grammar.py.
func parseRule(text string, parentheses bool) (symbol.Symbol, string, error) {
	seq, rest, err := parseSequence(text, parentheses)
	if err != nil {
		return nil, "", err
	}
	if len(seq.Items) == 1 {
		return seq.Items[0], rest, nil
	}
	return seq, rest, nil
}

// parseSequence consumes terminals, non-terminals, character classes,
// parenthesized groups, postfix quantifiers, and infix alternation from the
// front of text until it runs out of input, hits an unparenthesized
// newline, or (when parentheses is true) a closing ")". It mirrors
// parse_sequence in grammar.py item for item.
func parseSequence(text string, parentheses bool) (*symbol.Sequence, string, error) {
	var seq []symbol.Symbol

	for text != "" {
		switch {
		case text[0] == '"' || text[0] == '\'':
			end := findUnescapedIndex(text, text[0:1], 1)
			if end >= len(text) {
				return nil, "", gramerr.NewGrammarError("unmatched "+text[0:1], nil)
			}
			literal, err := unescapeLiteral(text[1:end])
			if err != nil {
				return nil, "", err
			}
			seq = append(seq, symbol.NewTerminal(literal))
			text = text[end+1:]

		case reTerminal.MatchString(text):
			m := reTerminal.FindStringSubmatch(text)
			seq = append(seq, symbol.NonTerminal{Name: m[1]})
			text = m[2]

		case text[0] == ' ' || text[0] == '\t':
			text = text[1:]

		case text[0] == '[':
			end := findUnescapedIndex(text, "]", 1)
			if end >= len(text) {
				return nil, "", gramerr.NewGrammarError("unmatched [", nil)
			}
			re, err := symbol.NewRegExp(text[0 : end+1])
			if err != nil {
				return nil, "", err
			}
			seq = append(seq, re)
			text = text[end+1:]

		case text[0] == '(':
			inner, rest, err := parseRule(text[1:], true)
			if err != nil {
				return nil, "", err
			}
			seq = append(seq, inner)
			text = rest

		case parentheses && text[0] == ')':
			text = text[1:]
			return &symbol.Sequence{Items: seq}, text, nil

		case text[0] == '*' || text[0] == '?' || text[0] == '+':
			if len(seq) == 0 {
				return nil, "", gramerr.NewGrammarError("unexpected '"+text[0:1]+"'", nil)
			}
			left := seq[len(seq)-1]
			seq = seq[:len(seq)-1]
			if text[0] == '+' {
				if re, ok := left.(*symbol.RegExp); ok {
					// extend the class's own pattern so a single vocabulary
					// token may satisfy a whole run of it.
					plus, err := symbol.NewRegExp(re.Pattern + "+")
					if err != nil {
						return nil, "", err
					}
					left = plus
				}
				seq = append(seq, &symbol.Sequence{Items: []symbol.Symbol{
					left,
					&symbol.Repeat{Mode: symbol.ZeroOrMore, Item: left},
				}})
			} else {
				seq = append(seq, &symbol.Repeat{Mode: symbol.RepeatMode(text[0]), Item: left})
			}
			text = text[1:]

		case strings.HasPrefix(text, ".*"):
			// sentinel AnyToken symbol: spec.md section 3 reserves the bare
			// pattern ".*" for "accepts any token forever", distinct from a
			// bracketed RegExp class.
			seq = append(seq, symbol.AnyToken{})
			text = text[2:]

		case reOr.MatchString(text):
			m := reOr.FindStringSubmatch(text)
			if len(seq) == 0 {
				return nil, "", gramerr.NewGrammarError("unexpected '|'", nil)
			}
			left := seq[len(seq)-1]
			seq = seq[:len(seq)-1]
			right, rest, err := parseRule(m[1], parentheses)
			if err != nil {
				return nil, "", err
			}
			seq = append(seq, symbol.NewAlternative([]symbol.Symbol{left, right}))
			return &symbol.Sequence{Items: seq}, rest, nil

		case reNewline.MatchString(text):
			m := reNewline.FindStringSubmatch(text)
			text = m[1]
			if !parentheses {
				return &symbol.Sequence{Items: seq}, text, nil
			}

		default:
			end := len(text)
			if end > 5 {
				end = 5
			}
			return nil, "", gramerr.NewGrammarError("unexpected '"+text[:end]+"'...", nil)
		}
	}

	return &symbol.Sequence{Items: seq}, text, nil
}

// findUnescapedIndex returns the index of the first unescaped occurrence of
// needle in haystack at or after start, or len(haystack) if there is none;
// an occurrence is "escaped" when immediately preceded by a backslash that
// itself isn't escaped. Ported from find_unescaped_index in grammar.py.
func findUnescapedIndex(haystack, needle string, start int) int {
	index := start
	for {
		needleAt := indexFrom(haystack, needle, index)
		backslashAt := indexFrom(haystack, "\\", index)
		if needleAt < 0 {
			return len(haystack)
		}
		if backslashAt >= 0 && backslashAt < needleAt {
			index = backslashAt + 2
		} else {
			return needleAt
		}
	}
}

func indexFrom(haystack, needle string, start int) int {
	if start > len(haystack) {
		return -1
	}
	p := strings.Index(haystack[start:], needle)
	if p < 0 {
		return -1
	}
	return start + p
}

// unescapeLiteral decodes the backslash escapes inside a quoted Terminal
// literal: \n \t \r \\ \" \' and \uXXXX, matching the subset of Python's
// "unicode_escape" codec the original grammar text actually relies on.
// Unrecognized escapes pass the following character through unchanged.
func unescapeLiteral(s string) (string, error) {
	var b strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '\\' {
			b.WriteRune(runes[i])
			continue
		}
		if i+1 >= len(runes) {
			return "", gramerr.NewGrammarError("dangling escape in terminal", nil)
		}
		i++
		switch runes[i] {
		case 'n':
			b.WriteRune('\n')
		case 't':
			b.WriteRune('\t')
		case 'r':
			b.WriteRune('\r')
		case '\\':
			b.WriteRune('\\')
		case '\'':
			b.WriteRune('\'')
		case '"':
			b.WriteRune('"')
		case 'u':
			if i+4 >= len(runes) {
				return "", gramerr.NewGrammarError("truncated \\u escape in terminal", nil)
			}
			hex := string(runes[i+1 : i+5])
			v, err := strconv.ParseUint(hex, 16, 32)
			if err != nil {
				return "", gramerr.NewGrammarError("invalid \\u escape '"+hex+"'", err)
			}
			b.WriteRune(rune(v))
			i += 4
		default:
			b.WriteRune(runes[i])
		}
	}
	return b.String(), nil
}
