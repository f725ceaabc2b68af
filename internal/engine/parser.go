package engine

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Rule is one utility rule: the CSS emitted when Class is used.
type Rule struct {
	Class    string // unescaped utility token, "w-1/2"
	Selector string // ".w-1\/2" or ".btn:hover"
	Layer    string
	Body     string // "width:50%;"
	Order    int    // definition order, used to keep the cascade stable
}

// CSS renders the rule.
func (r Rule) CSS() string {
	return r.Selector + "{" + r.Body + "}"
}

// Sheet is the result of parsing one stylesheet.
type Sheet struct {
	Rules      []Rule
	LayerOrder []string // from "@layer a, b;" statements
}

type token struct {
	tt   css.TokenType
	text string
}

// scope is an open block: an @layer block, or an at-rule whose content
// is skipped because it cannot be replayed rule by rule (@media, @keyframes).
type scope struct {
	layer string
	skip  bool
}

// parserState maintains context while parsing a stylesheet
type parserState struct {
	lexer         *css.Lexer
	inferredLayer string
	scopes        []scope
	sheet         Sheet
	order         int
}

// ParseStylesheet extracts class rules from CSS content. Rules outside an
// @layer block take inferredLayer, or DefaultLayer when that is empty.
func ParseStylesheet(content string, inferredLayer string) Sheet {
	if inferredLayer == "" {
		inferredLayer = DefaultLayer
	}

	s := &parserState{
		lexer:         css.NewLexer(parse.NewInputString(content)),
		inferredLayer: inferredLayer,
	}

	var prelude []token
	for {
		tt, text := s.lexer.Next()
		if tt == css.ErrorToken {
			// ErrorToken at EOF is normal
			break
		}

		switch tt {
		case css.CommentToken:
			continue
		case css.SemicolonToken:
			s.handleStatement(prelude)
			prelude = nil
		case css.LeftBraceToken:
			s.handleBlock(prelude)
			prelude = nil
		case css.RightBraceToken:
			if len(s.scopes) > 0 {
				s.scopes = s.scopes[:len(s.scopes)-1]
			}
			prelude = nil
		default:
			prelude = append(prelude, token{tt: tt, text: string(text)})
		}
	}

	return s.sheet
}

// parseFile reads and parses a single stylesheet
func parseFile(path, sourceDir string) (Sheet, error) {
	// #nosec G304 - path comes from trusted configuration
	content, err := os.ReadFile(path)
	if err != nil {
		return Sheet{}, fmt.Errorf("read file: %w", err)
	}

	return ParseStylesheet(string(content), inferLayerFromPath(path, sourceDir)), nil
}

// inferLayerFromPath extracts layer name from file path
// Pattern: layers/{layerName}/**/*.css → layerName
func inferLayerFromPath(filePath, sourceDir string) string {
	// Normalize paths by converting all backslashes to forward slashes
	path := strings.ReplaceAll(filePath, "\\", "/")
	srcDir := strings.TrimSuffix(strings.ReplaceAll(sourceDir, "\\", "/"), "/")

	relPath := strings.TrimPrefix(strings.TrimPrefix(path, srcDir), "/")

	parts := strings.Split(relPath, "/")
	if len(parts) >= 2 && parts[0] == "layers" {
		// layers/utilities.css is the layer itself
		return strings.TrimSuffix(parts[1], ".css")
	}

	return ""
}

// handleStatement processes a prelude terminated by ';' outside a declaration block
func (s *parserState) handleStatement(prelude []token) {
	trimmed := trimSpace(prelude)
	if len(trimmed) == 0 || trimmed[0].tt != css.AtKeywordToken || trimmed[0].text != "@layer" {
		return
	}

	// @layer name1, name2;
	for _, tok := range trimmed[1:] {
		if tok.tt == css.IdentToken {
			s.declareLayer(tok.text)
		}
	}
}

func (s *parserState) declareLayer(name string) {
	if !slices.Contains(s.sheet.LayerOrder, name) {
		s.sheet.LayerOrder = append(s.sheet.LayerOrder, name)
	}
}

// handleBlock processes the prelude of a '{' block
func (s *parserState) handleBlock(prelude []token) {
	trimmed := trimSpace(prelude)

	if len(trimmed) > 0 && trimmed[0].tt == css.AtKeywordToken {
		if trimmed[0].text == "@layer" {
			name := ""
			for _, tok := range trimmed[1:] {
				if tok.tt == css.IdentToken {
					name = tok.text
				}
			}
			s.scopes = append(s.scopes, scope{layer: name, skip: s.skipping()})
			if name != "" {
				s.declareLayer(name)
			}
			return
		}

		s.scopes = append(s.scopes, scope{skip: true})
		return
	}

	// Style rule: the declarations are consumed here, so no scope is pushed.
	body := s.readDeclarations()
	if s.skipping() || body == "" {
		return
	}

	for _, selector := range splitSelectors(trimmed) {
		class, ok := leadingClass(selector)
		if !ok {
			continue
		}

		s.sheet.Rules = append(s.sheet.Rules, Rule{
			Class:    class,
			Selector: render(selector),
			Layer:    s.currentLayer(),
			Body:     body,
			Order:    s.order,
		})
		s.order++
	}
}

func (s *parserState) skipping() bool {
	for _, sc := range s.scopes {
		if sc.skip {
			return true
		}
	}
	return false
}

func (s *parserState) currentLayer() string {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if s.scopes[i].layer != "" {
			return s.scopes[i].layer
		}
	}
	return s.inferredLayer
}

// readDeclarations reads property: value pairs until the closing brace and
// returns them normalized as "prop:value;prop:value;"
func (s *parserState) readDeclarations() string {
	var b strings.Builder

	var currentProp string
	var currentVal []token
	depth := 0

	flush := func() {
		if currentProp != "" {
			if val := render(trimSpace(currentVal)); val != "" {
				b.WriteString(currentProp + ":" + val + ";")
			}
		}
		currentProp = ""
		currentVal = nil
	}

	for {
		tt, text := s.lexer.Next()

		if tt == css.ErrorToken || (tt == css.RightBraceToken && depth == 0) {
			flush()
			break
		}

		switch {
		case tt == css.CommentToken:
			continue
		case tt == css.LeftBraceToken:
			depth++
		case tt == css.RightBraceToken:
			depth--
		case tt == css.SemicolonToken && depth == 0:
			flush()
		case currentProp == "" && (tt == css.IdentToken || tt == css.CustomPropertyNameToken):
			currentProp = string(text)
		case currentProp == "" && tt == css.WhitespaceToken:
			continue
		case tt == css.ColonToken && currentProp != "" && currentVal == nil:
			currentVal = []token{}
		case currentProp != "" && currentVal != nil:
			currentVal = append(currentVal, token{tt: tt, text: string(text)})
		}
	}

	return b.String()
}

// splitSelectors splits a selector list on top-level commas
func splitSelectors(tokens []token) [][]token {
	var parts [][]token
	var current []token
	depth := 0

	for _, tok := range tokens {
		switch tok.tt {
		case css.LeftParenthesisToken, css.FunctionToken:
			depth++
		case css.RightParenthesisToken:
			depth--
		case css.CommaToken:
			if depth == 0 {
				parts = append(parts, trimSpace(current))
				current = nil
				continue
			}
		}
		current = append(current, tok)
	}
	if len(current) > 0 {
		parts = append(parts, trimSpace(current))
	}

	return parts
}

// leadingClass returns the class a selector starts with, unescaped
func leadingClass(selector []token) (string, bool) {
	if len(selector) < 2 {
		return "", false
	}
	if selector[0].tt != css.DelimToken || selector[0].text != "." || selector[1].tt != css.IdentToken {
		return "", false
	}
	return unescapeIdent(selector[1].text), true
}

// render joins tokens, collapsing whitespace to a single space
func render(tokens []token) string {
	var b strings.Builder
	for _, tok := range tokens {
		if tok.tt == css.WhitespaceToken {
			b.WriteByte(' ')
			continue
		}
		b.WriteString(tok.text)
	}
	return b.String()
}

func trimSpace(tokens []token) []token {
	for len(tokens) > 0 && tokens[0].tt == css.WhitespaceToken {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && tokens[len(tokens)-1].tt == css.WhitespaceToken {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// unescapeIdent resolves CSS escapes: "w-1\/2" → "w-1/2", "\31 0" → "10"
func unescapeIdent(ident string) string {
	if !strings.Contains(ident, `\`) {
		return ident
	}

	var b strings.Builder
	for i := 0; i < len(ident); i++ {
		c := ident[i]
		if c != '\\' || i+1 >= len(ident) {
			b.WriteByte(c)
			continue
		}

		j := i + 1
		for j < len(ident) && j-i <= 6 && isHex(ident[j]) {
			j++
		}
		if j == i+1 {
			// \X → X
			b.WriteByte(ident[j])
			i = j
			continue
		}

		code, err := strconv.ParseUint(ident[i+1:j], 16, 32)
		if err == nil {
			b.WriteRune(rune(code))
		}
		if j < len(ident) && ident[j] == ' ' {
			j++
		}
		i = j - 1
	}
	return b.String()
}

// EscapeClass escapes a utility token for use in a class selector
func EscapeClass(class string) string {
	var b strings.Builder
	for i, r := range class {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == '-', r >= 0x80:
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				fmt.Fprintf(&b, `\3%c `, r)
				continue
			}
			b.WriteRune(r)
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
