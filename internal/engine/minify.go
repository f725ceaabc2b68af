package engine

import (
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Minify strips comments and insignificant whitespace from generated CSS.
// It only removes whitespace next to punctuation that cannot change the
// meaning of a selector or value; everything else collapses to one space.
func Minify(content string) string {
	lexer := css.NewLexer(parse.NewInputString(content))

	var b strings.Builder
	b.Grow(len(content))

	pendingSpace := false
	prev := css.ErrorToken
	var prevText string

	for {
		tt, text := lexer.Next()
		if tt == css.ErrorToken {
			break
		}

		switch tt {
		case css.CommentToken:
			continue
		case css.WhitespaceToken:
			pendingSpace = true
			continue
		}

		if pendingSpace && prev != css.ErrorToken && !dropsSpaceAfter(prev, prevText) && !dropsSpaceBefore(tt, string(text)) {
			b.WriteByte(' ')
		}
		pendingSpace = false

		b.Write(text)
		prev = tt
		prevText = string(text)
	}

	return b.String()
}

func dropsSpaceAfter(tt css.TokenType, text string) bool {
	switch tt {
	case css.LeftBraceToken, css.RightBraceToken, css.SemicolonToken, css.CommaToken,
		css.ColonToken, css.LeftParenthesisToken, css.FunctionToken:
		return true
	case css.DelimToken:
		return text == ">"
	}
	return false
}

func dropsSpaceBefore(tt css.TokenType, text string) bool {
	switch tt {
	case css.LeftBraceToken, css.RightBraceToken, css.SemicolonToken, css.CommaToken,
		css.RightParenthesisToken:
		return true
	case css.DelimToken:
		return text == ">" || text == "!"
	}
	return false
}
