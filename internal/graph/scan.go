package graph

import "strings"

// ScanResult is what a static scan of one module found.
type ScanResult struct {
	// Imports lists specifiers in first-occurrence order, de-duplicated.
	Imports []string

	// Globals lists watched identifiers the module references as free words.
	Globals []string
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokPunct
	tokTemplate
)

type token struct {
	kind tokenKind
	text string
}

// Scan extracts import specifiers from JavaScript or TypeScript source.
//
// Recognized forms: static import and export-from declarations, side-effect
// imports, dynamic import("x") and require("x") with a string literal
// argument. Comments, regular expression literals and the text of template
// literals are skipped; ${...} substitutions are scanned as code. watch
// lists global identifiers whose free use should be reported.
func Scan(src string, watch []string) ScanResult {
	var res ScanResult
	seenImport := make(map[string]bool)
	watched := make(map[string]bool, len(watch))
	for _, w := range watch {
		watched[w] = false
	}

	addImport := func(spec string) {
		if spec == "" || seenImport[spec] {
			return
		}
		seenImport[spec] = true
		res.Imports = append(res.Imports, spec)
	}

	toks := tokenize(src)
	inModuleDecl := false
	for i, tok := range toks {
		switch tok.kind {
		case tokPunct:
			if tok.text == ";" {
				inModuleDecl = false
			}
		case tokIdent:
			prevDot := i > 0 && toks[i-1].kind == tokPunct && toks[i-1].text == "."
			if prevDot {
				continue
			}
			switch tok.text {
			case "import":
				if next(toks, i+1, tokString) {
					addImport(toks[i+1].text)
					continue
				}
				if punct(toks, i+1, "(") && next(toks, i+2, tokString) {
					addImport(toks[i+2].text)
					continue
				}
				inModuleDecl = true
			case "export":
				inModuleDecl = true
			case "from":
				if inModuleDecl && next(toks, i+1, tokString) {
					addImport(toks[i+1].text)
					inModuleDecl = false
				}
			case "require":
				if punct(toks, i+1, "(") && next(toks, i+2, tokString) && punct(toks, i+3, ")") {
					addImport(toks[i+2].text)
				}
			default:
				if seen, ok := watched[tok.text]; ok && !seen && !punct(toks, i+1, ":") {
					watched[tok.text] = true
					res.Globals = append(res.Globals, tok.text)
				}
			}
		}
	}
	return res
}

func next(toks []token, i int, kind tokenKind) bool {
	return i < len(toks) && toks[i].kind == kind
}

func punct(toks []token, i int, text string) bool {
	return i < len(toks) && toks[i].kind == tokPunct && toks[i].text == text
}

// tokenize splits src into identifiers, string literals and punctuation.
// Whitespace, comments, numbers and regular expressions are dropped.
func tokenize(src string) []token {
	var toks []token
	// One entry per open ${ substitution: braces opened inside it.
	var subs []int
	template := func(start int) int {
		end, sub := scanTemplate(src, start)
		toks = append(toks, token{kind: tokTemplate})
		if sub {
			subs = append(subs, 0)
		}
		return end
	}
	n := len(src)
	i := 0
	for i < n {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '/' && i+1 < n && src[i+1] == '/':
			for i < n && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return toks
			}
			i += end + 4
		case c == '/' && regexAllowed(toks):
			i = skipRegex(src, i+1)
		case c == '"' || c == '\'':
			text, end := readString(src, i+1, c)
			toks = append(toks, token{kind: tokString, text: text})
			i = end
		case c == '`':
			i = template(i + 1)
		case c == '}' && len(subs) > 0 && subs[len(subs)-1] == 0:
			subs = subs[:len(subs)-1]
			i = template(i + 1)
		case (c == '{' || c == '}') && len(subs) > 0:
			if c == '{' {
				subs[len(subs)-1]++
			} else {
				subs[len(subs)-1]--
			}
			toks = append(toks, token{kind: tokPunct, text: string(c)})
			i++
		case isIdentStart(c):
			start := i
			for i < n && isIdentPart(src[i]) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i]})
		case c >= '0' && c <= '9':
			for i < n && (isIdentPart(src[i]) || src[i] == '.') {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: ""})
		default:
			toks = append(toks, token{kind: tokPunct, text: string(c)})
			i++
		}
	}
	return toks
}

// regexAllowed reports whether a slash at this point starts a regular
// expression literal rather than a division.
func regexAllowed(toks []token) bool {
	if len(toks) == 0 {
		return true
	}
	prev := toks[len(toks)-1]
	switch prev.kind {
	case tokPunct:
		return prev.text != ")" && prev.text != "]" && prev.text != "}"
	case tokIdent:
		switch prev.text {
		case "return", "typeof", "case", "do", "else", "in", "of", "new", "delete", "void", "throw", "yield", "await":
			return true
		}
	}
	return false
}

func skipRegex(src string, i int) int {
	inClass := false
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				i++
				for i < len(src) && isIdentPart(src[i]) {
					i++
				}
				return i
			}
		case '\n':
			return i
		}
		i++
	}
	return i
}

func readString(src string, i int, quote byte) (string, int) {
	var buf []byte
	for i < len(src) {
		c := src[i]
		switch c {
		case '\\':
			if i+1 < len(src) {
				buf = append(buf, src[i+1])
			}
			i += 2
			continue
		case quote:
			return string(buf), i + 1
		case '\n':
			return string(buf), i
		}
		buf = append(buf, c)
		i++
	}
	return string(buf), i
}

// scanTemplate reads template text from i. It stops after the closing
// backtick, or after a "${" with sub set.
func scanTemplate(src string, i int) (end int, sub bool) {
	for i < len(src) {
		switch {
		case src[i] == '\\':
			i += 2
			continue
		case src[i] == '`':
			return i + 1, false
		case src[i] == '$' && i+1 < len(src) && src[i+1] == '{':
			return i + 2, true
		}
		i++
	}
	return len(src), false
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
