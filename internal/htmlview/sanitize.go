// Package htmlview prepares remote email HTML for display.
//
// Sanitize is the only path through which a message body may reach a
// rendering surface; the raw body is otherwise only ever shown as
// escaped text.
package htmlview

import (
	"html"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
)

// Elements removed entirely, including their content.
var droppedElements = map[string]bool{
	"script": true,
	"style":  true,
	"iframe": true,
	"object": true,
	"embed":  true,
	"head":   true,
}

// HTML void elements have no end tag; the tokenizer reports them as
// plain start tags, so a dropped void must not open a skip range.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// Attributes whose values are URLs and must not carry a script scheme.
var urlAttrs = map[string]bool{
	"href":   true,
	"src":    true,
	"action": true,
}

// Sanitize strips active content from remote HTML: dropped elements with
// their children, every on*-prefixed attribute, and script-scheme URLs.
// Malformed markup is tolerated; whatever tokenizes survives.
func Sanitize(input string) string {
	tokenizer := xhtml.NewTokenizer(strings.NewReader(input))
	var out strings.Builder
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		if tt == xhtml.ErrorToken {
			// io.EOF or malformed tail; either way we are done.
			return out.String()
		}
		token := tokenizer.Token()

		switch tt {
		case xhtml.StartTagToken:
			if droppedElements[token.Data] {
				if !voidElements[token.Data] {
					skipDepth++
				}
				continue
			}
			if skipDepth > 0 {
				continue
			}
			writeTag(&out, token, false)

		case xhtml.SelfClosingTagToken:
			if skipDepth > 0 || droppedElements[token.Data] {
				continue
			}
			writeTag(&out, token, true)

		case xhtml.EndTagToken:
			if droppedElements[token.Data] {
				if skipDepth > 0 && !voidElements[token.Data] {
					skipDepth--
				}
				continue
			}
			if skipDepth > 0 {
				continue
			}
			out.WriteString("</" + token.Data + ">")

		case xhtml.TextToken:
			if skipDepth > 0 {
				continue
			}
			out.WriteString(html.EscapeString(token.Data))

		case xhtml.CommentToken, xhtml.DoctypeToken:
			// Dropped: comments can smuggle conditional markup.
		}
	}
}

// writeTag re-emits a tag with unsafe attributes removed.
func writeTag(out *strings.Builder, token xhtml.Token, selfClosing bool) {
	out.WriteString("<" + token.Data)
	for _, attr := range token.Attr {
		name := strings.ToLower(attr.Key)
		if strings.HasPrefix(name, "on") {
			continue
		}
		if urlAttrs[name] && isScriptURL(attr.Val) {
			continue
		}
		out.WriteString(" " + name + `="` + html.EscapeString(attr.Val) + `"`)
	}
	if selfClosing {
		out.WriteString("/>")
		return
	}
	out.WriteString(">")
}

// isScriptURL reports whether a URL value uses a script scheme.
// Whitespace and control characters are stripped first so obfuscated
// forms like "java\nscript:" are caught.
func isScriptURL(val string) bool {
	cleaned := strings.Map(func(r rune) rune {
		if r <= ' ' {
			return -1
		}
		return r
	}, val)
	cleaned = strings.ToLower(cleaned)
	return strings.HasPrefix(cleaned, "javascript:") || strings.HasPrefix(cleaned, "vbscript:")
}

// Block tags that should create line breaks when stripped
var blockTagRe = regexp.MustCompile(`(?i)<(/?)(p|div|br|hr|h[1-6]|li|tr|td|th|blockquote|pre|table|ul|ol|dl|dt|dd)[^>]*>`)

// Patterns for content-stripping tags (each needs separate pattern due to Go regex limitations)
var scriptTagRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
var styleTagRe = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
var headTagRe = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
var anyTagRe = regexp.MustCompile(`<[^>]*>`)

// ToText removes HTML tags, decodes entities, and normalizes whitespace.
// Block elements are converted to line breaks for readable plain text,
// which is what the terminal renders for the HTML view of a message.
func ToText(rawHTML string) string {
	text := scriptTagRe.ReplaceAllString(rawHTML, "")
	text = styleTagRe.ReplaceAllString(text, "")
	text = headTagRe.ReplaceAllString(text, "")

	// Both opening and closing block tags emit newlines so consecutive
	// blocks (like </p><p>) get proper spacing. Leading/trailing blank
	// lines are removed by the final TrimSpace.
	text = blockTagRe.ReplaceAllString(text, "\n")

	text = anyTagRe.ReplaceAllString(text, "")
	text = html.UnescapeString(text)

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, " ", " ")

	// Collapse runs of spaces per line, then runs of blank lines.
	lines := strings.Split(text, "\n")
	blank := 0
	var out []string
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
