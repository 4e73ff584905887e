// Package format turns email bodies into the plain text fed to the classifier.
package format

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var blockElements = map[string]bool{
	"p": true, "div": true, "tr": true, "table": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "section": true, "article": true,
}

var skipElements = map[string]bool{
	"script": true, "style": true, "head": true, "title": true, "noscript": true,
}

var (
	spaces    = regexp.MustCompile(`[ \t\r\f\v\x{00a0}]+`)
	wroteLine = regexp.MustCompile(`(?i)^on .+wrote:\s*$`)
)

// HTMLToText renders an HTML body as readable text. Quoted history inside
// gmail_quote containers and cite blockquotes is dropped.
func HTMLToText(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}

	var sb strings.Builder
	renderText(doc, &sb)

	return tidy(sb.String())
}

func renderText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode {
		if skipElements[n.Data] || isQuote(n) {
			return
		}
		switch {
		case n.Data == "br":
			sb.WriteString("\n")
			return
		case blockElements[n.Data]:
			sb.WriteString("\n")
			if n.Data == "li" {
				sb.WriteString("- ")
			}
			defer sb.WriteString("\n")
		case n.Data == "td" || n.Data == "th":
			defer sb.WriteString(" ")
		}
	}

	if n.Type == html.TextNode {
		sb.WriteString(spaces.ReplaceAllString(strings.ReplaceAll(n.Data, "\n", " "), " "))
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderText(c, sb)
	}
}

func isQuote(n *html.Node) bool {
	for _, attr := range n.Attr {
		switch {
		case attr.Key == "class" && strings.Contains(attr.Val, "gmail_quote"):
			return true
		case n.Data == "blockquote" && attr.Key == "type" && attr.Val == "cite":
			return true
		}
	}
	return false
}

// StripQuotedReply drops the quoted history of a plain-text reply: ">" lines
// and everything after an "On ... wrote:" attribution.
func StripQuotedReply(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if wroteLine.MatchString(trimmed) {
			break
		}
		if strings.HasPrefix(trimmed, ">") {
			continue
		}
		kept = append(kept, line)
	}
	return tidy(strings.Join(kept, "\n"))
}

// tidy trims every line and collapses runs of blank lines.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(spaces.ReplaceAllString(line, " "))
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
