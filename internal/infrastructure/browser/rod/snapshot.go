package rod

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

const (
	refAttr     = "data-agent-ref"
	valueAttr   = "data-agent-value"
	checkedAttr = "data-agent-checked"

	maxNameLen     = 100
	maxSnapshotLen = 60_000
)

// tagRefsJS marks every visible interactive element with a ref id and copies
// live form state into attributes, so the serialized HTML carries what the
// user would see. Refs are renumbered on each call.
const tagRefsJS = `() => {
  const selector = 'a[href], button, input:not([type=hidden]), select, textarea, summary, ' +
    '[role=button], [role=link], [role=checkbox], [role=radio], [role=tab], [role=menuitem], ' +
    '[role=option], [role=combobox], [role=textbox], [role=switch], [contenteditable=true]';
  document.querySelectorAll('[` + refAttr + `]').forEach(el => {
    el.removeAttribute('` + refAttr + `');
    el.removeAttribute('` + valueAttr + `');
    el.removeAttribute('` + checkedAttr + `');
  });
  let n = 0;
  document.querySelectorAll(selector).forEach(el => {
    const style = window.getComputedStyle(el);
    if (style.visibility === 'hidden' || style.display === 'none') return;
    if (!(el.offsetWidth || el.offsetHeight || el.getClientRects().length)) return;
    n++;
    el.setAttribute('` + refAttr + `', 'e' + n);
    if (el.type === 'checkbox' || el.type === 'radio') {
      el.setAttribute('` + checkedAttr + `', String(el.checked));
    } else if (typeof el.value === 'string' && el.tagName !== 'BUTTON') {
      el.setAttribute('` + valueAttr + `', el.value);
    }
  });
  return n;
}`

var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "svg": true, "template": true,
	"head": true, "meta": true, "link": true, "iframe": true, "title": true,
}

// RenderSnapshot turns tagged page HTML into the YAML-like outline the
// Playwright MCP server returns from browser_snapshot.
func RenderSnapshot(pageURL, title, rawHTML string) (string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("parse page html: %w", err)
	}

	s := &snapshotter{labels: collectLabels(doc)}
	root := findBody(doc)
	if root == nil {
		root = doc
	}
	s.walk(root, nil)

	var b strings.Builder
	fmt.Fprintf(&b, "- Page URL: %s\n", pageURL)
	fmt.Fprintf(&b, "- Page Title: %s\n", title)
	b.WriteString("- Page Snapshot:\n```yaml\n")
	body := s.out.String()
	if len(body) > maxSnapshotLen {
		body = body[:maxSnapshotLen] + "\n... (truncated)\n"
	}
	b.WriteString(body)
	b.WriteString("```\n")
	return b.String(), nil
}

type snapshotter struct {
	labels map[string]string
	out    strings.Builder
}

// walk emits one line per interesting node. labelText holds the text of an
// enclosing <label>, used to name the control inside it.
func (s *snapshotter) walk(n *html.Node, labelText *string) {
	switch n.Type {
	case html.TextNode:
		if text := collapseSpace(n.Data); text != "" && !insideLabel(n) {
			s.line(0, "text: %s", text)
		}
		return
	case html.ElementNode, html.DocumentNode:
	default:
		return
	}

	if n.Type == html.ElementNode {
		if skippedTags[n.Data] || isHidden(n) {
			return
		}
		if ref := attr(n, refAttr); ref != "" {
			s.control(n, ref, labelText)
			return
		}
		if level := headingLevel(n.Data); level > 0 {
			if text := textContent(n); text != "" {
				s.line(0, "heading %s [level=%d]", quote(text), level)
			}
			return
		}
		if n.Data == "label" {
			text := textContent(n)
			if text != "" {
				s.line(0, "text: %s", text)
			}
			labelText = &text
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s.walk(c, labelText)
	}
}

func (s *snapshotter) control(n *html.Node, ref string, labelText *string) {
	role := roleOf(n)
	name := s.nameOf(n, labelText)

	var b strings.Builder
	b.WriteString(role)
	if name != "" {
		b.WriteString(" " + quote(name))
	}
	if attr(n, checkedAttr) == "true" {
		b.WriteString(" [checked]")
	}
	if hasAttr(n, "disabled") {
		b.WriteString(" [disabled]")
	}
	b.WriteString(" [ref=" + ref + "]")

	switch {
	case n.Data == "select":
		s.line(0, "%s:", b.String())
		s.options(n)
	case role == "textbox" || role == "spinbutton" || role == "slider":
		if v := collapseSpace(attr(n, valueAttr)); v != "" {
			s.line(0, "%s: %s", b.String(), v)
		} else {
			s.line(0, "%s", b.String())
		}
	case n.Data == "a" && attr(n, "href") != "":
		s.line(0, "%s:", b.String())
		s.line(1, "/url: %s", attr(n, "href"))
	default:
		s.line(0, "%s", b.String())
	}
}

func (s *snapshotter) options(sel *html.Node) {
	current, live := attrOK(sel, valueAttr)
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.Data != "option" {
				visit(c)
				continue
			}
			text := textContent(c)
			value, hasValue := attrOK(c, "value")
			if !hasValue {
				value = text
			}
			selected := hasAttr(c, "selected")
			if live {
				selected = value == current
			}
			if selected {
				s.line(1, "option %s [selected]", quote(text))
			} else {
				s.line(1, "option %s", quote(text))
			}
		}
	}
	visit(sel)
}

func (s *snapshotter) nameOf(n *html.Node, labelText *string) string {
	candidates := []string{attr(n, "aria-label")}

	switch n.Data {
	case "input", "select", "textarea":
		if id := attr(n, "id"); id != "" {
			candidates = append(candidates, s.labels[id])
		}
		if labelText != nil {
			candidates = append(candidates, *labelText)
		}
		if t := attr(n, "type"); t == "submit" || t == "button" || t == "reset" {
			candidates = append(candidates, attr(n, "value"))
		}
		candidates = append(candidates, attr(n, "placeholder"), attr(n, "title"), attr(n, "name"))
	default:
		candidates = append(candidates, textContent(n), attr(n, "title"))
	}

	for _, c := range candidates {
		if c = collapseSpace(c); c != "" {
			if len(c) > maxNameLen {
				c = c[:maxNameLen] + "..."
			}
			return c
		}
	}
	return ""
}

func (s *snapshotter) line(indent int, format string, args ...any) {
	s.out.WriteString(strings.Repeat("  ", indent))
	s.out.WriteString("- ")
	fmt.Fprintf(&s.out, format, args...)
	s.out.WriteByte('\n')
}

func roleOf(n *html.Node) string {
	if role := attr(n, "role"); role != "" {
		return role
	}
	switch n.Data {
	case "a":
		return "link"
	case "button", "summary":
		return "button"
	case "textarea":
		return "textbox"
	case "select":
		if hasAttr(n, "multiple") {
			return "listbox"
		}
		return "combobox"
	case "input":
		switch strings.ToLower(attr(n, "type")) {
		case "checkbox":
			return "checkbox"
		case "radio":
			return "radio"
		case "submit", "button", "reset", "image":
			return "button"
		case "range":
			return "slider"
		case "number":
			return "spinbutton"
		default:
			return "textbox"
		}
	}
	if attr(n, "contenteditable") == "true" {
		return "textbox"
	}
	return "generic"
}

func collectLabels(doc *html.Node) map[string]string {
	labels := make(map[string]string)
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "label" {
			if id := attr(n, "for"); id != "" {
				labels[id] = textContent(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)
	return labels
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		if n.Type == html.ElementNode && (skippedTags[n.Data] || n.Data == "select" || n.Data == "textarea") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return collapseSpace(b.String())
}

// insideLabel reports whether a text node belongs to a <label>, whose text
// has already been emitted as a whole.
func insideLabel(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "label" {
			return true
		}
	}
	return false
}

func isHidden(n *html.Node) bool {
	if hasAttr(n, "hidden") || attr(n, "aria-hidden") == "true" {
		return true
	}
	return n.Data == "input" && strings.EqualFold(attr(n, "type"), "hidden")
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func attr(n *html.Node, key string) string {
	v, _ := attrOK(n, key)
	return v
}

func attrOK(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := attrOK(n, key)
	return ok
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
