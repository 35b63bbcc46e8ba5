package jobpost

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Nav:      true,
	atom.Header:   true,
	atom.Footer:   true,
	atom.Aside:    true,
	atom.Noscript: true,
}

// ExtractText returns the visible text of an HTML document, one text node per line. Blank
// lines inside a text node are collapsed to one.
func ExtractText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipped[n.DataAtom] {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				for _, line := range strings.Split(text, "\n") {
					lines = append(lines, strings.TrimSpace(line))
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return collapseBlankLines(lines), nil
}

func collapseBlankLines(lines []string) string {
	out := make([]string, 0, len(lines))
	prevBlank := false
	for _, line := range lines {
		if line == "" {
			if !prevBlank {
				out = append(out, "")
			}
			prevBlank = true
			continue
		}
		out = append(out, line)
		prevBlank = false
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
