package jobpost

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// DefaultSearchURL is the DuckDuckGo HTML endpoint; it needs no API key.
	DefaultSearchURL = "https://html.duckduckgo.com/html/"

	searchTimeout   = 10 * time.Second
	searchResults   = 3
	minResearchText = 200
	maxResearchText = 4000
)

// ResearchInterview looks up interview experiences for company and role and returns the text
// of the first useful result page. Research is best effort: any failure yields "".
func (c *Client) ResearchInterview(ctx context.Context, company, role string) string {
	query := strings.TrimSpace(company + " " + role + " interview questions")
	log := c.logger.With(zap.String("query", query))

	links, err := c.search(ctx, query)
	if err != nil {
		log.Debug("interview search failed", zap.Error(err))
		return ""
	}

	for _, link := range links {
		text, err := c.Fetch(ctx, link)
		if err != nil {
			log.Debug("skipping interview result", zap.String("url", link), zap.Error(err))
			continue
		}
		if len([]rune(text)) > minResearchText {
			log.Debug("interview research found", zap.String("url", link))
			if runes := []rune(text); len(runes) > maxResearchText {
				text = string(runes[:maxResearchText])
			}
			return text
		}
	}

	log.Debug("no usable interview research", zap.Int("results", len(links)))

	return ""
}

func (c *Client) search(ctx context.Context, query string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	endpoint := c.SearchURL
	if endpoint == "" {
		endpoint = DefaultSearchURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+url.Values{"q": {query}}.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req = c.setHeaders(req)
	// The transport negotiates and decodes compression itself.
	req.Header.Del("Accept-Encoding")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("search returned HTTP %d", resp.StatusCode)
	}

	return resultLinks(io.LimitReader(resp.Body, maxBodyBytes), searchResults)
}

// resultLinks collects up to limit result targets from a DuckDuckGo HTML results page.
func resultLinks(r io.Reader, limit int) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(links) >= limit {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.A && hasClass(n, "result__a") {
			if target := resultTarget(attr(n, "href")); target != "" {
				links = append(links, target)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return links, nil
}

// resultTarget returns the destination of a result href, unwrapping DuckDuckGo redirect links.
func resultTarget(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}

	u, err := url.Parse(href)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}

	if strings.HasSuffix(u.Host, "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); strings.HasPrefix(target, "http") {
			return target
		}
		return ""
	}

	return u.String()
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
