// Package parser extracts structured page data from fetched HTML.
// Given identical HTML and base URL it always produces an identical
// Extraction; it performs no I/O and keeps no state between calls.
package parser

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Headings holds the ordered, non-empty text of each heading level.
type Headings struct {
	H1 []string `json:"h1"`
	H2 []string `json:"h2"`
	H3 []string `json:"h3"`
	H4 []string `json:"h4"`
	H5 []string `json:"h5"`
	H6 []string `json:"h6"`
}

// Link is a single anchor discovered on a page. Broken starts false for
// every resolvable link and is flipped by the link verifier.
type Link struct {
	URL    string `json:"url"`
	Text   string `json:"text"`
	Broken bool   `json:"broken"`
}

// Image is an <img> reference with its resolved source URL. Alt is kept
// exactly as authored: an absent or empty alt attribute is a meaningful
// signal for downstream scoring and must not be defaulted.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// SchemaBlock is one structured-data declaration found on the page,
// either a JSON-LD script or the synthesized microdata/RDFa fallback.
type SchemaBlock struct {
	Types []string `json:"types"`
	Raw   string   `json:"raw,omitempty"`
}

// Extraction is the content-level result of parsing one HTML document.
// Identity, status, and transport-derived fields live on the crawler's
// PageContent, which embeds this struct.
type Extraction struct {
	Title             string            `json:"title"`
	MetaDescription   string            `json:"metaDescription"`
	MetaRobots        string            `json:"metaRobots"`
	CanonicalURL      string            `json:"canonicalUrl"`
	OpenGraph         map[string]string `json:"openGraph"`
	TwitterCard       map[string]string `json:"twitterCard"`
	Headings          Headings          `json:"headings"`
	BodyText          string            `json:"bodyText"`
	WordCount         int               `json:"wordCount"`
	Paragraphs        []string          `json:"paragraphs"`
	InternalLinks     []*Link           `json:"internalLinks"`
	ExternalLinks     []*Link           `json:"externalLinks"`
	Images            []Image           `json:"images"`
	SchemaBlocks      []SchemaBlock     `json:"schemaBlocks"`
	HasMixedContent   bool              `json:"hasMixedContent"`
	HasMobileViewport bool              `json:"hasMobileViewport"`
	HasNoindex        bool              `json:"hasNoindex"`
	ResourceCount     int               `json:"resourceCount"`
}

// NewExtraction returns an Extraction with every collection initialized.
// Error pages reuse this so downstream consumers never see nil fields.
func NewExtraction() *Extraction {
	return &Extraction{
		OpenGraph:     map[string]string{},
		TwitterCard:   map[string]string{},
		Paragraphs:    []string{},
		InternalLinks: []*Link{},
		ExternalLinks: []*Link{},
		Images:        []Image{},
		SchemaBlocks:  []SchemaBlock{},
	}
}

// Extractor parses HTML documents relative to a fixed base URL.
type Extractor struct {
	base *url.URL
}

// NewExtractor creates an extractor that resolves relative references
// against baseURL, normally the fetched page's own URL.
func NewExtractor(baseURL string) (*Extractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	return &Extractor{base: base}, nil
}

// walkState accumulates raw signals during the single tree traversal.
type walkState struct {
	out           *Extraction
	googlebotMeta string
	viewportMeta  string
	ogDescription string
	jsonLDTypes   int
	fallbackTypes []string
}

// Extract parses the document and returns the structured page data.
func (e *Extractor) Extract(htmlBody []byte) (*Extraction, error) {
	doc, err := html.Parse(strings.NewReader(string(htmlBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	st := &walkState{out: NewExtraction()}
	e.traverse(doc, st)

	body := findBody(doc)
	if body == nil {
		body = doc
	}
	st.out.BodyText = collapseWhitespace(e.bodyText(body))
	st.out.WordCount = len(strings.Fields(st.out.BodyText))

	if st.out.MetaDescription == "" {
		st.out.MetaDescription = st.ogDescription
	}
	st.out.HasMobileViewport = strings.Contains(strings.ToLower(st.viewportMeta), "width=device-width")
	st.out.HasNoindex = containsNoindex(st.out.MetaRobots) || containsNoindex(st.googlebotMeta)

	// Microdata and RDFa hints only stand in when no JSON-LD types exist.
	if st.jsonLDTypes == 0 && len(st.fallbackTypes) > 0 {
		st.out.SchemaBlocks = append(st.out.SchemaBlocks, SchemaBlock{
			Types: dedupe(st.fallbackTypes),
		})
	}

	return st.out, nil
}

func (e *Extractor) traverse(n *html.Node, st *walkState) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "title":
			if st.out.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				st.out.Title = strings.TrimSpace(n.FirstChild.Data)
			}
		case "meta":
			e.parseMeta(n, st)
		case "link":
			e.parseHeadLink(n, st)
		case "a":
			e.parseAnchor(n, st)
		case "img":
			e.parseImage(n, st)
		case "script":
			e.parseScript(n, st)
		case "iframe", "object", "embed":
			st.out.ResourceCount++
			e.checkMixed(attrValue(n, "src"), st)
			e.checkMixed(attrValue(n, "data"), st)
		case "form":
			e.checkMixed(attrValue(n, "action"), st)
		case "h1", "h2", "h3", "h4", "h5", "h6":
			e.parseHeading(n, st)
		case "p":
			if text := collapseWhitespace(extractText(n)); text != "" {
				st.out.Paragraphs = append(st.out.Paragraphs, text)
			}
		}

		e.collectFallbackTypes(n, st)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.traverse(c, st)
	}
}

func (e *Extractor) parseMeta(n *html.Node, st *walkState) {
	var name, property, content string
	for _, attr := range n.Attr {
		switch attr.Key {
		case "name":
			name = strings.ToLower(attr.Val)
		case "property":
			property = strings.ToLower(attr.Val)
		case "content":
			content = attr.Val
		}
	}

	switch name {
	case "description":
		if st.out.MetaDescription == "" {
			st.out.MetaDescription = content
		}
	case "robots":
		st.out.MetaRobots = content
	case "googlebot":
		st.googlebotMeta = content
	case "viewport":
		st.viewportMeta = content
	}

	// Open Graph uses property=, Twitter Cards mostly name=, but both
	// appear in the wild with either attribute.
	for _, key := range []string{name, property} {
		switch {
		case strings.HasPrefix(key, "og:"):
			st.out.OpenGraph[strings.TrimPrefix(key, "og:")] = content
			if key == "og:description" && st.ogDescription == "" {
				st.ogDescription = content
			}
		case strings.HasPrefix(key, "twitter:"):
			st.out.TwitterCard[strings.TrimPrefix(key, "twitter:")] = content
		}
	}
}

func (e *Extractor) parseHeadLink(n *html.Node, st *walkState) {
	rel := strings.ToLower(attrValue(n, "rel"))
	href := attrValue(n, "href")

	if rel == "canonical" && href != "" && st.out.CanonicalURL == "" {
		if abs, err := e.resolve(href); err == nil {
			st.out.CanonicalURL = abs
		}
	}
	if strings.Contains(rel, "stylesheet") {
		st.out.ResourceCount++
	}
	e.checkMixed(href, st)
}

func (e *Extractor) parseAnchor(n *html.Node, st *walkState) {
	href := attrValue(n, "href")
	if href == "" ||
		strings.HasPrefix(href, "#") ||
		strings.HasPrefix(strings.ToLower(href), "javascript:") ||
		strings.HasPrefix(strings.ToLower(href), "mailto:") {
		return
	}

	text := collapseWhitespace(extractText(n))

	abs, err := e.resolve(href)
	if err != nil {
		// Unresolvable hrefs are assumed to be same-site typos: record
		// them as internal links that are already broken.
		st.out.InternalLinks = append(st.out.InternalLinks, &Link{URL: href, Text: text, Broken: true})
		return
	}

	target, err := url.Parse(abs)
	if err != nil {
		st.out.InternalLinks = append(st.out.InternalLinks, &Link{URL: href, Text: text, Broken: true})
		return
	}

	link := &Link{URL: abs, Text: text}
	if target.Host == e.base.Host {
		st.out.InternalLinks = append(st.out.InternalLinks, link)
	} else {
		st.out.ExternalLinks = append(st.out.ExternalLinks, link)
	}
}

func (e *Extractor) parseImage(n *html.Node, st *walkState) {
	src := attrValue(n, "src")
	if src == "" {
		src = attrValue(n, "data-src")
	}
	if src == "" {
		return
	}

	st.out.ResourceCount++
	e.checkMixed(src, st)

	abs, err := e.resolve(src)
	if err != nil {
		return
	}
	st.out.Images = append(st.out.Images, Image{URL: abs, Alt: attrValue(n, "alt")})
}

func (e *Extractor) parseScript(n *html.Node, st *walkState) {
	if src := attrValue(n, "src"); src != "" {
		st.out.ResourceCount++
		e.checkMixed(src, st)
		return
	}

	if !strings.EqualFold(attrValue(n, "type"), "application/ld+json") {
		return
	}
	raw := extractText(n)
	types := parseJSONLDTypes(raw)
	if types == nil {
		// Malformed JSON-LD: skip the block, never fail the page.
		return
	}
	st.jsonLDTypes += len(types)
	st.out.SchemaBlocks = append(st.out.SchemaBlocks, SchemaBlock{
		Types: dedupe(types),
		Raw:   strings.TrimSpace(raw),
	})
}

func (e *Extractor) parseHeading(n *html.Node, st *walkState) {
	text := collapseWhitespace(extractText(n))
	if text == "" {
		return
	}
	switch n.Data {
	case "h1":
		st.out.Headings.H1 = append(st.out.Headings.H1, text)
	case "h2":
		st.out.Headings.H2 = append(st.out.Headings.H2, text)
	case "h3":
		st.out.Headings.H3 = append(st.out.Headings.H3, text)
	case "h4":
		st.out.Headings.H4 = append(st.out.Headings.H4, text)
	case "h5":
		st.out.Headings.H5 = append(st.out.Headings.H5, text)
	case "h6":
		st.out.Headings.H6 = append(st.out.Headings.H6, text)
	}
}

// collectFallbackTypes gathers microdata itemtype values and RDFa
// typeof hints used when a page declares no JSON-LD types.
func (e *Extractor) collectFallbackTypes(n *html.Node, st *walkState) {
	if hasAttr(n, "itemscope") {
		for _, t := range strings.Fields(attrValue(n, "itemtype")) {
			if name := schemaTypeName(t); name != "" {
				st.fallbackTypes = append(st.fallbackTypes, name)
			}
		}
	}
	if n.Data != "meta" {
		for _, t := range strings.Fields(attrValue(n, "typeof")) {
			if name := schemaTypeName(t); name != "" {
				st.fallbackTypes = append(st.fallbackTypes, name)
			}
		}
	}
}

// checkMixed flags an HTTPS page that references a plain-HTTP resource.
func (e *Extractor) checkMixed(ref string, st *walkState) {
	if e.base.Scheme != "https" || ref == "" {
		return
	}
	if strings.HasPrefix(strings.ToLower(ref), "http://") {
		st.out.HasMixedContent = true
	}
}

func (e *Extractor) resolve(href string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	return e.base.ResolveReference(u).String(), nil
}

// bodyText extracts visible text, skipping non-content containers.
func (e *Extractor) bodyText(n *html.Node) string {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "iframe", "object", "embed":
			return ""
		}
	}
	if n.Type == html.TextNode {
		return n.Data
	}

	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if text := e.bodyText(c); text != "" {
			sb.WriteString(text)
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

// findBody locates the <body> element of a parsed document.
func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBody(c); body != nil {
			return body
		}
	}
	return nil
}

// parseJSONLDTypes returns the @type values declared in a JSON-LD block,
// including entries inside a top-level @graph array. A nil return means
// the block did not parse; an empty slice means it parsed without types.
func parseJSONLDTypes(raw string) []string {
	var root any
	if err := json.Unmarshal([]byte(raw), &root); err != nil {
		return nil
	}

	types := []string{}
	collect := func(node any) {
		obj, ok := node.(map[string]any)
		if !ok {
			return
		}
		types = append(types, typeValues(obj["@type"])...)
		if graph, ok := obj["@graph"].([]any); ok {
			for _, entry := range graph {
				if entryObj, ok := entry.(map[string]any); ok {
					types = append(types, typeValues(entryObj["@type"])...)
				}
			}
		}
	}

	switch v := root.(type) {
	case []any:
		for _, entry := range v {
			collect(entry)
		}
	default:
		collect(v)
	}

	return types
}

// typeValues flattens a JSON-LD @type value, which may be a string or an
// array of strings.
func typeValues(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, entry := range t {
			if s, ok := entry.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// schemaTypeName reduces an itemtype/typeof token to a bare type name,
// e.g. "https://schema.org/LocalBusiness" -> "LocalBusiness".
func schemaTypeName(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	if idx := strings.LastIndexAny(token, "/#"); idx >= 0 {
		token = token[idx+1:]
	}
	return token
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}

func containsNoindex(content string) bool {
	return strings.Contains(strings.ToLower(content), "noindex")
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if text := extractText(c); text != "" {
			sb.WriteString(text)
			sb.WriteString(" ")
		}
	}
	return sb.String()
}
