// Package keywords mines a page for candidate target phrases using position-weighted n-grams.
package keywords

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Source is where on the page a phrase was first found
type Source string

const (
	SourceTitle Source = "title"
	SourceMeta  Source = "meta"
	SourceH1    Source = "h1"
	SourceH2    Source = "h2"
	SourceH3    Source = "h3"
	SourceBody  Source = "body"
)

// DiscoveredKeyword is a candidate target phrase
type DiscoveredKeyword struct {
	Phrase string `json:"phrase"`
	Score  int    `json:"score"`
	Source Source `json:"source"`
}

// Source weights. Whole phrases outrank the n-grams cut from them.
const (
	weightTitle        = 10
	weightTitleGram    = 8
	weightH1           = 9
	weightH1Gram       = 7
	weightMetaDescGram = 6
	weightMetaKeyword  = 8
	weightH2           = 5
	weightH2Gram       = 4
	weightH3           = 3
	weightH3Gram       = 2
	weightURLSlug      = 4
	maxBodyWeight      = 5
	minBodyFrequency   = 2
	minSingleWordScore = 8
	maxH2Length        = 80
	maxH3Length        = 60
	minPhraseLength    = 3
	MaxKeywords        = 20
)

// titleSeparators split a title into segments; a hyphen only separates when surrounded by spaces
var titleSeparators = regexp.MustCompile(`[|–—·•»:,]|\s-\s`)

type entry struct {
	phrase string
	score  int
	source Source
}

// accumulator sums scores per phrase and remembers first-seen order and source
type accumulator struct {
	index   map[string]int
	entries []entry
}

func newAccumulator() *accumulator {
	return &accumulator{index: make(map[string]int)}
}

func (a *accumulator) add(text string, score int, source Source) {
	phrase := strings.Join(Words(text), " ")
	if !validPhrase(phrase) {
		return
	}
	if i, ok := a.index[phrase]; ok {
		a.entries[i].score += score
		return
	}
	a.index[phrase] = len(a.entries)
	a.entries = append(a.entries, entry{phrase: phrase, score: score, source: source})
}

func (a *accumulator) addGrams(text string, score int, source Source) {
	for _, g := range NGrams(Words(text), 2, 4) {
		a.add(g, score, source)
	}
}

func validPhrase(phrase string) bool {
	if len([]rune(phrase)) < minPhraseLength || isNumeric(phrase) {
		return false
	}
	for _, w := range strings.Fields(phrase) {
		if !IsStopWord(w) {
			return true
		}
	}
	return false
}

// Discover extracts up to MaxKeywords candidate phrases from the document, highest score first.
// Equal scores keep first-seen order.
func Discover(doc *goquery.Document, pageURL string) []DiscoveredKeyword {
	if doc == nil {
		return []DiscoveredKeyword{}
	}
	acc := newAccumulator()

	title := strings.TrimSpace(visibleText(doc.Find("title").First()))
	for _, segment := range titleSeparators.Split(title, -1) {
		acc.add(segment, weightTitle, SourceTitle)
		acc.addGrams(segment, weightTitleGram, SourceTitle)
	}

	doc.Find("h1").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(visibleText(s))
		acc.add(text, weightH1, SourceH1)
		acc.addGrams(text, weightH1Gram, SourceH1)
	})

	if desc, ok := metaContent(doc, "description"); ok {
		acc.addGrams(desc, weightMetaDescGram, SourceMeta)
	}
	if kw, ok := metaContent(doc, "keywords"); ok {
		for _, k := range strings.Split(kw, ",") {
			acc.add(k, weightMetaKeyword, SourceMeta)
		}
	}

	headings(doc, "h2", maxH2Length, func(text string) {
		acc.add(text, weightH2, SourceH2)
		acc.addGrams(text, weightH2Gram, SourceH2)
	})
	headings(doc, "h3", maxH3Length, func(text string) {
		acc.add(text, weightH3, SourceH3)
		acc.addGrams(text, weightH3Gram, SourceH3)
	})

	addBodyPhrases(acc, doc)
	addURLSlug(acc, pageURL)

	return acc.top()
}

func headings(doc *goquery.Document, selector string, maxLen int, fn func(string)) {
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(visibleText(s)), " ")
		if text == "" || len([]rune(text)) > maxLen {
			return
		}
		fn(text)
	})
}

// metaContent returns the content of the first meta element with the given name, ignoring case
func metaContent(doc *goquery.Document, name string) (string, bool) {
	return doc.Find("meta").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("name")
		return strings.EqualFold(strings.TrimSpace(v), name)
	}).First().Attr("content")
}

// addBodyPhrases counts 2- and 3-grams of the visible body text and keeps repeated ones
func addBodyPhrases(acc *accumulator, doc *goquery.Document) {
	body := doc.Find("body").First().Clone()
	body.Find("script, style, noscript, template, nav, header, footer, aside").Remove()

	words := Words(visibleText(body))
	counts := make(map[string]int)
	var order []string
	for _, g := range NGrams(words, 2, 3) {
		if counts[g] == 0 {
			order = append(order, g)
		}
		counts[g]++
	}
	for _, g := range order {
		freq := counts[g]
		if freq < minBodyFrequency {
			continue
		}
		acc.add(g, min(freq, maxBodyWeight), SourceBody)
	}
}

// visibleText joins text nodes with spaces so adjacent blocks do not run together
func visibleText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return b.String()
}

func addURLSlug(acc *accumulator, pageURL string) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return
	}
	parts := strings.FieldsFunc(strings.ToLower(u.Path), func(r rune) bool {
		return r == '/' || r == '-' || r == '_' || r == '.'
	})
	var meaningful []string
	for _, p := range parts {
		if IsMeaningful(p) {
			meaningful = append(meaningful, p)
		}
	}
	if len(meaningful) >= 2 {
		acc.add(strings.Join(meaningful, " "), weightURLSlug, SourceBody)
	}
}

func (a *accumulator) top() []DiscoveredKeyword {
	sorted := make([]entry, len(a.entries))
	copy(sorted, a.entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].score > sorted[j].score
	})

	out := make([]DiscoveredKeyword, 0, MaxKeywords)
	for _, e := range sorted {
		if !strings.Contains(e.phrase, " ") && e.score < minSingleWordScore {
			continue
		}
		out = append(out, DiscoveredKeyword{Phrase: e.phrase, Score: e.score, Source: e.source})
		if len(out) == MaxKeywords {
			break
		}
	}
	return out
}
