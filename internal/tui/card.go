package tui

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/i18n"
)

// Card is one result card extracted from answer markup.
type Card struct {
	Badge       string
	Title       string
	Lines       []string
	DetailURL   string
	DetailLabel string
	ShareText   string
	ShareLabel  string
}

// CardSet is a card answer: text outside the cards plus the cards in order.
type CardSet struct {
	Lead  []string
	Cards []Card
}

// ParseCards extracts the result cards of markup. Button labels are replaced
// by labels unless the locale keeps the backend's own wording.
func ParseCards(markup string, locale i18n.Locale, labels i18n.Card) (CardSet, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return CardSet{}, fmt.Errorf("parsing card markup: %w", err)
	}

	var set CardSet
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.ElementNode && hasClass(n, "result-card"):
			set.Cards = append(set.Cards, parseCard(n))
			return
		case n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style):
			return
		case n.Type == html.TextNode:
			if s := collapse(n.Data); s != "" {
				set.Lead = append(set.Lead, s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if locale != i18n.KO {
		for i := range set.Cards {
			if set.Cards[i].DetailURL != "" && labels.Detail != "" {
				set.Cards[i].DetailLabel = labels.Detail
			}
			if labels.Share != "" {
				set.Cards[i].ShareLabel = labels.Share
			}
		}
	}
	return set, nil
}

func parseCard(root *html.Node) Card {
	var c Card
	var body *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "card-header-badge"):
				c.Badge = textOf(n)
				return
			case hasClass(n, "card-title"):
				c.Title = textOf(n)
				return
			case hasClass(n, "detail-link"):
				c.DetailURL = attr(n, "href")
				c.DetailLabel = textOf(n)
				return
			case hasClass(n, "card-share-btn"):
				c.ShareText = attr(n, "data-copy")
				c.ShareLabel = textOf(n)
				return
			case hasClass(n, "card-body"):
				body = n
			case n.DataAtom == atom.Li:
				if s := textOf(n); s != "" {
					c.Lines = append(c.Lines, s)
				}
				return
			}
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(root)

	if len(c.Lines) == 0 && body != nil {
		if s := textOf(body); s != "" {
			c.Lines = []string{s}
		}
	}
	return c
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

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return collapse(sb.String())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// renderCard draws a card box. shareIndex is the number the /share command
// accepts for this card.
func renderCard(c Card, shareIndex, width int) string {
	var sb strings.Builder
	if c.Badge != "" {
		sb.WriteString(badgeStyle.Render("["+c.Badge+"]") + " ")
	}
	sb.WriteString(cardTitleStyle.Render(c.Title))
	for _, line := range c.Lines {
		sb.WriteString("\n• " + line)
	}
	if c.DetailURL != "" {
		sb.WriteString("\n" + linkStyle.Render(c.DetailLabel) + " " + c.DetailURL)
	}
	if c.ShareText != "" {
		sb.WriteString("\n" + suggestStyle.Render(fmt.Sprintf("%s: /share %d", c.ShareLabel, shareIndex)))
	}
	style := cardStyle
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render(sb.String())
}

// plainCard is renderCard without styling for the line-oriented front end.
func plainCard(c Card, shareIndex int) string {
	var sb strings.Builder
	if c.Badge != "" {
		sb.WriteString("[" + c.Badge + "] ")
	}
	sb.WriteString(c.Title)
	for _, line := range c.Lines {
		sb.WriteString("\n  • " + line)
	}
	if c.DetailURL != "" {
		sb.WriteString("\n  " + c.DetailLabel + ": " + c.DetailURL)
	}
	if c.ShareText != "" {
		sb.WriteString(fmt.Sprintf("\n  %s: /share %d", c.ShareLabel, shareIndex))
	}
	return sb.String()
}
