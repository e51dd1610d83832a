// Package parse extracts profile fields and comments from community profile pages.
package parse

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/okian/lobbyrisk/internal/domain/model"
)

// Selectors locate each field in the markup.
type Selectors struct {
	Private     string
	Level       string
	Friends     string
	RecentGame  string
	GameLink    string
	GameName    string
	GameDetails string
	BanStatus   string
	Comment     string
	HoursSuffix string
}

// DefaultSelectors match the server-rendered community profile layout.
func DefaultSelectors() Selectors {
	return Selectors{
		Private:     ".profile_private_info",
		Level:       ".friendPlayerLevelNum",
		Friends:     ".profile_friend_links .profile_count_link_total",
		RecentGame:  ".recent_game",
		GameLink:    "a",
		GameName:    ".game_name a",
		GameDetails: ".game_info_details",
		BanStatus:   ".profile_ban_status .profile_ban",
		Comment:     ".commentthread_comment_text",
		HoursSuffix: "hrs on record",
	}
}

// Option applies a configuration option to the Parser.
type Option func(*Parser)

// WithSelectors replaces the selector set.
func WithSelectors(s Selectors) Option {
	return func(p *Parser) {
		p.sel = s
	}
}

// Parser is stateless and safe for concurrent use.
type Parser struct {
	sel Selectors
}

// New creates a Parser with DefaultSelectors.
func New(opts ...Option) *Parser {
	p := &Parser{sel: DefaultSelectors()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseProfile extracts the fields the scorer consumes from a profile page.
// Missing level or friend counts on a public profile read as zero.
func (p *Parser) ParseProfile(doc []byte) (model.ProfileDocument, error) {
	root, err := load(doc)
	if err != nil {
		return model.ProfileDocument{}, err
	}

	if root.Find(p.sel.Private).Length() > 0 {
		return model.ProfileDocument{IsPrivate: true}, nil
	}

	out := model.ProfileDocument{
		Level:       leadingInt(root.Find(p.sel.Level).First().Text()),
		FriendCount: leadingInt(root.Find(p.sel.Friends).First().Text()),
		BanStatus:   strings.TrimSpace(root.Find(p.sel.BanStatus).Text()),
		RecentGames: []model.RecentGame{},
	}

	root.Find(p.sel.RecentGame).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Find(p.sel.GameLink).First().Attr("href")
		out.RecentGames = append(out.RecentGames, model.RecentGame{
			ID:          lastSegment(href),
			Title:       strings.TrimSpace(s.Find(p.sel.GameName).First().Text()),
			HoursPlayed: p.hours(s.Find(p.sel.GameDetails).First().Text()),
		})
	})

	return out, nil
}

// ParseComments returns the trimmed text of every comment in a comment feed.
func (p *Parser) ParseComments(doc []byte) ([]string, error) {
	root, err := load(doc)
	if err != nil {
		return nil, err
	}

	var comments []string
	root.Find(p.sel.Comment).Each(func(_ int, s *goquery.Selection) {
		comments = append(comments, strings.TrimSpace(s.Text()))
	})
	return comments, nil
}

// hours reads "1,234.5 hrs on record" as 1234.5. Unreadable text is zero.
func (p *Parser) hours(text string) float64 {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, p.sel.HoursSuffix); i >= 0 {
		text = text[:i]
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(fields[len(fields)-1], ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

func load(doc []byte) (*goquery.Document, error) {
	if len(bytes.TrimSpace(doc)) == 0 {
		return nil, ErrEmptyDocument
	}
	root, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return root, nil
}

// leadingInt parses the leading decimal digits of s, ignoring thousands
// separators, and returns 0 when there are none.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	n := 0
	seen := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			n = n*10 + int(r-'0')
			seen = true
		case r == ',' && seen:
		default:
			return n
		}
	}
	return n
}

func lastSegment(href string) string {
	href = strings.TrimRight(href, "/")
	if i := strings.LastIndex(href, "/"); i >= 0 {
		return href[i+1:]
	}
	return href
}
