package templates

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/gfornaciari/ebook-subscribe-api/internal/config"
	"github.com/gfornaciari/ebook-subscribe-api/internal/models"
)

const (
	fallbackName    = "there"
	placeholderLink = "#"

	defaultWebsite   = "https://www.gianlucafornaciari.com"
	fallbackEbookURL = defaultWebsite + "/honest-investments-book-gf-free-ZS2J5i-ju1bzo-24L96i.pdf"

	logoPath      = "logo.svg"
	bookCoverPath = "honest-investments-cover.webp"
)

//go:embed welcome.html welcome.txt
var files embed.FS

var (
	htmlWelcome = htmltemplate.Must(htmltemplate.ParseFS(files, "welcome.html"))
	textWelcome = texttemplate.Must(texttemplate.ParseFS(files, "welcome.txt"))
)

type welcomeData struct {
	Name      string
	EbookURL  string
	Logo      string
	BookCover string
	LinkedIn  string
	Website   string
	X         string
	Owner     string
	Year      int
}

// Builder renders the welcome email from brand configuration.
type Builder struct {
	brand config.Brand
	now   func() time.Time
}

func NewBuilder(brand config.Brand) *Builder {
	return &Builder{brand: brand, now: time.Now}
}

// WithClock overrides the clock used for the copyright year.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) BuildWelcomeEmail(name string) (models.WelcomeEmail, error) {
	safeName := strings.TrimSpace(name)
	if safeName == "" {
		safeName = fallbackName
	}

	data := b.data(safeName)

	var text bytes.Buffer
	if err := textWelcome.Execute(&text, data); err != nil {
		return models.WelcomeEmail{}, fmt.Errorf("render text welcome email: %w", err)
	}

	var html bytes.Buffer
	if err := htmlWelcome.Execute(&html, data); err != nil {
		return models.WelcomeEmail{}, fmt.Errorf("render html welcome email: %w", err)
	}

	return models.WelcomeEmail{
		Subject: fmt.Sprintf("Finally %s! Time to Start Investing (incl. Honest Investment Guide)", safeName),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

func (b *Builder) data(safeName string) welcomeData {
	website := strings.TrimRight(strings.TrimSpace(b.brand.Website), "/")

	return welcomeData{
		Name:      safeName,
		EbookURL:  ebookURL(website, strings.TrimSpace(b.brand.EbookURL)),
		Logo:      assetURL(website, logoPath),
		BookCover: assetURL(website, bookCoverPath),
		LinkedIn:  orPlaceholder(b.brand.LinkedIn),
		Website:   orPlaceholder(website),
		X:         orPlaceholder(b.brand.X),
		Owner:     b.brand.Owner,
		Year:      b.now().Year(),
	}
}

// ebookURL keeps absolute links as they are and joins relative ones onto the website.
func ebookURL(website, ebook string) string {
	if ebook == "" {
		return fallbackEbookURL
	}

	if u, err := url.Parse(ebook); err == nil && u.IsAbs() {
		return ebook
	}

	base := website
	if base == "" {
		base = defaultWebsite
	}

	joined, err := url.JoinPath(base, ebook)
	if err != nil {
		return fallbackEbookURL
	}
	return joined
}

func assetURL(website, path string) string {
	if website == "" {
		return ""
	}
	return website + "/" + path
}

func orPlaceholder(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return placeholderLink
	}
	return link
}
