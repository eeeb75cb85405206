// Package metadata извлекает заголовок и описание веб-страницы для новых источников.
package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// DefaultTimeout — ограничение на загрузку страницы.
const DefaultTimeout = 5 * time.Second

// maxBody — сколько байт страницы читаем; заголовки лежат в <head>.
const maxBody = 1 << 20

// Page — извлечённые метаданные. Пустые поля означают «не найдено».
type Page struct {
	Title       string
	Description string
}

// Fetcher загружает страницу и извлекает метаданные.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// HTTPFetcher — реализация Fetcher поверх net/http.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher создаёт загрузчик с общим таймаутом на запрос.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}, err
	}
	req.Header.Set("User-Agent", "VaultSync/1.0 (+metadata)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Page{}, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return Extract(io.LimitReader(resp.Body, maxBody))
}

// Extract разбирает HTML. Заголовок: <title>, затем og:title.
// Описание: meta description, затем og:description.
func Extract(r io.Reader) (Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Page{}, err
	}
	p := Page{Title: extractTitle(doc)}
	if p.Title == "" {
		p.Title = metaContent(doc, "property", "og:title")
	}
	p.Description = metaContent(doc, "name", "description")
	if p.Description == "" {
		p.Description = metaContent(doc, "property", "og:description")
	}
	return p, nil
}

func extractTitle(doc *html.Node) string {
	var title string
	var f func(*html.Node)
	f = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			var sb strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
				}
			}
			title = cleanText(sb.String())
			return
		}
		// <title> внутри <svg> не является заголовком документа
		if n.Type == html.ElementNode && n.Data == "svg" {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(doc)
	return title
}

// metaContent ищет первый <meta attr="value" content="..."> (attr сравнивается без учёта регистра).
func metaContent(doc *html.Node, attr, value string) string {
	var content string
	var f func(*html.Node)
	f = func(n *html.Node) {
		if content != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "meta" {
			var match bool
			var c string
			for _, a := range n.Attr {
				switch a.Key {
				case attr:
					match = strings.EqualFold(strings.TrimSpace(a.Val), value)
				case "content":
					c = a.Val
				}
			}
			if match {
				content = cleanText(c)
			}
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			f(ch)
		}
	}
	f(doc)
	return content
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
