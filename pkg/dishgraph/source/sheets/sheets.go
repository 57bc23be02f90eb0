// Package sheets reads the input tables from a remote spreadsheet, one
// HTTP request per sheet name.
package sheets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/cognicore/dishgraph/pkg/dishgraph/internalerr"
	"github.com/cognicore/dishgraph/pkg/dishgraph/source"
	"github.com/cognicore/dishgraph/pkg/dishgraph/source/csvdir"
)

// Format is the export format requested per sheet.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// SheetPlaceholder and FormatPlaceholder are substituted in URLTemplate.
const (
	SheetPlaceholder  = "{sheet}"
	FormatPlaceholder = "{format}"
)

// DefaultURLTemplate is the visualization export endpoint of a published
// spreadsheet; prefix it with the document URL.
const DefaultURLTemplate = "/gviz/tq?tqx=out:{format}&sheet={sheet}"

// Options configures a spreadsheet source.
type Options struct {
	// Base is the spreadsheet document URL.
	Base string
	// URLTemplate is appended to Base. Defaults to DefaultURLTemplate.
	URLTemplate  string
	Format       Format
	Dishes       string // sheet names
	Ingredients  string
	Associations string
	Timeout      time.Duration
}

// Source implements source.Source over HTTP.
type Source struct {
	opts   Options
	client *http.Client
}

// New creates a spreadsheet source. A nil client gets one with
// opts.Timeout (default 30s).
func New(opts Options, client *http.Client) *Source {
	if opts.URLTemplate == "" {
		opts.URLTemplate = DefaultURLTemplate
	}
	if opts.Format == "" {
		opts.Format = FormatCSV
	}
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Source{opts: opts, client: client}
}

// Load fetches the three sheets. Failures are not retried.
func (s *Source) Load(ctx context.Context) (source.Tables, error) {
	var ts source.Tables
	var err error
	if ts.Dishes, err = s.fetch(ctx, "dishes", s.opts.Dishes); err != nil {
		return source.Tables{}, err
	}
	if ts.Ingredients, err = s.fetch(ctx, "ingredients", s.opts.Ingredients); err != nil {
		return source.Tables{}, err
	}
	if ts.Associations, err = s.fetch(ctx, "associations", s.opts.Associations); err != nil {
		return source.Tables{}, err
	}
	return ts, nil
}

// SheetURL returns the export URL for a sheet.
func (s *Source) SheetURL(sheet string) string {
	path := strings.ReplaceAll(s.opts.URLTemplate, FormatPlaceholder, string(s.opts.Format))
	path = strings.ReplaceAll(path, SheetPlaceholder, url.QueryEscape(sheet))
	return strings.TrimRight(s.opts.Base, "/") + path
}

func (s *Source) fetch(ctx context.Context, name, sheet string) (source.Table, error) {
	u := s.SheetURL(sheet)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return source.Table{}, fmt.Errorf("sheet %q: %w: %w", sheet, internalerr.ErrSourceUnavailable, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return source.Table{}, fmt.Errorf("sheet %q: %w: %w", sheet, internalerr.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return source.Table{}, fmt.Errorf("sheet %q: HTTP %d: %w", sheet, resp.StatusCode, internalerr.ErrSourceUnavailable)
	}

	var t source.Table
	switch s.opts.Format {
	case FormatHTML:
		t, err = ParseHTMLTable(name, resp.Body)
	default:
		t, err = csvdir.ReadTable(name, resp.Body)
	}
	if err != nil {
		return source.Table{}, fmt.Errorf("sheet %q: %w: %w", sheet, internalerr.ErrSourceUnavailable, err)
	}
	return t, nil
}

// ParseHTMLTable reads the first <table> of an HTML document. The first
// row is the header.
func ParseHTMLTable(name string, r io.Reader) (source.Table, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return source.Table{}, err
	}

	table := find(doc, atom.Table)
	if table == nil {
		return source.Table{}, fmt.Errorf("no table in %s export", name)
	}

	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
					cells = append(cells, strings.TrimSpace(text(c)))
				}
			}
			rows = append(rows, cells)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)

	if len(rows) == 0 {
		return source.Table{Name: name}, nil
	}
	return source.NewTable(name, rows[0], rows[1:]), nil
}

func find(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, a); found != nil {
			return found
		}
	}
	return nil
}

func text(n *html.Node) string {
	var b strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			b.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return b.String()
}
