package console

import (
	"bytes"
	"net/url"
	"playconsole-backend/pkg/htmlutil"
	"sync"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Page is what the session is currently looking at. The document and form
// model are parsed lazily since most report downloads are never read as html.
type Page struct {
	URI         *url.URL
	Status      int
	ContentType string
	Body        []byte

	once   sync.Once
	doc    *goquery.Document
	forms  []*htmlutil.Form
	docErr error
}

func NewPage(uri *url.URL, status int, contentType string, body []byte) *Page {
	return &Page{
		URI:         uri,
		Status:      status,
		ContentType: contentType,
		Body:        body,
	}
}

func (p *Page) parse() {
	p.once.Do(func() {
		p.doc, p.docErr = goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
		if p.docErr != nil {
			return
		}
		p.forms = htmlutil.ParseForms(p.doc)
	})
}

func (p *Page) Document() (*goquery.Document, error) {
	p.parse()
	return p.doc, p.docErr
}

// Forms returns the page's forms in document order. The returned forms
// belong to the page, clone one before modifying it.
func (p *Page) Forms() []*htmlutil.Form {
	p.parse()
	return p.forms
}

func (p *Page) Form(name string) (*htmlutil.Form, bool) {
	for _, f := range p.Forms() {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Text returns the body as utf-8 text, the console serves csv as utf-8
// and sometimes prefixes it with a byte order mark.
func (p *Page) Text() string {
	return decodeText(p.Body)
}

func decodeText(body []byte) string {
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(body) {
		return string(bytes.ToValidUTF8(body, []byte("\uFFFD")))
	}
	return string(body)
}

func (p *Page) String() string {
	if p == nil || p.URI == nil {
		return "<no page>"
	}
	return p.URI.String()
}
