package console

import (
	"context"
	"fmt"
	"net/url"
	"playconsole-backend/pkg/htmlutil"
	"strings"
)

type submission struct {
	Form    *htmlutil.Form
	Control string
}

// fakeSession serves canned pages by url, submissions are answered by the
// onSubmit hook.
type fakeSession struct {
	pages    map[string]*Page
	redirect map[string]string
	onSubmit func(form *htmlutil.Form, control string) (*Page, error)

	current   *Page
	navigated []string
	submitted []submission
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		pages:    map[string]*Page{},
		redirect: map[string]string{},
	}
}

func mustURL(link string) *url.URL {
	u, err := url.Parse(link)
	if err != nil {
		panic(err)
	}
	return u
}

func htmlPage(link, body string) *Page {
	return NewPage(mustURL(link), 200, "text/html; charset=utf-8", []byte(body))
}

func csvPage(link, body string) *Page {
	return NewPage(mustURL(link), 200, "text/csv", []byte(body))
}

// serve registers a page under the url it is fetched with.
func (s *fakeSession) serve(link string, page *Page) {
	s.pages[link] = page
}

// serveRedirect makes fetching `from` land on the page registered for `to`.
func (s *fakeSession) serveRedirect(from, to string, page *Page) {
	s.redirect[from] = to
	s.pages[to] = page
}

func (s *fakeSession) Navigate(ctx context.Context, link string) (*Page, error) {
	s.navigated = append(s.navigated, link)
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{URL: link, Err: err}
	}
	if to, ok := s.redirect[link]; ok {
		link = to
	}
	page, ok := s.pages[link]
	if !ok {
		return nil, &TransportError{URL: link, Status: 404}
	}
	s.current = page
	return page, nil
}

func (s *fakeSession) CurrentPage() *Page {
	return s.current
}

func (s *fakeSession) Submit(ctx context.Context, form *htmlutil.Form, control string) (*Page, error) {
	s.submitted = append(s.submitted, submission{Form: form, Control: control})
	if s.onSubmit == nil {
		return nil, fmt.Errorf("unexpected submission of form %q", form.Name)
	}
	page, err := s.onSubmit(form, control)
	if err != nil {
		return nil, err
	}
	s.current = page
	return page, nil
}

// ordersHTML renders the checkout orders page with one form per order.
func ordersHTML(orders map[string]string, order []string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, id := range order {
		fmt.Fprintf(&b, `<form name="order-%s" method="post" action="/sell/orders">`, id)
		fmt.Fprintf(&b, `<input type="hidden" name="OrderSelection" value="%s">`, id)
		if button := orders[id]; button != "" {
			fmt.Fprintf(&b, `<input type="submit" name="%s" value="go">`, button)
		}
		b.WriteString("</form>")
	}
	b.WriteString("</body></html>")
	return b.String()
}
