package console

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"playconsole-backend/internal/components/assert"
	"playconsole-backend/internal/components/telemetry"
	"playconsole-backend/pkg/htmlutil"
	"strings"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("playconsole.scrapers.console")

// Session is an authenticated, stateful connection to the console. The
// console tracks the current page server side, so a Session must only be
// driven by one caller at a time.
//
// note: fault injection point
type Session interface {
	// Navigate fetches a url and makes the result the current page.
	Navigate(ctx context.Context, link string) (*Page, error)
	// CurrentPage returns the page of the last successful navigation or
	// submission, nil before the first one.
	CurrentPage() *Page
	// Submit submits a form of the current page by clicking `control`, an
	// empty control clicks the form's first submit button.
	Submit(ctx context.Context, form *htmlutil.Form, control string) (*Page, error)
}

type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
}

type HTTPSessionOptions struct {
	UserAgent string
	// Cookies of an already authenticated browser session, this is the
	// only way the session gets authenticated.
	Cookies []Cookie
	// RequestsPerSecond limits the request rate, 0 means 1 request/second.
	RequestsPerSecond float64
	Timeout           time.Duration
	// Output receives a copy of every request/response pair if non-nil.
	Output telemetry.MessageOutput
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// HTTPSession implements Session over plain http with a cookie jar.
type HTTPSession struct {
	http *resty.Client
	tel  telemetry.API

	lock    sync.Mutex
	current *Page
}

func NewHTTPSession(opts HTTPSessionOptions, tel telemetry.API) (*HTTPSession, error) {
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("session", tel)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	for _, c := range opts.Cookies {
		domain := c.Domain
		if domain == "" {
			domain = "google.com"
		}
		jar.SetCookies(
			&url.URL{Scheme: "https", Host: strings.TrimPrefix(domain, ".")},
			[]*http.Cookie{{
				Name:   c.Name,
				Value:  c.Value,
				Domain: domain,
				Path:   "/",
				Secure: true,
			}},
		)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	httpClient := resty.New()
	httpClient.SetCookieJar(jar)
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	httpClient.SetHeader("user-agent", userAgent)
	// the console hops between play, checkout, wallet, storage and the
	// accounts login, so redirects cannot be pinned to one domain
	httpClient.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	httpClient.SetTimeout(timeout)

	// max burst of 1 keeps requests evenly spaced
	rateLimiter := rate.NewLimiter(rate.Limit(rps), 1)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, tel, opts.Output)

	return &HTTPSession{
		http: httpClient,
		tel:  tel,
	}, nil
}

func (s *HTTPSession) CurrentPage() *Page {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.current
}

func (s *HTTPSession) Navigate(ctx context.Context, link string) (*Page, error) {
	ctx, span := tracer.Start(ctx, "session:Navigate")
	defer span.End()
	span.SetAttributes(attribute.String("url", link))

	s.lock.Lock()
	defer s.lock.Unlock()

	res, err := s.http.R().
		SetContext(ctx).
		Get(link)
	page, err := s.toPage(link, res, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "navigate failed")
		return nil, err
	}
	s.current = page
	return page, nil
}

func (s *HTTPSession) Submit(ctx context.Context, form *htmlutil.Form, control string) (*Page, error) {
	ctx, span := tracer.Start(ctx, "session:Submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("form", form.Name),
		attribute.String("control", control),
	)

	s.lock.Lock()
	defer s.lock.Unlock()

	var base *url.URL
	if s.current != nil {
		base = s.current.URI
	}
	action, err := form.ResolveAction(base)
	if err != nil {
		span.SetStatus(codes.Error, "bad form action")
		return nil, fmt.Errorf("resolve action of form %q: %w", form.Name, err)
	}
	values, err := form.Values(control)
	if err != nil {
		span.SetStatus(codes.Error, "serialize form")
		return nil, err
	}

	req := s.http.R().SetContext(ctx)
	var res *resty.Response
	if form.Method == http.MethodPost {
		res, err = req.SetFormDataFromValues(values).Post(action.String())
	} else {
		res, err = req.SetQueryParamsFromValues(values).Get(action.String())
	}
	page, err := s.toPage(action.String(), res, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		return nil, err
	}
	s.current = page
	return page, nil
}

func (s *HTTPSession) toPage(link string, res *resty.Response, err error) (*Page, error) {
	if err != nil {
		return nil, &TransportError{URL: link, Err: err}
	}
	if res.IsError() {
		s.tel.ReportWarning("http-session.status", link, res.Status())
		return nil, &TransportError{URL: link, Status: res.StatusCode()}
	}

	final := res.Request.RawRequest.URL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		final = res.RawResponse.Request.URL
	}
	return NewPage(
		final,
		res.StatusCode(),
		res.Header().Get("content-type"),
		res.Body(),
	), nil
}
