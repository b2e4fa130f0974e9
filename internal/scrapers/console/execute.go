package console

import (
	"context"
	"fmt"
	"playconsole-backend/internal/components/telemetry"
	"strings"
)

const (
	report_execute_navigate        = "execute.navigate"
	report_execute_form_submission = "execute.form-submission"
)

var loginHosts = []string{"accounts.google.com"}
var loginPaths = []string{"/ServiceLogin", "/signin", "/accounts/Login"}

// isLoginPage detects the session being bounced to the google accounts
// login, either by the url it landed on or by the login form being present.
func isLoginPage(page *Page, kind ContentKind) bool {
	if page.URI != nil {
		for _, host := range loginHosts {
			if page.URI.Hostname() == host {
				return true
			}
		}
		for _, path := range loginPaths {
			if strings.HasPrefix(page.URI.Path, path) {
				return true
			}
		}
	}

	if kind != KIND_HTML && !strings.Contains(page.ContentType, "html") {
		return false
	}
	doc, err := page.Document()
	if err != nil {
		return false
	}
	return doc.Find("form#gaia_loginform, input[name=Passwd]").Length() > 0
}

// navigate fetches a url and checks that the session is still authenticated.
func navigate(ctx context.Context, session Session, link string, kind ContentKind, tel telemetry.API) (*Page, error) {
	tel.ReportDebug(report_execute_navigate, link)

	page, err := session.Navigate(ctx, link)
	if err != nil {
		tel.ReportWarning(report_execute_navigate, err, link)
		return nil, err
	}
	if isLoginPage(page, kind) {
		err := &AuthRequiredError{URI: page.String()}
		tel.ReportWarning(report_execute_navigate, err, link)
		return nil, err
	}
	return page, nil
}

func templateMismatch(tel telemetry.API, err *TemplateMismatchError) error {
	// a mismatch means the console changed, it needs a human
	tel.ReportBroken(report_execute_form_submission, err, err.URI, err.Form, err.Element)
	return err
}

// Execute runs a request spec against the session and returns the payload
// of the page it ends on.
func Execute(ctx context.Context, session Session, spec RequestSpec, tel telemetry.API) (RawResponse, error) {
	switch spec := spec.(type) {
	case DirectDownload:
		page, err := navigate(ctx, session, spec.URL, spec.Kind, tel)
		if err != nil {
			return RawResponse{}, err
		}
		return RawResponse{Kind: spec.Kind, Body: page.Body, Source: page.String()}, nil
	case FormSubmission:
		return executeForm(ctx, session, spec, tel)
	}
	return RawResponse{}, fmt.Errorf("console: cannot execute request spec of type %T", spec)
}

func executeForm(ctx context.Context, session Session, spec FormSubmission, tel telemetry.API) (RawResponse, error) {
	page, err := navigate(ctx, session, spec.TargetURL, KIND_HTML, tel)
	if err != nil {
		return RawResponse{}, err
	}

	original, ok := page.Form(spec.FormName)
	if !ok {
		return RawResponse{}, templateMismatch(tel, &TemplateMismatchError{
			URI:  page.String(),
			Form: spec.FormName,
		})
	}
	form := original.Clone()

	for _, name := range spec.Remove {
		form.Delete(name)
	}
	for _, field := range spec.Fields {
		err := form.Set(field.Name, field.Value)
		if err != nil {
			return RawResponse{}, templateMismatch(tel, &TemplateMismatchError{
				URI:     page.String(),
				Form:    spec.FormName,
				Element: field.Name,
				Err:     err,
			})
		}
	}
	if spec.SubmitControl != "" {
		_, ok := form.Button(spec.SubmitControl)
		if !ok {
			return RawResponse{}, templateMismatch(tel, &TemplateMismatchError{
				URI:     page.String(),
				Form:    spec.FormName,
				Element: spec.SubmitControl,
			})
		}
	}

	result, err := session.Submit(ctx, form, spec.SubmitControl)
	if err != nil {
		tel.ReportWarning(report_execute_form_submission, err, spec.FormName)
		return RawResponse{}, err
	}
	if isLoginPage(result, spec.Kind) {
		return RawResponse{}, &AuthRequiredError{URI: result.String()}
	}
	return RawResponse{Kind: spec.Kind, Body: result.Body, Source: result.String()}, nil
}
