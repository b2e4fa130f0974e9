package htmlutil

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	ErrFieldNotFound  = errors.New("field not found")
	ErrOptionNotFound = errors.New("option not found")
	ErrButtonNotFound = errors.New("button not found")
)

type FieldKind int

const (
	FIELD_TEXT FieldKind = iota
	FIELD_HIDDEN
	FIELD_RADIO
	FIELD_CHECKBOX
	FIELD_SELECT
	FIELD_TEXTAREA
)

type Field struct {
	Name    string
	Value   string
	Kind    FieldKind
	Checked bool
}

// a radio or checkbox only contributes to the submission when checked.
func (f Field) submitted() bool {
	switch f.Kind {
	case FIELD_RADIO, FIELD_CHECKBOX:
		return f.Checked
	}
	return true
}

type Button struct {
	Name  string
	Value string
}

// Form is a detached model of an html <form>, it can be modified and
// serialized without touching the document it was parsed from.
type Form struct {
	Name    string
	Action  string
	Method  string
	Fields  []Field
	Buttons []Button
}

// ParseForms returns every form in the document in document order.
func ParseForms(doc *goquery.Document) []*Form {
	var forms []*Form
	doc.Find("form").Each(func(_ int, s *goquery.Selection) {
		forms = append(forms, parseForm(s))
	})
	return forms
}

func parseForm(s *goquery.Selection) *Form {
	form := &Form{
		Name:   s.AttrOr("name", s.AttrOr("id", "")),
		Action: s.AttrOr("action", ""),
		Method: strings.ToUpper(s.AttrOr("method", "GET")),
	}

	s.Find("input, select, textarea, button").Each(func(_ int, el *goquery.Selection) {
		name, hasName := el.Attr("name")
		tag := goquery.NodeName(el)

		if tag == "button" {
			kind := strings.ToLower(el.AttrOr("type", "submit"))
			if kind == "submit" && hasName {
				form.Buttons = append(form.Buttons, Button{
					Name:  name,
					Value: el.AttrOr("value", ""),
				})
			}
			return
		}
		if !hasName {
			return
		}

		switch tag {
		case "select":
			value := el.Find("option[selected]").First().AttrOr("value", "")
			if value == "" {
				value = el.Find("option").First().AttrOr("value", "")
			}
			form.Fields = append(form.Fields, Field{Name: name, Value: value, Kind: FIELD_SELECT})
			return
		case "textarea":
			form.Fields = append(form.Fields, Field{Name: name, Value: el.Text(), Kind: FIELD_TEXTAREA})
			return
		}

		value := el.AttrOr("value", "")
		_, checked := el.Attr("checked")
		switch strings.ToLower(el.AttrOr("type", "text")) {
		case "submit", "image":
			form.Buttons = append(form.Buttons, Button{Name: name, Value: value})
		case "button", "reset", "file":
		case "hidden":
			form.Fields = append(form.Fields, Field{Name: name, Value: value, Kind: FIELD_HIDDEN})
		case "radio":
			form.Fields = append(form.Fields, Field{Name: name, Value: value, Kind: FIELD_RADIO, Checked: checked})
		case "checkbox":
			if value == "" {
				value = "on"
			}
			form.Fields = append(form.Fields, Field{Name: name, Value: value, Kind: FIELD_CHECKBOX, Checked: checked})
		default:
			form.Fields = append(form.Fields, Field{Name: name, Value: value, Kind: FIELD_TEXT})
		}
	})

	return form
}

func (f *Form) Clone() *Form {
	clone := *f
	clone.Fields = append([]Field(nil), f.Fields...)
	clone.Buttons = append([]Button(nil), f.Buttons...)
	return &clone
}

// Field returns the submitted value of the named field, for radio groups
// this is the checked option.
func (f *Form) Field(name string) (Field, bool) {
	var found bool
	var result Field
	for _, field := range f.Fields {
		if field.Name != name {
			continue
		}
		if field.Kind == FIELD_RADIO && !field.Checked {
			if !found {
				result = field
				found = true
			}
			continue
		}
		return field, true
	}
	return result, found
}

func (f *Form) HasField(name string) bool {
	_, ok := f.Field(name)
	return ok
}

// Set assigns a value to a field. Radio groups must offer the value as
// one of their options.
func (f *Form) Set(name, value string) error {
	found := false
	radioMatched := false
	isRadio := false
	for i := range f.Fields {
		field := &f.Fields[i]
		if field.Name != name {
			continue
		}
		found = true
		switch field.Kind {
		case FIELD_RADIO:
			isRadio = true
			field.Checked = field.Value == value
			if field.Checked {
				radioMatched = true
			}
		case FIELD_CHECKBOX:
			field.Value = value
			field.Checked = true
		default:
			field.Value = value
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrFieldNotFound, name)
	}
	if isRadio && !radioMatched {
		return fmt.Errorf("%w: %s=%s", ErrOptionNotFound, name, value)
	}
	return nil
}

// Delete removes every field with the given name, it reports whether
// anything was removed.
func (f *Form) Delete(name string) bool {
	kept := f.Fields[:0]
	removed := false
	for _, field := range f.Fields {
		if field.Name == name {
			removed = true
			continue
		}
		kept = append(kept, field)
	}
	f.Fields = kept
	return removed
}

func (f *Form) Button(name string) (Button, bool) {
	for _, b := range f.Buttons {
		if b.Name == name {
			return b, true
		}
	}
	return Button{}, false
}

// Values serializes the form as it would be submitted by clicking the
// button named `control`. An empty control behaves like implicit
// submission in a browser, the first submit button is used if there is one.
func (f *Form) Values(control string) (url.Values, error) {
	values := url.Values{}
	for _, field := range f.Fields {
		if !field.submitted() {
			continue
		}
		values.Add(field.Name, field.Value)
	}
	if control == "" {
		if len(f.Buttons) > 0 {
			values.Add(f.Buttons[0].Name, f.Buttons[0].Value)
		}
		return values, nil
	}
	button, ok := f.Button(control)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrButtonNotFound, control)
	}
	values.Add(button.Name, button.Value)
	return values, nil
}

// ResolveAction resolves the form's action against the page it came from,
// an empty action submits to the page itself.
func (f *Form) ResolveAction(page *url.URL) (*url.URL, error) {
	if f.Action == "" {
		return page, nil
	}
	action, err := url.Parse(f.Action)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return action, nil
	}
	return page.ResolveReference(action), nil
}
