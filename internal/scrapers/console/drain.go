package console

import (
	"context"
	"playconsole-backend/internal/components/assert"
	"playconsole-backend/internal/components/telemetry"
	"playconsole-backend/pkg/htmlutil"
)

const (
	report_drain_action    = "drain.action"
	report_drain_stuck     = "drain.stuck"
	report_drain_performed = "drain.performed"
)

type DrainState int

const (
	DRAIN_SCANNING DrainState = iota
	DRAIN_ACTING
	// DRAIN_DONE means no element matched the selector anymore.
	DRAIN_DONE
	// DRAIN_STUCK means the loop ended early, Err() tells why.
	DRAIN_STUCK
)

func (s DrainState) String() string {
	switch s {
	case DRAIN_SCANNING:
		return "scanning"
	case DRAIN_ACTING:
		return "acting"
	case DRAIN_DONE:
		return "done"
	case DRAIN_STUCK:
		return "stuck"
	}
	return "unknown"
}

// WorklistItem is one actionable form on a page. It is found again on every
// scan since each action changes the page.
type WorklistItem struct {
	Form *htmlutil.Form
	// Key identifies the item for logging, it may be empty.
	Key string
	// Control is the button that performs the action.
	Control string
}

// PageProvider returns the page to scan when no action has produced one yet.
type PageProvider func(ctx context.Context) (*Page, error)

// Selector decides whether a form is actionable.
type Selector func(form *htmlutil.Form) (WorklistItem, bool)

// Action performs the remote state change for an item and returns the page
// it results in. A nil page makes the drainer ask the PageProvider again.
type Action func(ctx context.Context, item WorklistItem) (*Page, error)

type DrainOptions struct {
	// MaxIterations bounds the number of actions, 0 means 1000.
	MaxIterations int
	// StallLimit is the number of consecutive actions not reducing the
	// number of matching forms after which the loop gives up, 0 means 3.
	StallLimit int
	// Stop is checked before every step, returning true ends the loop with
	// ErrStopped.
	Stop func() bool
}

func (o DrainOptions) withDefaults() DrainOptions {
	if o.MaxIterations <= 0 {
		o.MaxIterations = 1000
	}
	if o.StallLimit <= 0 {
		o.StallLimit = 3
	}
	return o
}

// Drainer repeats an action against the first matching form of a page until
// no form matches. Every action mutates remote state, so a drain that failed
// halfway cannot be resumed exactly, it can only be run again.
type Drainer struct {
	provider PageProvider
	selector Selector
	action   Action
	opts     DrainOptions
	tel      telemetry.API

	state     DrainState
	page      *Page
	next      WorklistItem
	performed int
	// matching forms on the page before the last action, -1 before any
	lastCount int
	stalls    int
	err       error
}

func NewDrainer(provider PageProvider, selector Selector, action Action, opts DrainOptions, tel telemetry.API) *Drainer {
	assert.NotNil(tel)

	return &Drainer{
		provider:  provider,
		selector:  selector,
		action:    action,
		opts:      opts.withDefaults(),
		tel:       tel,
		state:     DRAIN_SCANNING,
		lastCount: -1,
	}
}

func (d *Drainer) State() DrainState {
	return d.state
}

// Performed is the number of actions that completed.
func (d *Drainer) Performed() int {
	return d.performed
}

func (d *Drainer) Err() error {
	return d.err
}

func (d *Drainer) fail(err error) {
	d.state = DRAIN_STUCK
	d.err = err
}

func (d *Drainer) stopped(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.opts.Stop != nil && d.opts.Stop() {
		return ErrStopped
	}
	return nil
}

// scan finds the first matching form of the page and counts every match.
func (d *Drainer) scan(page *Page) (WorklistItem, int) {
	var first WorklistItem
	count := 0
	for _, form := range page.Forms() {
		item, ok := d.selector(form)
		if !ok {
			continue
		}
		if count == 0 {
			if item.Form == nil {
				item.Form = form
			}
			first = item
		}
		count++
	}
	return first, count
}

// Step advances the state machine by one transition, it returns false once
// the drainer reached DRAIN_DONE or DRAIN_STUCK.
func (d *Drainer) Step(ctx context.Context) bool {
	switch d.state {
	case DRAIN_DONE, DRAIN_STUCK:
		return false
	}
	if err := d.stopped(ctx); err != nil {
		d.fail(err)
		return false
	}

	switch d.state {
	case DRAIN_SCANNING:
		d.stepScan(ctx)
	case DRAIN_ACTING:
		d.stepAct(ctx)
	}
	return d.state != DRAIN_DONE && d.state != DRAIN_STUCK
}

func (d *Drainer) stepScan(ctx context.Context) {
	if d.page == nil {
		page, err := d.provider(ctx)
		if err != nil {
			d.fail(err)
			return
		}
		d.page = page
	}

	item, count := d.scan(d.page)
	if count == 0 {
		d.state = DRAIN_DONE
		return
	}

	if d.lastCount >= 0 {
		if count >= d.lastCount {
			d.stalls++
		} else {
			d.stalls = 0
		}
	}
	if d.stalls >= d.opts.StallLimit || d.performed >= d.opts.MaxIterations {
		err := &NoProgressError{Performed: d.performed, Remaining: count}
		d.tel.ReportBroken(report_drain_stuck, err, d.page.String())
		d.fail(err)
		return
	}

	d.lastCount = count
	d.next = item
	d.state = DRAIN_ACTING
}

func (d *Drainer) stepAct(ctx context.Context) {
	item := d.next
	d.tel.ReportDebug(report_drain_action, item.Control, item.Key)

	page, err := d.action(ctx, item)
	if err != nil {
		d.tel.ReportWarning(report_drain_action, err, item.Control, item.Key)
		d.fail(err)
		return
	}
	d.performed++
	d.page = page
	d.next = WorklistItem{}
	d.state = DRAIN_SCANNING
}

// Drain runs until no form matches and returns the number of actions
// performed. On error the count is still the number of completed actions.
func (d *Drainer) Drain(ctx context.Context) (int, error) {
	for d.Step(ctx) {
	}
	d.tel.ReportCount(report_drain_performed, int64(d.performed))
	return d.performed, d.err
}

func Drain(
	ctx context.Context,
	provider PageProvider,
	selector Selector,
	action Action,
	opts DrainOptions,
	tel telemetry.API,
) (int, error) {
	return NewDrainer(provider, selector, action, opts, tel).Drain(ctx)
}
