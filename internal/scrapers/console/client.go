package console

import (
	"context"
	"errors"
	"playconsole-backend/internal/components/assert"
	"playconsole-backend/internal/components/telemetry"
	"playconsole-backend/pkg/htmlutil"
	"sync"
	"time"
)

const (
	report_client_developer_account = "client.developer-account"
	report_client_merchant_context  = "client.merchant-context"
	report_client_order_list        = "client.order-list"
	report_client_deliver           = "client.deliver"
	report_client_wallet_orders     = "client.wallet-orders"
)

const (
	field_order_selection = "OrderSelection"
	button_close_order    = "closeOrderButton"
	button_archive        = "archiveButton"
)

type ClientOptions struct {
	// Endpoints selects the console generation, the zero value is v2.
	Endpoints EndpointTable
	// DeveloperAccount skips resolving the account id from the console
	// landing page when set.
	DeveloperAccount string
}

// Client exposes one method per report the console offers. All methods
// share one session and are serialized.
type Client struct {
	session Session
	builder Builder
	tel     telemetry.API

	lock             sync.Mutex
	developerAccount string
}

func NewClient(session Session, opts ClientOptions, tel telemetry.API) *Client {
	assert.NotNil(session)
	assert.NotNil(tel)

	endpoints := opts.Endpoints
	if endpoints.Version == "" {
		endpoints = V2Endpoints
	}

	return &Client{
		session:          session,
		builder:          NewBuilder(endpoints),
		tel:              telemetry.NewScopedAPI("console", tel),
		developerAccount: opts.DeveloperAccount,
	}
}

func (c *Client) Endpoints() EndpointTable {
	return c.builder.Endpoints
}

// DeveloperAccount returns the developer account id, resolving it from the
// console landing page the first time.
func (c *Client) DeveloperAccount(ctx context.Context) (string, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.resolveDeveloperAccount(ctx)
}

func (c *Client) resolveDeveloperAccount(ctx context.Context) (string, error) {
	if c.developerAccount != "" {
		return c.developerAccount, nil
	}
	if c.builder.Endpoints.ConsoleHome == "" {
		return "", invalid("account_id", "required, the %s console cannot resolve it", c.builder.Endpoints.Version)
	}

	page, err := navigate(ctx, c.session, c.builder.Endpoints.ConsoleHome, KIND_HTML, c.tel)
	if err != nil {
		return "", err
	}
	account, err := ResolveDeveloperAccount(page.URI)
	if err != nil {
		c.tel.ReportWarning(report_client_developer_account, err)
		return "", err
	}
	c.developerAccount = account
	return account, nil
}

func (c *Client) resolveMerchantContext(ctx context.Context) (MerchantContext, error) {
	page, err := navigate(ctx, c.session, c.builder.Endpoints.MerchantPages, KIND_HTML, c.tel)
	if err != nil {
		return MerchantContext{}, err
	}
	merchant, err := ResolveMerchantContext(page.URI)
	if err != nil {
		c.tel.ReportWarning(report_client_merchant_context, err)
		return MerchantContext{}, err
	}
	return merchant, nil
}

// complete fills in the identifiers a request needs that only the console
// itself knows.
func (c *Client) complete(ctx context.Context, req ReportRequest) (ReportRequest, error) {
	switch r := req.(type) {
	case SalesReport:
		if r.AccountID == "" {
			account, err := c.resolveDeveloperAccount(ctx)
			if err != nil {
				return nil, err
			}
			r.AccountID = account
		}
		return r, nil
	case EstimatedSalesReport:
		if r.AccountID == "" {
			account, err := c.resolveDeveloperAccount(ctx)
			if err != nil {
				return nil, err
			}
			r.AccountID = account
		}
		return r, nil
	case AppStats:
		if r.AccountID == "" {
			account, err := c.resolveDeveloperAccount(ctx)
			if err != nil {
				return nil, err
			}
			r.AccountID = account
		}
		return r, nil
	case OrderList:
		if r.Merchant == nil && c.builder.Endpoints.MerchantPages != "" {
			// validate before touching the session
			_, err := c.builder.Build(OrderList{
				Start:    r.Start,
				End:      r.End,
				State:    r.State,
				Expanded: r.Expanded,
				Merchant: &MerchantContext{},
			})
			if err != nil {
				return nil, err
			}
			merchant, err := c.resolveMerchantContext(ctx)
			if err != nil {
				return nil, err
			}
			r.Merchant = &merchant
		}
		return r, nil
	}
	return req, nil
}

func (c *Client) fetch(ctx context.Context, req ReportRequest) (RawResponse, error) {
	req, err := c.complete(ctx, req)
	if err != nil {
		return RawResponse{}, err
	}
	spec, err := c.builder.Build(req)
	if err != nil {
		return RawResponse{}, err
	}
	return Execute(ctx, c.session, spec, c.tel)
}

// Fetch retrieves the unparsed payload of a report.
func (c *Client) Fetch(ctx context.Context, req ReportRequest) (RawResponse, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.fetch(ctx, req)
}

// FetchRecords retrieves a report and parses it into records.
func (c *Client) FetchRecords(ctx context.Context, req ReportRequest, opts ParseOptions) ([]Record, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	raw, err := c.fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	return Parse(raw, opts)
}

// fetchText retrieves a report as text, a zipped report is unpacked first.
func (c *Client) fetchText(ctx context.Context, req ReportRequest) (string, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	raw, err := c.fetch(ctx, req)
	if err != nil {
		return "", err
	}
	if raw.Kind == KIND_ZIP {
		contents, _, err := UnpackZip(raw.Source, raw.Body)
		if err != nil {
			return "", err
		}
		return decodeText(contents), nil
	}
	return decodeText(raw.Body), nil
}

// GetSalesReport returns the monthly payout report as csv text. An empty
// accountID uses the session's developer account.
func (c *Client) GetSalesReport(ctx context.Context, year, month int, accountID string) (string, error) {
	return c.fetchText(ctx, SalesReport{Year: year, Month: month, AccountID: accountID})
}

// GetEstimatedSalesReport returns the monthly estimated sales report as csv
// text.
func (c *Client) GetEstimatedSalesReport(ctx context.Context, year, month int, accountID string) (string, error) {
	return c.fetchText(ctx, EstimatedSalesReport{Year: year, Month: month, AccountID: accountID})
}

type OrderListQuery struct {
	Start    time.Time
	End      time.Time
	State    FinancialState
	Expanded bool
	// Merchant skips resolving the merchant ids from the merchant center
	// when set.
	Merchant *MerchantContext
}

// GetOrderList returns the order list as csv text. When the merchant center
// does not reveal the merchant ids the result is empty, not an error, since
// that is what a merchant without orders sees.
func (c *Client) GetOrderList(ctx context.Context, query OrderListQuery) (string, error) {
	text, err := c.fetchText(ctx, OrderList{
		Start:    query.Start,
		End:      query.End,
		State:    query.State,
		Expanded: query.Expanded,
		Merchant: query.Merchant,
	})
	var resolution *ContextResolutionError
	if errors.As(err, &resolution) {
		c.tel.ReportWarning(report_client_order_list, "no merchant context, returning empty order list", resolution.URI)
		return "", nil
	}
	return text, err
}

// GetPayouts returns the payout or transaction detail report for a day
// range as csv text, an empty reportType means PAYOUT_REPORT.
func (c *Client) GetPayouts(ctx context.Context, startDay, endDay time.Time, reportType PayoutReportType) (string, error) {
	return c.fetchText(ctx, Payouts{StartDay: startDay, EndDay: endDay, Type: reportType})
}

// GetOrderDetail returns the detail table of one order as csv text.
func (c *Client) GetOrderDetail(ctx context.Context, orderID string) (string, error) {
	return c.fetchText(ctx, OrderDetail{OrderID: orderID})
}

// GetAppStats returns the zip archive of statistics csv files of an
// application, unmodified.
func (c *Client) GetAppStats(ctx context.Context, pkg string, startDay, endDay time.Time) ([]byte, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	raw, err := c.fetch(ctx, AppStats{Package: pkg, StartDay: startDay, EndDay: endDay})
	if err != nil {
		return nil, err
	}
	return raw.Body, nil
}

// GetWalletOrders scrapes the merchant center order table, in page order.
func (c *Client) GetWalletOrders(ctx context.Context) ([]Record, error) {
	records, err := c.FetchRecords(ctx, WalletOrders{}, ParseOptions{})
	if err != nil {
		return nil, err
	}
	c.tel.ReportCount(report_client_wallet_orders, int64(len(records)))
	return records, nil
}

// DeliverSelector matches order forms that can be marked as delivered and,
// when autoArchive is set, delivered orders that can be archived.
func DeliverSelector(autoArchive bool) Selector {
	return func(form *htmlutil.Form) (WorklistItem, bool) {
		var key string
		field, ok := form.Field(field_order_selection)
		if ok {
			key = field.Value
		}

		_, ok = form.Button(button_close_order)
		if ok {
			return WorklistItem{Form: form, Key: key, Control: button_close_order}, true
		}
		if autoArchive {
			_, ok = form.Button(button_archive)
			if ok {
				return WorklistItem{Form: form, Key: key, Control: button_archive}, true
			}
		}
		return WorklistItem{}, false
	}
}

// AutoDeliverPendingOrders marks every pending order as delivered, one
// submission per order, and returns how many submissions were made.
func (c *Client) AutoDeliverPendingOrders(ctx context.Context, autoArchive bool, opts DrainOptions) (int, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	spec, err := c.builder.Build(OrderListPage{})
	if err != nil {
		return 0, err
	}
	ordersPage := spec.(DirectDownload).URL

	provider := func(ctx context.Context) (*Page, error) {
		return navigate(ctx, c.session, ordersPage, KIND_HTML, c.tel)
	}
	action := func(ctx context.Context, item WorklistItem) (*Page, error) {
		c.tel.ReportDebug(report_client_deliver, item.Control, item.Key)
		page, err := c.session.Submit(ctx, item.Form.Clone(), item.Control)
		if err != nil {
			return nil, err
		}
		if isLoginPage(page, KIND_HTML) {
			return nil, &AuthRequiredError{URI: page.String()}
		}
		return page, nil
	}

	return Drain(ctx, provider, DeliverSelector(autoArchive), action, opts, c.tel)
}
