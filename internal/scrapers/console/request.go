package console

import (
	"time"
)

// ReportRequest is one of the report kinds the console can produce, it is
// turned into a RequestSpec by a Builder.
type ReportRequest interface {
	reportKind() string
}

// SalesReport is the monthly payout report.
type SalesReport struct {
	Year  int
	Month int
	// AccountID is the developer account, the Client fills it in when empty.
	AccountID string
}

// EstimatedSalesReport is the monthly estimated sales report.
type EstimatedSalesReport struct {
	Year      int
	Month     int
	AccountID string
}

// OrderList is the merchant order list for a time range.
type OrderList struct {
	Start time.Time
	End   time.Time
	// State filters orders by financial state, FINANCIAL_STATE_ALL disables
	// the filter. The zero value is FINANCIAL_STATE_CHARGED.
	State    FinancialState
	Expanded bool
	// Merchant is required by consoles that download the order list from
	// the wallet merchant center.
	Merchant *MerchantContext
}

// OrderListPage is the checkout orders page itself, the page holding one
// form per order that the delivery loop works through.
type OrderListPage struct{}

// Payouts is the payout or transaction detail report for a day range.
type Payouts struct {
	StartDay time.Time
	EndDay   time.Time
	Type     PayoutReportType
}

// OrderDetail is the detail table of a single order.
type OrderDetail struct {
	OrderID string
}

// AppStats is the zip of statistics csv files for an application.
type AppStats struct {
	Package   string
	StartDay  time.Time
	EndDay    time.Time
	AccountID string
}

// WalletOrders is the merchant center order table scraped from html.
type WalletOrders struct{}

func (SalesReport) reportKind() string          { return "sales_report" }
func (EstimatedSalesReport) reportKind() string { return "estimated_sales_report" }
func (OrderList) reportKind() string            { return "order_list" }
func (OrderListPage) reportKind() string        { return "order_list_page" }
func (Payouts) reportKind() string              { return "payouts" }
func (OrderDetail) reportKind() string          { return "order_detail" }
func (AppStats) reportKind() string             { return "app_stats" }
func (WalletOrders) reportKind() string         { return "wallet_orders" }

// KindOf returns a stable name for the kind of report, used as a storage key.
func KindOf(req ReportRequest) string {
	return req.reportKind()
}

type FinancialState string

const (
	FINANCIAL_STATE_CHARGED             FinancialState = "CHARGED"
	FINANCIAL_STATE_ALL                 FinancialState = "ALL"
	FINANCIAL_STATE_CANCELLED           FinancialState = "CANCELLED"
	FINANCIAL_STATE_CANCELLED_BY_GOOGLE FinancialState = "CANCELLED_BY_GOOGLE"
	FINANCIAL_STATE_CHARGEABLE          FinancialState = "CHARGEABLE"
	FINANCIAL_STATE_CHARGING            FinancialState = "CHARGING"
	FINANCIAL_STATE_PAYMENT_DECLINED    FinancialState = "PAYMENT_DECLINED"
	FINANCIAL_STATE_REVIEWING           FinancialState = "REVIEWING"
)

var financialStates = []FinancialState{
	FINANCIAL_STATE_ALL,
	FINANCIAL_STATE_CANCELLED,
	FINANCIAL_STATE_CANCELLED_BY_GOOGLE,
	FINANCIAL_STATE_CHARGEABLE,
	FINANCIAL_STATE_CHARGED,
	FINANCIAL_STATE_CHARGING,
	FINANCIAL_STATE_PAYMENT_DECLINED,
	FINANCIAL_STATE_REVIEWING,
}

type PayoutReportType string

const (
	PAYOUT_REPORT             PayoutReportType = "PAYOUT_REPORT"
	TRANSACTION_DETAIL_REPORT PayoutReportType = "TRANSACTION_DETAIL_REPORT"
)

// ContentKind is the format of a payload returned by the console.
type ContentKind int

const (
	KIND_CSV ContentKind = iota
	KIND_ZIP
	KIND_HTML
)

func (k ContentKind) String() string {
	switch k {
	case KIND_CSV:
		return "csv"
	case KIND_ZIP:
		return "zip"
	case KIND_HTML:
		return "html"
	}
	return "unknown"
}

// RequestSpec is a ready to execute description of one call to the console,
// either a DirectDownload or a FormSubmission.
type RequestSpec interface {
	ResponseKind() ContentKind
}

type DirectDownload struct {
	URL  string
	Kind ContentKind
}

func (d DirectDownload) ResponseKind() ContentKind { return d.Kind }

type FormField struct {
	Name  string
	Value string
}

type FormSubmission struct {
	TargetURL string
	FormName  string
	// Fields are assigned in order.
	Fields []FormField
	// Remove lists fields deleted from the form before submitting, a field
	// that is absent from the submission falls back to the server's default.
	Remove        []string
	SubmitControl string
	Kind          ContentKind
}

func (f FormSubmission) ResponseKind() ContentKind { return f.Kind }

// Value returns the value assigned to a field.
func (f FormSubmission) Value(name string) (string, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field.Value, true
		}
	}
	return "", false
}

// RawResponse is an unparsed payload, Source is the uri it came from.
type RawResponse struct {
	Kind   ContentKind
	Body   []byte
	Source string
}
