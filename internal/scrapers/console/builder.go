package console

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/antzucaro/matchr"
)

const (
	form_order_list = "dateInput"
	form_payouts    = "btRangeReport"

	field_start_date      = "start-date"
	field_end_date        = "end-date"
	field_financial_state = "financial-state"
	field_column_style    = "column-style"
	field_start_day       = "startDay"
	field_end_day         = "endDay"
	field_report_type     = "reportType"

	column_style_expanded = "EXPANDED"
)

// Builder turns report requests into request specs, it never does any I/O.
type Builder struct {
	Endpoints EndpointTable
}

func NewBuilder(endpoints EndpointTable) Builder {
	return Builder{Endpoints: endpoints}
}

func (b Builder) Build(req ReportRequest) (RequestSpec, error) {
	switch req := req.(type) {
	case SalesReport:
		return b.salesReport(req)
	case EstimatedSalesReport:
		return b.estimatedSalesReport(req)
	case OrderList:
		return b.orderList(req)
	case OrderListPage:
		if b.Endpoints.OrdersPage == "" {
			return nil, b.unsupported(req)
		}
		return DirectDownload{URL: b.Endpoints.OrdersPage, Kind: KIND_HTML}, nil
	case Payouts:
		return b.payouts(req)
	case OrderDetail:
		return b.orderDetail(req)
	case AppStats:
		return b.appStats(req)
	case WalletOrders:
		if b.Endpoints.MerchantPages == "" {
			return nil, b.unsupported(req)
		}
		return DirectDownload{URL: b.Endpoints.MerchantPages, Kind: KIND_HTML}, nil
	case nil:
		return nil, invalid("request", "no request given")
	}
	return nil, invalid("request", "unknown request type %T", req)
}

func (b Builder) unsupported(req ReportRequest) error {
	return invalid(
		"request",
		"%s is not available on the %s console",
		req.reportKind(), b.Endpoints.Version,
	)
}

func validateYearMonth(year, month int) error {
	if month < 1 || month > 12 {
		return invalid("month", "%d is not in 1-12", month)
	}
	if year < 1 || year > 9999 {
		return invalid("year", "%d is not in 1-9999", year)
	}
	return nil
}

func validateRange(start, end time.Time) error {
	if start.IsZero() {
		return invalid("start", "required")
	}
	if end.IsZero() {
		return invalid("end", "required")
	}
	if end.Before(start) {
		return invalid("end", "%s is before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	if start.Year() < 1 || end.Year() > 9999 {
		return invalid("start", "date range is not representable")
	}
	return nil
}

// YYYY_MM, what the sales report download expects
func formatReportDate(year, month int) string {
	return fmt.Sprintf("%04d_%02d", year, month)
}

// YYYY-MM-DD
func formatDay(t time.Time) string {
	return t.Format("2006-01-02")
}

// YYYYMMDD, what the statistics download expects
func formatCompactDay(t time.Time) string {
	return t.Format("20060102")
}

func formatEpochMillis(t time.Time) string {
	return fmt.Sprint(t.UnixMilli())
}

func (b Builder) salesReport(req SalesReport) (RequestSpec, error) {
	if b.Endpoints.SalesReport == "" {
		return nil, b.unsupported(req)
	}
	err := validateYearMonth(req.Year, req.Month)
	if err != nil {
		return nil, err
	}
	if req.AccountID == "" {
		return nil, invalid("account_id", "required")
	}
	return DirectDownload{
		URL: fmt.Sprintf(
			b.Endpoints.SalesReport,
			formatReportDate(req.Year, req.Month),
			"payout_report",
			url.QueryEscape(req.AccountID),
		),
		Kind: KIND_CSV,
	}, nil
}

func (b Builder) estimatedSalesReport(req EstimatedSalesReport) (RequestSpec, error) {
	if b.Endpoints.EstimatedSales == "" {
		return nil, b.unsupported(req)
	}
	err := validateYearMonth(req.Year, req.Month)
	if err != nil {
		return nil, err
	}
	if req.AccountID == "" {
		return nil, invalid("account_id", "required")
	}

	if b.Endpoints.EstimatedSalesArchive {
		return DirectDownload{
			URL: fmt.Sprintf(
				b.Endpoints.EstimatedSales,
				url.PathEscape(req.AccountID),
				fmt.Sprintf("%04d%02d", req.Year, req.Month),
			),
			Kind: KIND_ZIP,
		}, nil
	}
	return DirectDownload{
		URL: fmt.Sprintf(
			b.Endpoints.EstimatedSales,
			formatReportDate(req.Year, req.Month),
			"sales_report",
			url.QueryEscape(req.AccountID),
		),
		Kind: KIND_CSV,
	}, nil
}

// ParseFinancialState validates a financial state given by a user, unknown
// states produce an error suggesting the closest known state.
func ParseFinancialState(state string) (FinancialState, error) {
	if state == "" {
		return FINANCIAL_STATE_CHARGED, nil
	}
	for _, known := range financialStates {
		if FinancialState(state) == known {
			return known, nil
		}
	}

	var closest FinancialState
	var closestScore float64
	for _, known := range financialStates {
		score := matchr.JaroWinkler(strings.ToUpper(state), string(known), false)
		if score > closestScore {
			closest = known
			closestScore = score
		}
	}
	return "", invalid(
		"financial_state",
		"unknown state %q (did you mean %q?)",
		state, closest,
	)
}

func (b Builder) orderList(req OrderList) (RequestSpec, error) {
	state, err := ParseFinancialState(string(req.State))
	if err != nil {
		return nil, err
	}
	err = validateRange(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	if b.Endpoints.MerchantPages != "" {
		if req.Merchant == nil {
			return nil, invalid("merchant", "the order list download needs a resolved merchant context")
		}
		return DirectDownload{
			URL: fmt.Sprintf(
				"%s%s/purchaseorderdownload?startTime=%s&endTime=%s",
				b.Endpoints.MerchantPages,
				req.Merchant.Path(),
				formatEpochMillis(req.Start),
				formatEpochMillis(req.End),
			),
			Kind: KIND_CSV,
		}, nil
	}

	if b.Endpoints.OrdersPage == "" {
		return nil, b.unsupported(req)
	}

	spec := FormSubmission{
		TargetURL: b.Endpoints.OrdersPage,
		FormName:  form_order_list,
		Fields: []FormField{
			{Name: field_start_date, Value: formatDay(req.Start)},
			{Name: field_end_date, Value: formatDay(req.End)},
		},
		Kind: KIND_CSV,
	}
	// omitting the field is the only way the form accepts "no filter"
	if state == FINANCIAL_STATE_ALL {
		spec.Remove = append(spec.Remove, field_financial_state)
	} else {
		spec.Fields = append(spec.Fields, FormField{Name: field_financial_state, Value: string(state)})
	}
	if req.Expanded {
		spec.Fields = append(spec.Fields, FormField{Name: field_column_style, Value: column_style_expanded})
	}
	return spec, nil
}

func (b Builder) payouts(req Payouts) (RequestSpec, error) {
	if b.Endpoints.PayoutsPage == "" {
		return nil, b.unsupported(req)
	}
	reportType := req.Type
	switch reportType {
	case "":
		reportType = PAYOUT_REPORT
	case PAYOUT_REPORT, TRANSACTION_DETAIL_REPORT:
	default:
		return nil, invalid("report_type", "unknown payout report type %q", req.Type)
	}
	err := validateRange(req.StartDay, req.EndDay)
	if err != nil {
		return nil, err
	}

	return FormSubmission{
		TargetURL: b.Endpoints.PayoutsPage,
		FormName:  form_payouts,
		Fields: []FormField{
			{Name: field_start_day, Value: "d:" + formatDay(req.StartDay)},
			{Name: field_end_day, Value: "d:" + formatDay(req.EndDay)},
			{Name: field_report_type, Value: string(reportType)},
		},
		Kind: KIND_CSV,
	}, nil
}

func (b Builder) orderDetail(req OrderDetail) (RequestSpec, error) {
	if b.Endpoints.OrderDetail == "" {
		return nil, b.unsupported(req)
	}
	if strings.TrimSpace(req.OrderID) == "" {
		return nil, invalid("order_id", "required")
	}
	return DirectDownload{
		URL:  fmt.Sprintf(b.Endpoints.OrderDetail, url.QueryEscape(req.OrderID)),
		Kind: KIND_CSV,
	}, nil
}

func (b Builder) appStats(req AppStats) (RequestSpec, error) {
	if b.Endpoints.AppStats == "" {
		return nil, b.unsupported(req)
	}
	if strings.TrimSpace(req.Package) == "" {
		return nil, invalid("package", "required")
	}
	err := validateRange(req.StartDay, req.EndDay)
	if err != nil {
		return nil, err
	}

	link := fmt.Sprintf(
		"%s?package=%s&sd=%s&ed=%s&dim=%s&met=%s",
		b.Endpoints.AppStats,
		url.QueryEscape(req.Package),
		formatCompactDay(req.StartDay),
		formatCompactDay(req.EndDay),
		b.Endpoints.AppStatsDimensions,
		b.Endpoints.AppStatsMetrics,
	)
	if req.AccountID != "" {
		link += "&dev_acc=" + url.QueryEscape(req.AccountID)
	}
	return DirectDownload{URL: link, Kind: KIND_ZIP}, nil
}
