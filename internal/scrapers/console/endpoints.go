package console

import "fmt"

// EndpointTable holds every url the builder needs for one generation of the
// console. An empty entry means that generation has no such report.
type EndpointTable struct {
	Version string

	// ConsoleHome redirects to a url carrying the developer account id.
	ConsoleHome string

	// SalesReport takes (report_date, report_type, dev_acc).
	SalesReport string
	// EstimatedSales takes (report_date, report_type, dev_acc) for the csv
	// download or (dev_acc, yyyymm) for the archive on cloud storage.
	EstimatedSales        string
	EstimatedSalesArchive bool

	// OrdersPage holds the order list form and one form per order.
	OrdersPage string
	// MerchantPages redirects to a url carrying the merchant ids, order
	// lists are downloaded below it when set.
	MerchantPages string

	PayoutsPage string
	// OrderDetail takes the order id.
	OrderDetail string

	AppStats           string
	AppStatsDimensions string
	AppStatsMetrics    string
}

// LegacyEndpoints is the checkout era console.
var LegacyEndpoints = EndpointTable{
	Version: "legacy",

	ConsoleHome: "https://play.google.com/apps/publish/",

	SalesReport:    "https://play.google.com/apps/publish/salesreport/download?report_date=%s&report_type=%s&dev_acc=%s",
	EstimatedSales: "https://play.google.com/apps/publish/salesreport/download?report_date=%s&report_type=%s&dev_acc=%s",

	OrdersPage:  "https://checkout.google.com/sell/orders",
	PayoutsPage: "https://checkout.google.com/sell/payouts",
	OrderDetail: "https://checkout.google.com/sell/multiOrder?order=%s&ordersTable=1",

	AppStats:           "https://play.google.com/apps/publish/v2/statistics/download",
	AppStatsDimensions: "overall,country,language,os_version,device,app_version,carrier",
	AppStatsMetrics:    "active_device_installs,daily_device_installs,daily_device_uninstalls,daily_device_upgrades,active_user_installs,total_user_installs,daily_user_installs,daily_user_uninstalls,daily_avg_rating,total_avg_rating",
}

// V2Endpoints is the v2 console with orders served by the wallet merchant center.
var V2Endpoints = EndpointTable{
	Version: "v2",

	ConsoleHome: "https://play.google.com/apps/publish/v2/",

	SalesReport:           "https://play.google.com/apps/publish/v2/salesreport/download?report_date=%s&report_type=%s&dev_acc=%s",
	EstimatedSales:        "https://storage.cloud.google.com/pubsite_prod_rev_%s/sales/salesreport_%s.zip",
	EstimatedSalesArchive: true,

	MerchantPages: "https://wallet.google.com/merchant/pages/",

	AppStats:           "https://play.google.com/apps/publish/statistics/download",
	AppStatsDimensions: "overall,os_version,device,country,language,app_version,carrier,crash_details,anr_details",
	AppStatsMetrics:    "current_device_installs,daily_device_installs,daily_device_uninstalls,daily_device_upgrades,current_user_installs,total_user_installs,daily_user_installs,daily_user_uninstalls,daily_avg_rating,total_avg_rating,daily_crashes,daily_anrs",
}

// EndpointsFor returns the table of a console generation by name, an empty
// name selects v2.
func EndpointsFor(version string) (EndpointTable, error) {
	switch version {
	case "", V2Endpoints.Version:
		return V2Endpoints, nil
	case LegacyEndpoints.Version:
		return LegacyEndpoints, nil
	}
	return EndpointTable{}, fmt.Errorf("unknown console version %q", version)
}
