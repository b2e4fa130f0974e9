package console

import (
	"fmt"
	"net/url"
	"regexp"
)

// MerchantContext identifies a merchant in the wallet merchant center, the
// ids only ever appear as path segments of the url the merchant center
// redirects to.
type MerchantContext struct {
	BillingAccountID string
	OrderSetID       string
	CustomerID       string
}

// Path renders the ids as the path segments they were extracted from.
func (m MerchantContext) Path() string {
	return fmt.Sprintf("bcid-%s/oid-%s/cid-%s", m.BillingAccountID, m.OrderSetID, m.CustomerID)
}

var merchantPathRegex = regexp.MustCompile(`bcid-([^/]+)/oid-([^/]+)/cid-([^/]+)/`)

// ResolveMerchantContext extracts the merchant ids from a merchant center uri.
func ResolveMerchantContext(uri *url.URL) (MerchantContext, error) {
	if uri == nil {
		return MerchantContext{}, &ContextResolutionError{URI: "<no page>", What: "merchant context"}
	}
	groups := merchantPathRegex.FindStringSubmatch(uri.Path)
	if len(groups) < 4 {
		return MerchantContext{}, &ContextResolutionError{URI: uri.String(), What: "merchant context"}
	}
	return MerchantContext{
		BillingAccountID: groups[1],
		OrderSetID:       groups[2],
		CustomerID:       groups[3],
	}, nil
}

var developerAccountRegex = regexp.MustCompile(`^[0-9]+$`)

// ResolveDeveloperAccount extracts the developer account id the console
// landing page redirects to (`...?dev_acc=<digits>`).
func ResolveDeveloperAccount(uri *url.URL) (string, error) {
	if uri == nil {
		return "", &ContextResolutionError{URI: "<no page>", What: "developer account"}
	}
	account := uri.Query().Get("dev_acc")
	if account == "" {
		// the v2 console keeps its state in the fragment
		fragment, err := url.ParseQuery(uri.Fragment)
		if err == nil {
			account = fragment.Get("dev_acc")
		}
	}
	if !developerAccountRegex.MatchString(account) {
		return "", &ContextResolutionError{URI: uri.String(), What: "developer account"}
	}
	return account, nil
}
