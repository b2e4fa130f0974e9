package console

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveMerchantContext(t *testing.T) {
	merchant, err := ResolveMerchantContext(mustURL(
		"https://wallet.google.com/merchant/pages/bcid-X/oid-Y/cid-Z/purchaseorders",
	))
	require.NoError(t, err)
	require.Equal(t, MerchantContext{BillingAccountID: "X", OrderSetID: "Y", CustomerID: "Z"}, merchant)
	require.Equal(t, "bcid-X/oid-Y/cid-Z", merchant.Path())

	merchant, err = ResolveMerchantContext(mustURL(
		"https://wallet.google.com/merchant/pages/u/0/bcid-0123-abc/oid-77/cid-0991/",
	))
	require.NoError(t, err)
	require.Equal(t, "0123-abc", merchant.BillingAccountID)
	require.Equal(t, "77", merchant.OrderSetID)
	require.Equal(t, "0991", merchant.CustomerID)

	for _, link := range []string{
		"https://wallet.google.com/merchant/pages/",
		"https://wallet.google.com/merchant/pages/bcid-X/oid-Y/cid-Z",
		"https://accounts.google.com/ServiceLogin",
	} {
		_, err := ResolveMerchantContext(mustURL(link))
		var resolution *ContextResolutionError
		require.True(t, errors.As(err, &resolution), link)
		require.Equal(t, "merchant context", resolution.What)
	}

	_, err = ResolveMerchantContext(nil)
	require.Error(t, err)
}

func TestResolveDeveloperAccount(t *testing.T) {
	account, err := ResolveDeveloperAccount(mustURL("https://play.google.com/apps/publish/?dev_acc=09924472108471074593"))
	require.NoError(t, err)
	require.Equal(t, "09924472108471074593", account)

	account, err = ResolveDeveloperAccount(mustURL("https://play.google.com/apps/publish/v2/#dev_acc=123&p=app"))
	require.NoError(t, err)
	require.Equal(t, "123", account)

	for _, link := range []string{
		"https://play.google.com/apps/publish/",
		"https://play.google.com/apps/publish/?dev_acc=abc",
	} {
		_, err := ResolveDeveloperAccount(mustURL(link))
		var resolution *ContextResolutionError
		require.True(t, errors.As(err, &resolution), link)
		require.Equal(t, "developer account", resolution.What)
	}
}
