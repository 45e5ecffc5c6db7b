package portal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "https://business.comcast.com/account",
		LoginURL("https://business.comcast.com"))
}

func TestDashboardURL(t *testing.T) {
	assert.Equal(t, "https://business.comcast.com/account/dashboard/accounts/guid-1",
		DashboardURL("https://business.comcast.com", "guid-1"))
}

func TestNavigationResponseParsing(t *testing.T) {
	payload := `{
		"custGuid": "cust-abc",
		"accounts": [
			{"accountNumber": "8765001234", "authGuid": "auth-1"},
			{"accountNumber": "8765005678", "authGuid": "auth-2"}
		]
	}`

	var nav NavigationResponse
	require.NoError(t, json.Unmarshal([]byte(payload), &nav))

	assert.Equal(t, "cust-abc", nav.CustGUID)
	require.Len(t, nav.Accounts, 2)
	assert.Equal(t, "8765001234", nav.Accounts[0].AccountNumber)
	assert.Equal(t, "auth-2", nav.Accounts[1].AuthGUID)
}

func TestBillDetailsParsing(t *testing.T) {
	payload := `{"summary": {"billId": "B-9", "billDate": "2024-05-01", "dueDate": "2024-05-20", "amountDue": 312.45}}`

	var details BillDetails
	require.NoError(t, json.Unmarshal([]byte(payload), &details))

	assert.Equal(t, "B-9", details.Summary.BillID)
	assert.Equal(t, "2024-05-01", details.Summary.BillDate)
	assert.Equal(t, 312.45, details.Summary.AmountDue)
}
