package db

import (
	"testing"
	"time"

	"repairbase/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- ParseDetailQuery ---

func TestParseDetailQuery_Empty(t *testing.T) {
	parsed, err := ParseDetailQuery(nil)
	assert.NoError(t, err)
	assert.Nil(t, parsed)
}

func TestParseDetailQuery_SingleCondition(t *testing.T) {
	parsed, err := ParseDetailQuery([]string{`color equals "blau"`})
	require.NoError(t, err)
	require.Len(t, parsed.Conditions, 1)

	cond := parsed.Conditions[0]
	assert.Equal(t, "color", cond.Path)
	assert.Equal(t, "equals", cond.Operator)
	assert.Equal(t, "blau", cond.ParsedValue)
	assert.False(t, cond.IsInsensitive)
}

func TestParseDetailQuery_InsensitiveSuffixStripped(t *testing.T) {
	parsed, err := ParseDetailQuery([]string{`color equals-insensitive "Blau"`})
	require.NoError(t, err)

	cond := parsed.Conditions[0]
	assert.Equal(t, "equals", cond.Operator)
	assert.True(t, cond.IsInsensitive)
}

func TestParseDetailQuery_TypedValues(t *testing.T) {
	parsed, err := ParseDetailQuery([]string{`storage_gb greaterthan 64`})
	require.NoError(t, err)
	assert.Equal(t, float64(64), parsed.Conditions[0].ParsedValue)

	parsed, err = ParseDetailQuery([]string{`water_damage equals true`})
	require.NoError(t, err)
	assert.Equal(t, true, parsed.Conditions[0].ParsedValue)

	parsed, err = ParseDetailQuery([]string{`sim_lock equals null`})
	require.NoError(t, err)
	assert.Nil(t, parsed.Conditions[0].ParsedValue)
}

func TestParseDetailQuery_QuotedValueKeepsSpaces(t *testing.T) {
	parsed, err := ParseDetailQuery([]string{`note contains "leichte Kratzer"`})
	require.NoError(t, err)
	assert.Equal(t, "leichte Kratzer", parsed.Conditions[0].ParsedValue)
}

func TestParseDetailQuery_Alternation(t *testing.T) {
	parsed, err := ParseDetailQuery([]string{
		`color equals "blau"`, "and", `storage_gb greaterthan 64`,
	})
	require.NoError(t, err)
	assert.Len(t, parsed.Conditions, 2)
	require.Len(t, parsed.Logic, 1)
	assert.Equal(t, LogicAnd, parsed.Logic[0])
}

func TestParseDetailQuery_Errors(t *testing.T) {
	_, err := ParseDetailQuery([]string{`color equals "blau"`, "and"})
	assert.Error(t, err, "query must not end with a logical operator")

	_, err = ParseDetailQuery([]string{`color equals "blau"`, "maybe", `x equals 1`})
	assert.Error(t, err, "only and/or are valid logical operators")

	_, err = ParseDetailQuery([]string{`color equals`})
	assert.Error(t, err, "conditions need path, operator and value")

	_, err = ParseDetailQuery([]string{`color resembles "blau"`})
	assert.Error(t, err, "unknown operators are rejected")
}

// --- EvaluateDetailQuery ---

func detailOrder(details interface{}) models.RepairOrder {
	return models.RepairOrder{ID: "order1", DeviceDetails: details}
}

func mustParse(t *testing.T, parts ...string) *ParsedDetailQuery {
	parsed, err := ParseDetailQuery(parts)
	require.NoError(t, err)
	return parsed
}

func TestEvaluateDetailQuery_NilDetailsNeverMatch(t *testing.T) {
	query := mustParse(t, `color equals "blau"`)

	match, err := EvaluateDetailQuery(detailOrder(nil), query)
	require.NoError(t, err)
	assert.False(t, match)

	// But a nil query matches everything.
	match, err = EvaluateDetailQuery(detailOrder(nil), nil)
	require.NoError(t, err)
	assert.True(t, match)
}

func TestEvaluateDetailQuery_MissingPathIsFalse(t *testing.T) {
	order := detailOrder(map[string]interface{}{"color": "blau"})
	query := mustParse(t, `imei equals "12345"`)

	match, err := EvaluateDetailQuery(order, query)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestEvaluateDetailQuery_StringOperators(t *testing.T) {
	order := detailOrder(map[string]interface{}{"color": "Mitternachtsblau"})

	cases := []struct {
		condition string
		expected  bool
	}{
		{`color equals "Mitternachtsblau"`, true},
		{`color equals "mitternachtsblau"`, false},
		{`color equals-insensitive "MITTERNACHTSBLAU"`, true},
		{`color contains "nacht"`, true},
		{`color startswith "Mitter"`, true},
		{`color endswith "blau"`, true},
		{`color notequals "rot"`, true},
	}
	for _, tc := range cases {
		match, err := EvaluateDetailQuery(order, mustParse(t, tc.condition))
		require.NoError(t, err, tc.condition)
		assert.Equal(t, tc.expected, match, tc.condition)
	}
}

func TestEvaluateDetailQuery_NumericOperators(t *testing.T) {
	order := detailOrder(map[string]interface{}{"storage_gb": 128})

	match, err := EvaluateDetailQuery(order, mustParse(t, `storage_gb greaterthan 64`))
	require.NoError(t, err)
	assert.True(t, match)

	match, err = EvaluateDetailQuery(order, mustParse(t, `storage_gb lessthanorequals 128`))
	require.NoError(t, err)
	assert.True(t, match)

	// Comparing a number against a string value is a type error.
	_, err = EvaluateDetailQuery(order, mustParse(t, `storage_gb greaterthan "viel"`))
	assert.Error(t, err)
}

func TestEvaluateDetailQuery_ArrayContains(t *testing.T) {
	order := detailOrder(map[string]interface{}{
		"accessories": []interface{}{"Ladekabel", "Hülle"},
	})

	match, err := EvaluateDetailQuery(order, mustParse(t, `accessories contains "Hülle"`))
	require.NoError(t, err)
	assert.True(t, match)

	match, err = EvaluateDetailQuery(order, mustParse(t, `accessories contains "Kopfhörer"`))
	require.NoError(t, err)
	assert.False(t, match)

	match, err = EvaluateDetailQuery(order, mustParse(t, `accessories contains-insensitive "hülle"`))
	require.NoError(t, err)
	assert.True(t, match)
}

func TestEvaluateDetailQuery_NestedPathAndLogic(t *testing.T) {
	order := detailOrder(map[string]interface{}{
		"color":   "blau",
		"battery": map[string]interface{}{"health_percent": 71},
	})

	query := mustParse(t,
		`battery.health_percent lessthan 80`, "and", `color equals "blau"`)
	match, err := EvaluateDetailQuery(order, query)
	require.NoError(t, err)
	assert.True(t, match)

	query = mustParse(t,
		`color equals "rot"`, "or", `battery.health_percent lessthan 80`)
	match, err = EvaluateDetailQuery(order, query)
	require.NoError(t, err)
	assert.True(t, match)
}

// --- QueryRepairOrders ---

func seedQueryOrders(t *testing.T, db *Database) (models.Shop, models.Customer, models.Customer) {
	shop, customerA := seedShopAndCustomer(t, db)
	customerB, err := db.CreateCustomer(models.Customer{
		ShopID: shop.ID, FirstName: "Max", LastName: "Meyer",
	})
	require.NoError(t, err)

	mk := func(customerID, model string, details interface{}) models.RepairOrder {
		order, err := db.CreateRepairOrder(models.RepairOrder{
			ShopID:        shop.ID,
			CustomerID:    customerID,
			DeviceType:    "Smartphone",
			Brand:         "Apple",
			Model:         model,
			DeviceDetails: details,
		}, "staff1")
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond) // Distinct creation timestamps for sorting
		return order
	}

	mk(customerA.ID, "iPhone 12", map[string]interface{}{"color": "blau"})
	second := mk(customerA.ID, "iPhone 13", map[string]interface{}{"color": "rot"})
	mk(customerB.ID, "iPhone 14", nil)

	_, err = db.TransitionRepairOrder(second.ID, models.StatusInProgress, "staff1", "")
	require.NoError(t, err)

	return shop, customerA, customerB
}

func TestQueryRepairOrders_StatusFilter(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	shop, _, _ := seedQueryOrders(t, db)

	orders, total, err := db.QueryRepairOrders(QueryOrdersParams{
		ShopID: shop.ID, Status: models.StatusInProgress,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, "iPhone 13", orders[0].Model)

	_, _, err = db.QueryRepairOrders(QueryOrdersParams{ShopID: shop.ID, Status: "kaputt"})
	assert.ErrorContains(t, err, "unknown status")
}

func TestQueryRepairOrders_CustomerFilter(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	shop, _, customerB := seedQueryOrders(t, db)

	orders, total, err := db.QueryRepairOrders(QueryOrdersParams{
		ShopID: shop.ID, CustomerID: customerB.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "iPhone 14", orders[0].Model)
}

func TestQueryRepairOrders_DetailQuerySkipsDetailless(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	shop, _, _ := seedQueryOrders(t, db)

	orders, total, err := db.QueryRepairOrders(QueryOrdersParams{
		ShopID:      shop.ID,
		DetailQuery: []string{`color equals "blau"`},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "iPhone 12", orders[0].Model)
}

func TestQueryRepairOrders_InvalidDetailQuery(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	shop, _, _ := seedQueryOrders(t, db)

	_, _, err := db.QueryRepairOrders(QueryOrdersParams{
		ShopID:      shop.ID,
		DetailQuery: []string{`color equals "blau"`, "and"},
	})
	assert.ErrorContains(t, err, "invalid detail_query")
}

func TestQueryRepairOrders_SortOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	shop, _, _ := seedQueryOrders(t, db)

	// Default is newest first.
	orders, _, err := db.QueryRepairOrders(QueryOrdersParams{ShopID: shop.ID})
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "iPhone 14", orders[0].Model)

	orders, _, err = db.QueryRepairOrders(QueryOrdersParams{ShopID: shop.ID, Order: "asc"})
	require.NoError(t, err)
	assert.Equal(t, "iPhone 12", orders[0].Model)

	_, _, err = db.QueryRepairOrders(QueryOrdersParams{ShopID: shop.ID, Order: "sideways"})
	assert.Error(t, err)

	_, _, err = db.QueryRepairOrders(QueryOrdersParams{ShopID: shop.ID, SortBy: "price"})
	assert.Error(t, err)
}

func TestQueryRepairOrders_Pagination(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	shop, _, _ := seedQueryOrders(t, db)

	orders, total, err := db.QueryRepairOrders(QueryOrdersParams{
		ShopID: shop.ID, Order: "asc", Page: 1, Limit: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total, "total counts all matches, not the page")
	require.Len(t, orders, 2)
	assert.Equal(t, "iPhone 12", orders[0].Model)

	orders, _, err = db.QueryRepairOrders(QueryOrdersParams{
		ShopID: shop.ID, Order: "asc", Page: 2, Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "iPhone 14", orders[0].Model)

	orders, _, err = db.QueryRepairOrders(QueryOrdersParams{
		ShopID: shop.ID, Page: 99, Limit: 2,
	})
	require.NoError(t, err)
	assert.Empty(t, orders, "out-of-range pages return an empty list")
}
