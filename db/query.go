package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"repairbase/models"
)

// --- Query Structures ---

// DetailCondition represents a single condition like "path operator value"
// evaluated against a repair order's device_details JSON.
type DetailCondition struct {
	Path          string      // Dot notation path (e.g., "accessories.0") or empty for root
	Operator      string      // Base operator without the -insensitive suffix
	ParsedValue   interface{} // The parsed value (string, float64, bool, nil)
	ValueType     gjson.Type  // The type determined during parsing
	IsInsensitive bool        // Flag derived from operator suffix
	Original      string      // Original condition string for error messages
}

// LogicalOperator represents "and" or "or".
type LogicalOperator string

const (
	LogicAnd LogicalOperator = "and"
	LogicOr  LogicalOperator = "or"
)

// ParsedDetailQuery holds the sequence of conditions and logical operators.
type ParsedDetailQuery struct {
	Conditions []DetailCondition
	Logic      []LogicalOperator // Logic[i] applies between Conditions[i] and Conditions[i+1]
}

var validOperators = map[string]bool{
	"equals": true, "notequals": true,
	"greaterthan": true, "lessthan": true,
	"greaterthanorequals": true, "lessthanorequals": true,
	"contains": true, "startswith": true, "endswith": true,
	"equals-insensitive": true, "notequals-insensitive": true,
	"contains-insensitive": true, "startswith-insensitive": true, "endswith-insensitive": true,
}

// ParseDetailQuery takes the raw detail_query array from the request and
// parses it into a structured query. Conditions and logical operators must
// alternate, starting and ending with a condition.
func ParseDetailQuery(queryParts []string) (*ParsedDetailQuery, error) {
	if len(queryParts) == 0 {
		return nil, nil // No query provided is valid
	}

	parsed := &ParsedDetailQuery{}
	isExpectingCondition := true

	for i, part := range queryParts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("query part at index %d is empty", i)
		}

		if isExpectingCondition {
			condition, err := parseSingleCondition(part)
			if err != nil {
				return nil, fmt.Errorf("invalid condition at index %d ('%s'): %w", i, part, err)
			}
			parsed.Conditions = append(parsed.Conditions, condition)
		} else {
			logic := LogicalOperator(strings.ToLower(part))
			if logic != LogicAnd && logic != LogicOr {
				return nil, fmt.Errorf("invalid logical operator at index %d: '%s', expected 'and' or 'or'", i, part)
			}
			parsed.Logic = append(parsed.Logic, logic)
		}
		isExpectingCondition = !isExpectingCondition
	}

	if isExpectingCondition {
		return nil, errors.New("query must end with a condition, not a logical operator")
	}

	return parsed, nil
}

// parseSingleCondition parses "path operator value" into a DetailCondition,
// determining the type of the value.
func parseSingleCondition(conditionStr string) (DetailCondition, error) {
	parts := strings.Fields(conditionStr)
	if len(parts) < 3 {
		return DetailCondition{}, fmt.Errorf("condition must be 'path operator value'")
	}

	path := parts[0]
	operator := strings.ToLower(parts[1])
	if !validOperators[operator] {
		return DetailCondition{}, fmt.Errorf("invalid operator '%s'", operator)
	}

	// Reconstruct the raw value string, preserving spacing inside quotes
	valueStartIndex := strings.Index(conditionStr, parts[1]) + len(parts[1])
	rawValueStr := strings.TrimSpace(conditionStr[valueStartIndex:])

	isInsensitive := false
	if strings.HasSuffix(operator, "-insensitive") {
		isInsensitive = true
		operator = strings.TrimSuffix(operator, "-insensitive")
	}

	// --- Parse the value to determine its type ---
	var parsedValue interface{}
	var valueType gjson.Type

	switch {
	case len(rawValueStr) >= 2 && rawValueStr[0] == '"' && rawValueStr[len(rawValueStr)-1] == '"':
		parsedValue = rawValueStr[1 : len(rawValueStr)-1]
		valueType = gjson.String
	case rawValueStr == "null":
		parsedValue = nil
		valueType = gjson.Null
	default:
		if f, err := strconv.ParseFloat(rawValueStr, 64); err == nil {
			parsedValue = f
			valueType = gjson.Number
		} else if b, err := strconv.ParseBool(rawValueStr); err == nil {
			parsedValue = b
			valueType = gjson.False
			if b {
				valueType = gjson.True
			}
		} else {
			// Unquoted plain word falls back to string
			parsedValue = rawValueStr
			valueType = gjson.String
		}
	}

	return DetailCondition{
		Path:          path,
		Operator:      operator,
		ParsedValue:   parsedValue,
		ValueType:     valueType,
		IsInsensitive: isInsensitive,
		Original:      conditionStr,
	}, nil
}

// --- Query Evaluation ---

// EvaluateDetailQuery checks if a single repair order matches the parsed query.
// Orders without device details never match a non-empty query.
func EvaluateDetailQuery(order models.RepairOrder, query *ParsedDetailQuery) (bool, error) {
	if query == nil || len(query.Conditions) == 0 {
		return true, nil // No query means match
	}
	if order.DeviceDetails == nil {
		return false, nil
	}

	jsonBytes, err := json.Marshal(order.DeviceDetails)
	if err != nil {
		return false, fmt.Errorf("device details of order %s are not marshalable: %w", order.ID, err)
	}
	detailsJSON := string(jsonBytes)

	result, err := evaluateSingleCondition(detailsJSON, query.Conditions[0])
	if err != nil {
		return false, fmt.Errorf("error evaluating condition '%s': %w", query.Conditions[0].Original, err)
	}

	for i, logic := range query.Logic {
		nextResult, err := evaluateSingleCondition(detailsJSON, query.Conditions[i+1])
		if err != nil {
			return false, fmt.Errorf("error evaluating condition '%s': %w", query.Conditions[i+1].Original, err)
		}

		switch logic {
		case LogicAnd:
			result = result && nextResult
		case LogicOr:
			result = result || nextResult
		}
	}

	return result, nil
}

// evaluateSingleCondition checks if the details JSON satisfies one condition.
func evaluateSingleCondition(detailsJSON string, cond DetailCondition) (bool, error) {
	var target gjson.Result
	if cond.Path == "" {
		target = gjson.Parse(detailsJSON)
	} else {
		target = gjson.Get(detailsJSON, cond.Path)
		if !target.Exists() {
			// A missing path simply does not match; details are free-form
			// and most orders won't carry every field.
			return false, nil
		}
	}
	return compareJSONValue(target, cond)
}

// compareJSONValue performs the typed comparison for a gjson.Result.
func compareJSONValue(target gjson.Result, cond DetailCondition) (bool, error) {
	op := cond.Operator

	// Array 'contains' checks element membership
	if target.IsArray() && op == "contains" {
		found := false
		target.ForEach(func(_, value gjson.Result) bool {
			matches := false
			switch value.Type {
			case gjson.String:
				if cond.ValueType == gjson.String {
					condStr := cond.ParsedValue.(string)
					if cond.IsInsensitive {
						matches = strings.EqualFold(value.String(), condStr)
					} else {
						matches = value.String() == condStr
					}
				}
			case gjson.Number:
				if cond.ValueType == gjson.Number {
					matches = value.Float() == cond.ParsedValue.(float64)
				}
			case gjson.True, gjson.False:
				if cond.ValueType == gjson.True || cond.ValueType == gjson.False {
					matches = value.Bool() == cond.ParsedValue.(bool)
				}
			case gjson.Null:
				matches = cond.ValueType == gjson.Null
			}
			if matches {
				found = true
				return false // Stop iterating
			}
			return true
		})
		return found, nil
	}

	// Null comparisons
	if target.Type == gjson.Null || cond.ValueType == gjson.Null {
		bothNull := target.Type == gjson.Null && cond.ValueType == gjson.Null
		switch op {
		case "equals":
			return bothNull, nil
		case "notequals":
			return !bothNull, nil
		default:
			return false, fmt.Errorf("operator '%s' invalid for null comparison", op)
		}
	}

	switch target.Type {
	case gjson.String:
		switch op {
		case "equals", "notequals", "contains", "startswith", "endswith":
			if cond.ValueType != gjson.String {
				if op == "notequals" {
					return true, nil
				}
				return false, fmt.Errorf("type mismatch: cannot compare string with %s using operator '%s'", cond.ValueType.String(), op)
			}
			targetStr := target.String()
			condStr := cond.ParsedValue.(string)
			if cond.IsInsensitive {
				targetStr = strings.ToLower(targetStr)
				condStr = strings.ToLower(condStr)
			}
			switch op {
			case "equals":
				return targetStr == condStr, nil
			case "notequals":
				return targetStr != condStr, nil
			case "contains":
				return strings.Contains(targetStr, condStr), nil
			case "startswith":
				return strings.HasPrefix(targetStr, condStr), nil
			default:
				return strings.HasSuffix(targetStr, condStr), nil
			}
		default:
			return false, fmt.Errorf("type mismatch: cannot apply numeric operator '%s' to string value", op)
		}

	case gjson.Number:
		switch op {
		case "equals", "notequals", "greaterthan", "lessthan", "greaterthanorequals", "lessthanorequals":
			if cond.ValueType != gjson.Number {
				if op == "notequals" {
					return true, nil
				}
				return false, fmt.Errorf("type mismatch: value '%v' is not a valid number for comparison with operator '%s'", cond.ParsedValue, op)
			}
			targetNum := target.Float()
			condNum := cond.ParsedValue.(float64)
			switch op {
			case "equals":
				return targetNum == condNum, nil
			case "notequals":
				return targetNum != condNum, nil
			case "greaterthan":
				return targetNum > condNum, nil
			case "lessthan":
				return targetNum < condNum, nil
			case "greaterthanorequals":
				return targetNum >= condNum, nil
			default:
				return targetNum <= condNum, nil
			}
		default:
			return false, fmt.Errorf("type mismatch: cannot apply string operator '%s' to numeric value", op)
		}

	case gjson.True, gjson.False:
		switch op {
		case "equals", "notequals":
			if cond.ValueType != gjson.True && cond.ValueType != gjson.False {
				if op == "notequals" {
					return true, nil
				}
				return false, fmt.Errorf("type mismatch: value '%v' is not a valid boolean for comparison with operator '%s'", cond.ParsedValue, op)
			}
			targetBool := target.Bool()
			condBool := cond.ParsedValue.(bool)
			if op == "equals" {
				return targetBool == condBool, nil
			}
			return targetBool != condBool, nil
		default:
			return false, fmt.Errorf("operator '%s' is invalid for boolean comparison", op)
		}

	default:
		// Arrays (other than contains) and objects cannot be compared directly
		return false, fmt.Errorf("operator '%s' cannot directly compare arrays/objects", op)
	}
}

// --- Main Query Function ---

// QueryOrdersParams holds all parameters for querying repair orders.
type QueryOrdersParams struct {
	ShopID      string   // Orders are always scoped to the caller's shop
	Status      string   // Optional status filter
	CustomerID  string   // Optional customer filter
	DetailQuery []string // Raw detail query parts
	SortBy      string   // "creation_date" (default), "last_modified_date"
	Order       string   // "asc", "desc" (default)
	Page        int      // 1-based page number
	Limit       int      // Max items per page (max 100)
}

// QueryRepairOrders performs filtering, sorting, and pagination on the
// repair orders of one shop. Returns the page, the total match count, and
// an error for malformed query parameters.
func (db *Database) QueryRepairOrders(params QueryOrdersParams) ([]models.RepairOrder, int, error) {
	parsedQuery, err := ParseDetailQuery(params.DetailQuery)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid detail_query: %w", err)
	}

	if params.Status != "" && !validStatus(params.Status) {
		return nil, 0, fmt.Errorf("unknown status '%s'", params.Status)
	}

	allOrders := db.GetRepairOrdersByShop(params.ShopID)

	filtered := make([]models.RepairOrder, 0)
	for _, order := range allOrders {
		if params.Status != "" && order.Status != params.Status {
			continue
		}
		if params.CustomerID != "" && order.CustomerID != params.CustomerID {
			continue
		}
		if parsedQuery != nil {
			match, err := EvaluateDetailQuery(order, parsedQuery)
			if err != nil {
				// A single order with odd details should not fail the whole
				// listing; skip it and keep going.
				log.Printf("WARN: Error evaluating detail query for order ID %s, skipping: %v", order.ID, err)
				continue
			}
			if !match {
				continue
			}
		}
		filtered = append(filtered, order)
	}

	totalMatching := len(filtered)

	if err := sortRepairOrders(filtered, params.SortBy, params.Order); err != nil {
		return nil, 0, err
	}

	paged, err := paginateRepairOrders(filtered, params.Page, params.Limit)
	if err != nil {
		return nil, 0, err
	}

	return paged, totalMatching, nil
}

// --- Sorting Helper ---

func sortRepairOrders(orders []models.RepairOrder, sortBy, order string) error {
	switch strings.ToLower(sortBy) {
	case "creation_date", "last_modified_date", "":
	default:
		return fmt.Errorf("invalid sort_by value: '%s', expected 'creation_date' or 'last_modified_date'", sortBy)
	}

	lessFunc := func(i, j int) bool {
		if strings.ToLower(sortBy) == "last_modified_date" {
			return orders[i].LastModifiedDate.Before(orders[j].LastModifiedDate)
		}
		return orders[i].CreationDate.Before(orders[j].CreationDate)
	}

	switch strings.ToLower(order) {
	case "desc", "": // Newest first by default
		originalLess := lessFunc
		lessFunc = func(i, j int) bool { return originalLess(j, i) }
	case "asc":
	default:
		return fmt.Errorf("invalid order value: '%s', expected 'asc' or 'desc'", order)
	}

	sort.SliceStable(orders, lessFunc)
	return nil
}

// --- Pagination Helper ---

const defaultLimit = 20
const maxLimit = 100

func paginateRepairOrders(orders []models.RepairOrder, page, limit int) ([]models.RepairOrder, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	startIndex := (page - 1) * limit
	endIndex := startIndex + limit

	if startIndex >= len(orders) {
		return []models.RepairOrder{}, nil // Page out of bounds, empty list
	}
	if endIndex > len(orders) {
		endIndex = len(orders)
	}

	return orders[startIndex:endIndex], nil
}
