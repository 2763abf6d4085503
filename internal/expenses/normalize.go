package expenses

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/bijaagro/farm-api/internal/models"
)

// RawExpense хранит запись как она пришла: JSON из API или строка CSV по заголовкам.
type RawExpense map[string]any

// fieldAliases задает допустимые ключи для каждого поля в порядке приоритета.
// camelCase всегда первым, затем подписи колонок из таблиц.
var fieldAliases = map[string][]string{
	"date":        {"date", "Date"},
	"type":        {"type", "Type"},
	"description": {"description", "Description"},
	"amount":      {"amount", "Amount"},
	"paidBy":      {"paidBy", "Paid By", "PaidBy", "paid_by"},
	"category":    {"category", "Category"},
	"subCategory": {"subCategory", "Sub-Category", "Sub Category", "SubCategory", "sub_category"},
	"source":      {"source", "Source"},
	"notes":       {"notes", "Notes"},
}

// Input содержит запись после разрешения псевдонимов и приведения типов.
type Input struct {
	Date        string
	Type        models.ExpenseType `validate:"oneof=Expense Income"`
	Description string             `validate:"required,max=500"`
	Amount      decimal.Decimal
	PaidBy      string `validate:"max=100"`
	Category    string `validate:"required,max=100"`
	SubCategory string `validate:"max=100"`
	Source      string `validate:"max=100"`
	Notes       string `validate:"max=2000"`
}

var (
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	usDatePattern  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	amountJunk     = regexp.MustCompile(`[^0-9.+\-]`)

	validate = validator.New()
)

// Lookup возвращает значение поля по первому подходящему псевдониму.
// Пустые строки и null считаются отсутствующими.
func (r RawExpense) Lookup(field string) (any, bool) {
	for _, key := range fieldAliases[field] {
		value, ok := r[key]
		if !ok || value == nil {
			continue
		}
		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return value, true
	}
	return nil, false
}

func (r RawExpense) text(field string) string {
	value, ok := r.Lookup(field)
	if !ok {
		return ""
	}
	return strings.TrimSpace(stringify(value))
}

// Normalize разрешает псевдонимы и проверяет обязательные поля.
// Дата возвращается как есть; ее приводит NormalizeDate.
func Normalize(raw RawExpense) (Input, error) {
	in := Input{
		Date:        raw.text("date"),
		Description: raw.text("description"),
		PaidBy:      raw.text("paidBy"),
		Category:    raw.text("category"),
		SubCategory: raw.text("subCategory"),
		Source:      raw.text("source"),
		Notes:       raw.text("notes"),
	}

	var invalid []string

	expenseType, ok := parseType(raw.text("type"))
	if !ok {
		invalid = append(invalid, "type")
	}
	in.Type = expenseType

	if value, present := raw.Lookup("amount"); present {
		amount, err := parseAmount(value)
		if err != nil || !amount.IsPositive() {
			invalid = append(invalid, "amount")
		}
		in.Amount = amount
	} else {
		invalid = append(invalid, "amount")
	}

	if err := validate.Struct(in); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				invalid = appendUnique(invalid, jsonName(fe.Field()))
			}
		} else {
			return in, err
		}
	}

	if len(invalid) > 0 {
		return in, &ValidationError{Fields: orderFields(invalid)}
	}

	return in, nil
}

// NormalizeDate приводит дату к YYYY-MM-DD.
// ok=false означает, что дата не распознана и заменена на now.
func NormalizeDate(value string, now time.Time) (string, bool) {
	value = strings.TrimSpace(value)
	today := now.Format(models.DateLayout)

	if value == "" {
		return today, true
	}

	if isoDatePattern.MatchString(value) {
		if _, err := time.Parse(models.DateLayout, value); err == nil {
			return value, true
		}
		return today, false
	}

	if m := usDatePattern.FindStringSubmatch(value); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		formatted := fmt.Sprintf("%s-%02d-%02d", m[3], month, day)
		if _, err := time.Parse(models.DateLayout, formatted); err == nil {
			return formatted, true
		}
	}

	return today, false
}

func parseType(value string) (models.ExpenseType, bool) {
	switch strings.ToLower(value) {
	case "", "expense":
		return models.ExpenseTypeExpense, true
	case "income":
		return models.ExpenseTypeIncome, true
	default:
		return models.ExpenseType(value), false
	}
}

func parseAmount(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case json.Number:
		return decimal.NewFromString(v.String())
	case decimal.Decimal:
		return v, nil
	case string:
		cleaned := amountJunk.ReplaceAllString(v, "")
		if cleaned == "" {
			return decimal.Zero, fmt.Errorf("amount %q has no digits", v)
		}
		return decimal.NewFromString(cleaned)
	default:
		return decimal.Zero, fmt.Errorf("unsupported amount type %T", value)
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

var fieldOrder = []string{"date", "type", "description", "amount", "paidBy", "category", "subCategory", "source", "notes"}

func jsonName(structField string) string {
	if structField == "" {
		return structField
	}
	return strings.ToLower(structField[:1]) + structField[1:]
}

func orderFields(fields []string) []string {
	ordered := make([]string, 0, len(fields))
	for _, name := range fieldOrder {
		for _, f := range fields {
			if f == name {
				ordered = append(ordered, name)
				break
			}
		}
	}
	return ordered
}

func appendUnique(values []string, value string) []string {
	for _, v := range values {
		if v == value {
			return values
		}
	}
	return append(values, value)
}
