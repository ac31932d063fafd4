package spreadsheet

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// FieldType represents the expected type of a field
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInt     FieldType = "int"
	TypeDecimal FieldType = "decimal"
	TypeDate    FieldType = "date"
)

// DefaultDateFormat is the date layout expected in uploads
const DefaultDateFormat = "2006-01-02"

// FieldRule defines validation rules for a column
type FieldRule struct {
	Column     string
	Type       FieldType
	Required   bool
	MaxLength  int
	MinValue   *decimal.Decimal
	Exclusive  bool
	OneOf      []string
	DateFormat string
	Unique     bool
}

// FieldRuleBuilder helps build field rules fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field creates a new field rule builder
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{
		rule: FieldRule{
			Column:     column,
			Type:       TypeString,
			DateFormat: DefaultDateFormat,
		},
	}
}

// Required marks the field as required
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// Int sets the field type to integer
func (b *FieldRuleBuilder) Int() *FieldRuleBuilder {
	b.rule.Type = TypeInt
	return b
}

// Decimal sets the field type to decimal
func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder {
	b.rule.Type = TypeDecimal
	return b
}

// Date sets the field type to date
func (b *FieldRuleBuilder) Date() *FieldRuleBuilder {
	b.rule.Type = TypeDate
	return b
}

// DateFormat sets the expected date layout
func (b *FieldRuleBuilder) DateFormat(format string) *FieldRuleBuilder {
	if format != "" {
		b.rule.DateFormat = format
	}
	return b
}

// MaxLength sets the maximum length
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// Min sets an inclusive minimum numeric value
func (b *FieldRuleBuilder) Min(v int64) *FieldRuleBuilder {
	d := decimal.NewFromInt(v)
	b.rule.MinValue = &d
	b.rule.Exclusive = false
	return b
}

// Positive requires a numeric value greater than zero
func (b *FieldRuleBuilder) Positive() *FieldRuleBuilder {
	d := decimal.Zero
	b.rule.MinValue = &d
	b.rule.Exclusive = true
	return b
}

// OneOf restricts the value to the given options, case-insensitively
func (b *FieldRuleBuilder) OneOf(values ...string) *FieldRuleBuilder {
	b.rule.OneOf = values
	return b
}

// Unique marks the field as unique within the file
func (b *FieldRuleBuilder) Unique() *FieldRuleBuilder {
	b.rule.Unique = true
	return b
}

// Build returns the built field rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// FieldValidator validates rows according to rules, in rule order
type FieldValidator struct {
	rules       []FieldRule
	uniqueCheck map[string]map[string]int // column -> value -> first row number
	errors      *ErrorCollection
}

// NewFieldValidator creates a new field validator reporting into errors
func NewFieldValidator(rules []FieldRule, errors *ErrorCollection) *FieldValidator {
	return &FieldValidator{
		rules:       rules,
		uniqueCheck: make(map[string]map[string]int),
		errors:      errors,
	}
}

// RequiredColumns returns the columns marked required
func (v *FieldValidator) RequiredColumns() []string {
	var cols []string
	for _, r := range v.rules {
		if r.Required {
			cols = append(cols, r.Column)
		}
	}
	return cols
}

// ValidateRow validates all fields in a row
func (v *FieldValidator) ValidateRow(row *Row) bool {
	ok := true
	for _, rule := range v.rules {
		if !v.validateField(row, rule) {
			ok = false
		}
	}
	return ok
}

func (v *FieldValidator) validateField(row *Row, rule FieldRule) bool {
	column := rule.Column
	value := row.Get(column)

	if value == "" {
		if rule.Required {
			v.errors.AddRequiredError(row.LineNumber, column)
			return false
		}
		return true
	}

	if err := validateType(value, rule); err != nil {
		if errors.Is(err, ErrIntOutOfRange) {
			v.errors.AddRangeError(row.LineNumber, column,
				fmt.Sprintf("value must be between %d and %d", math.MinInt32, math.MaxInt32), value)
			return false
		}
		v.errors.AddTypeError(row.LineNumber, column, string(rule.Type), value)
		return false
	}

	if rule.MaxLength > 0 && len(value) > rule.MaxLength {
		v.errors.Add(NewRowErrorWithValue(row.LineNumber, column, ErrCodeImportValidation,
			fmt.Sprintf("length must be at most %d", rule.MaxLength), value))
		return false
	}

	if rule.MinValue != nil && (rule.Type == TypeInt || rule.Type == TypeDecimal) {
		d, _ := decimal.NewFromString(value)
		if rule.Exclusive && !d.GreaterThan(*rule.MinValue) {
			v.errors.AddRangeError(row.LineNumber, column, fmt.Sprintf("value must be greater than %s", rule.MinValue), value)
			return false
		}
		if !rule.Exclusive && d.LessThan(*rule.MinValue) {
			v.errors.AddRangeError(row.LineNumber, column, fmt.Sprintf("value must be at least %s", rule.MinValue), value)
			return false
		}
	}

	if len(rule.OneOf) > 0 && !slices.Contains(rule.OneOf, strings.ToUpper(value)) {
		v.errors.Add(NewRowErrorWithValue(row.LineNumber, column, ErrCodeImportInvalidValue,
			fmt.Sprintf("value must be one of %s", strings.Join(rule.OneOf, ", ")), value))
		return false
	}

	if rule.Unique {
		if v.uniqueCheck[column] == nil {
			v.uniqueCheck[column] = make(map[string]int)
		}
		key := strings.ToLower(value)
		if firstRow, exists := v.uniqueCheck[column][key]; exists {
			v.errors.Add(NewRowErrorWithValue(row.LineNumber, column, ErrCodeImportDuplicateInFile,
				fmt.Sprintf("duplicate value '%s' (first seen in row %d)", value, firstRow), value))
			return false
		}
		v.uniqueCheck[column][key] = row.LineNumber
	}

	return true
}

func validateType(value string, rule FieldRule) error {
	switch rule.Type {
	case TypeInt:
		_, err := ParseInt(value)
		return err
	case TypeDecimal:
		_, err := decimal.NewFromString(value)
		return err
	case TypeDate:
		_, err := ParseDate(value, rule.DateFormat)
		return err
	}
	return nil
}

// ParseInt parses an integer cell. Spreadsheet tools often store whole
// numbers as "5.0", which is accepted. Values outside the 32-bit range of the
// INTEGER columns are rejected instead of wrapping.
func ParseInt(value string) (int, error) {
	if n, err := strconv.ParseInt(value, 10, 32); err == nil {
		return int(n), nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, err
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("not a whole number: %s", value)
	}
	if d.LessThan(minCellInt) || d.GreaterThan(maxCellInt) {
		return 0, fmt.Errorf("%w: %s", ErrIntOutOfRange, value)
	}
	return int(d.IntPart()), nil
}

// ErrIntOutOfRange is returned by ParseInt for whole numbers that do not fit
// a 32-bit integer
var ErrIntOutOfRange = errors.New("integer out of range")

var (
	minCellInt = decimal.NewFromInt(math.MinInt32)
	maxCellInt = decimal.NewFromInt(math.MaxInt32)
)

// ParseDate parses a date cell in layout, or an Excel serial date number
func ParseDate(value, layout string) (time.Time, error) {
	if layout == "" {
		layout = DefaultDateFormat
	}
	if t, err := time.Parse(layout, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05", value); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected %s", value, layout)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
