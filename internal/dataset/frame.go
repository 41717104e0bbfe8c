package dataset

import (
	"fmt"
	"strconv"
)

// Column names of the transaction frame.
const (
	ColAmount        = "amount"
	ColPaymentMethod = "payment_method"
	ColDeviceType    = "device_type"
	ColHour          = "hour"
	ColIsFraud       = "is_fraud"
)

// Kind is the storage type of a column.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Column is a named, typed column. Numeric columns use Floats, categorical
// columns use Strings.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Strings []string
}

// Len returns the number of rows in the column.
func (c Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// NumericColumn builds a numeric column.
func NumericColumn(name string, values []float64) Column {
	return Column{Name: name, Kind: Numeric, Floats: values}
}

// CategoricalColumn builds a categorical column.
func CategoricalColumn(name string, values []string) Column {
	return Column{Name: name, Kind: Categorical, Strings: values}
}

// Frame is an ordered set of equal-length columns.
type Frame struct {
	Columns []Column
}

// NewFrame builds a frame and checks that all columns have the same length
// and distinct names.
func NewFrame(columns ...Column) (Frame, error) {
	seen := make(map[string]bool, len(columns))
	for i, c := range columns {
		if seen[c.Name] {
			return Frame{}, fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[c.Name] = true
		if i > 0 && c.Len() != columns[0].Len() {
			return Frame{}, fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), columns[0].Len())
		}
	}
	return Frame{Columns: columns}, nil
}

// Len returns the number of rows.
func (f Frame) Len() int {
	if len(f.Columns) == 0 {
		return 0
	}
	return f.Columns[0].Len()
}

// Names returns the column names in order.
func (f Frame) Names() []string {
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (f Frame) Column(name string) (Column, bool) {
	for _, c := range f.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Take returns a new frame holding the given rows, in the given order.
func (f Frame) Take(rows []int) Frame {
	out := Frame{Columns: make([]Column, len(f.Columns))}
	for i, c := range f.Columns {
		nc := Column{Name: c.Name, Kind: c.Kind}
		if c.Kind == Numeric {
			nc.Floats = make([]float64, len(rows))
			for j, r := range rows {
				nc.Floats[j] = c.Floats[r]
			}
		} else {
			nc.Strings = make([]string, len(rows))
			for j, r := range rows {
				nc.Strings[j] = c.Strings[r]
			}
		}
		out.Columns[i] = nc
	}
	return out
}

// ToFrame splits transactions into a feature frame and 0/1 labels.
func ToFrame(transactions []Transaction) (Frame, []int) {
	n := len(transactions)
	amount := make([]float64, n)
	method := make([]string, n)
	device := make([]string, n)
	hour := make([]float64, n)
	labels := make([]int, n)

	for i, t := range transactions {
		amount[i] = t.Amount
		method[i] = string(t.PaymentMethod)
		device[i] = string(t.DeviceType)
		hour[i] = float64(t.Hour)
		labels[i] = boolToInt(t.IsFraud)
	}

	return Frame{Columns: []Column{
		NumericColumn(ColAmount, amount),
		CategoricalColumn(ColPaymentMethod, method),
		CategoricalColumn(ColDeviceType, device),
		NumericColumn(ColHour, hour),
	}}, labels
}
