package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"
)

var csvHeader = []string{ColAmount, ColPaymentMethod, ColDeviceType, ColHour, ColIsFraud}

// WriteCSV writes transactions with a header row. Amounts are written with two
// decimals, so the encoding of a generated dataset is stable byte for byte.
func WriteCSV(w io.Writer, transactions []Transaction) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, t := range transactions {
		row := []string{
			strconv.FormatFloat(t.Amount, 'f', 2, 64),
			string(t.PaymentMethod),
			string(t.DeviceType),
			strconv.Itoa(t.Hour),
			strconv.Itoa(boolToInt(t.IsFraud)),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// SaveCSV writes transactions to filename, replacing any existing file.
func SaveCSV(filename string, transactions []Transaction) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := WriteCSV(file, transactions); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// ReadCSV reads transactions written by WriteCSV. The header must match and
// every field must be a value Generate could have produced.
func ReadCSV(r io.Reader) ([]Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv file is empty")
	}
	if !slices.Equal(records[0], csvHeader) {
		return nil, fmt.Errorf("unexpected header %v, want %v", records[0], csvHeader)
	}

	transactions := make([]Transaction, 0, len(records)-1)
	for i, record := range records[1:] {
		row := i + 2
		amount, err := decimal.NewFromString(record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad amount: %w", row, err)
		}
		if !amount.IsPositive() {
			return nil, fmt.Errorf("row %d: amount %s is not positive", row, record[0])
		}
		method := PaymentMethod(record[1])
		if !slices.Contains(PaymentMethods, method) {
			return nil, fmt.Errorf("row %d: unknown payment method %q", row, record[1])
		}
		device := DeviceType(record[2])
		if !slices.Contains(DeviceTypes, device) {
			return nil, fmt.Errorf("row %d: unknown device type %q", row, record[2])
		}
		hour, err := strconv.Atoi(record[3])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad hour: %w", row, err)
		}
		if hour < 0 || hour > 23 {
			return nil, fmt.Errorf("row %d: hour %d out of range", row, hour)
		}
		label, err := strconv.Atoi(record[4])
		if err != nil || (label != 0 && label != 1) {
			return nil, fmt.Errorf("row %d: bad label %q", row, record[4])
		}

		transactions = append(transactions, Transaction{
			Amount:        amount.InexactFloat64(),
			PaymentMethod: method,
			DeviceType:    device,
			Hour:          hour,
			IsFraud:       label == 1,
		})
	}

	return transactions, nil
}

// LoadCSV reads transactions from filename.
func LoadCSV(filename string) ([]Transaction, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file)
}
