// Package dataset generates the synthetic transactions the fraud pipeline trains on
// and turns them into typed column frames.
package dataset

import (
	"math/rand"

	"github.com/shopspring/decimal"
)

// Defaults used by the reference run.
const (
	DefaultRows      = 1000
	DefaultSeed      = 42
	DefaultFraudRate = 0.05

	// amountScale is the mean of the exponential amount distribution.
	amountScale = 200.0
)

// PaymentMethod is the channel a transaction was paid through.
type PaymentMethod string

const (
	PaymentCard       PaymentMethod = "CARD"
	PaymentUPI        PaymentMethod = "UPI"
	PaymentNetBanking PaymentMethod = "NETBANKING"
)

// PaymentMethods lists every payment method in draw order.
var PaymentMethods = []PaymentMethod{PaymentCard, PaymentUPI, PaymentNetBanking}

// DeviceType is the kind of device that initiated a transaction.
type DeviceType string

const (
	DeviceMobile  DeviceType = "MOBILE"
	DeviceDesktop DeviceType = "DESKTOP"
)

// DeviceTypes lists every device type in draw order.
var DeviceTypes = []DeviceType{DeviceMobile, DeviceDesktop}

// Transaction is one labelled synthetic record.
type Transaction struct {
	Amount        float64       // Positive, rounded to cents
	PaymentMethod PaymentMethod // CARD, UPI or NETBANKING
	DeviceType    DeviceType    // MOBILE or DESKTOP
	Hour          int           // Hour of day (0-23)
	IsFraud       bool          // Label
}

// Generate deterministically produces count transactions from seed.
// Every field, label included, is drawn independently per row; the label is
// positive with probability fraudRate.
func Generate(count int, seed int64, fraudRate float64) []Transaction {
	if count <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(seed))

	transactions := make([]Transaction, count)
	for i := range transactions {
		transactions[i] = Transaction{
			Amount:        drawAmount(rng),
			PaymentMethod: PaymentMethods[rng.Intn(len(PaymentMethods))],
			DeviceType:    DeviceTypes[rng.Intn(len(DeviceTypes))],
			Hour:          rng.Intn(24),
			IsFraud:       rng.Float64() < fraudRate,
		}
	}
	return transactions
}

// drawAmount samples an exponential amount and rounds it to cents.
// Anything that rounds down to zero becomes the smallest positive amount.
func drawAmount(rng *rand.Rand) float64 {
	amount := decimal.NewFromFloat(rng.ExpFloat64() * amountScale).Round(2)
	if amount.IsZero() {
		return 0.01
	}
	return amount.InexactFloat64()
}

// FraudRate returns the fraction of positive labels.
func FraudRate(transactions []Transaction) float64 {
	if len(transactions) == 0 {
		return 0
	}
	fraud := 0
	for _, t := range transactions {
		if t.IsFraud {
			fraud++
		}
	}
	return float64(fraud) / float64(len(transactions))
}

// boolToInt converts bool to int
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
