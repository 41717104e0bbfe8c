package gofraud

import (
	"github.com/FlavioCFOliveira/GoFraud/internal/dataset"
	"github.com/FlavioCFOliveira/GoFraud/internal/pipeline"
)

// Re-export the types needed to score transactions with a saved pipeline.
type (
	Pipeline      = pipeline.Pipeline
	Metadata      = pipeline.Metadata
	Transaction   = dataset.Transaction
	PaymentMethod = dataset.PaymentMethod
	DeviceType    = dataset.DeviceType
)

// Payment methods and device types
const (
	PaymentCard       = dataset.PaymentCard
	PaymentUPI        = dataset.PaymentUPI
	PaymentNetBanking = dataset.PaymentNetBanking
	DeviceMobile      = dataset.DeviceMobile
	DeviceDesktop     = dataset.DeviceDesktop
)

// ErrBadArtifact is returned by Load for files that are not pipelines.
var ErrBadArtifact = pipeline.ErrBadArtifact

// Load reads a pipeline saved by the frauddetection command.
func Load(filename string) (*Pipeline, error) {
	return pipeline.Load(filename)
}

// Score returns the fraud probability of each transaction. IsFraud is ignored.
// A loaded pipeline may be scored from several goroutines.
func Score(p *Pipeline, transactions []Transaction) ([]float64, error) {
	frame, _ := dataset.ToFrame(transactions)
	return p.PredictProba(frame)
}

// Classify returns 1 for each transaction the pipeline flags as fraud.
func Classify(p *Pipeline, transactions []Transaction) ([]int, error) {
	frame, _ := dataset.ToFrame(transactions)
	return p.Predict(frame)
}
