// Package main scores a CSV of transactions with a saved fraud pipeline.
//
//	fraudscore -model fraud_model.bin transactions.csv
//
// The input uses the dataset export layout; its is_fraud column is ignored.
// One "row,probability,prediction" line is written per transaction.
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/FlavioCFOliveira/GoFraud/internal/dataset"
	"github.com/FlavioCFOliveira/GoFraud/internal/pipeline"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("fraudscore", flag.ContinueOnError)
	modelPath := fs.String("model", "fraud_model.bin", "pipeline artifact")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one transactions CSV")
	}

	p, err := pipeline.Load(*modelPath)
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}
	txs, err := dataset.LoadCSV(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("loading transactions: %w", err)
	}
	frame, _ := dataset.ToFrame(txs)

	proba, err := p.PredictProba(frame)
	if err != nil {
		return err
	}
	pred, err := p.Predict(frame)
	if err != nil {
		return err
	}

	w := csv.NewWriter(out)
	if err := w.Write([]string{"row", "probability", "prediction"}); err != nil {
		return err
	}
	for i := range proba {
		record := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(proba[i], 'f', 6, 64),
			strconv.Itoa(pred[i]),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
