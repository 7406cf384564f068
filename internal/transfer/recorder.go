package transfer

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/BrunoTrinitario/kipu-bank-v2/internal/vault"
)

// Recorder acknowledges asset movements and writes an audit line for each.
// It stands in for the settlement rail the vault is deployed against; both
// operations succeed atomically from the vault's point of view.
type Recorder struct {
	log *logrus.Logger
}

func NewRecorder(log *logrus.Logger) *Recorder {
	if log == nil {
		log = logrus.New()
	}
	return &Recorder{log: log}
}

func (r *Recorder) Pull(ctx context.Context, asset vault.AssetRef, from string, amount decimal.Decimal) error {
	r.log.WithFields(logrus.Fields{
		"direction": "in",
		"asset":     asset.String(),
		"party":     from,
		"amount":    amount.String(),
	}).Info("asset transfer")
	return nil
}

func (r *Recorder) Push(ctx context.Context, asset vault.AssetRef, to string, amount decimal.Decimal) error {
	r.log.WithFields(logrus.Fields{
		"direction": "out",
		"asset":     asset.String(),
		"party":     to,
		"amount":    amount.String(),
	}).Info("asset transfer")
	return nil
}
