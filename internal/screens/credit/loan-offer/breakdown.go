package loanoffer

import (
	"borrower-client/internal/models"

	"github.com/shopspring/decimal"
)

// GSTRate is applied to the platform fee.
var GSTRate = decimal.RequireFromString("0.18")

var daysPerPeriod = decimal.NewFromInt(30)

// ComputeBreakdown derives the settlement figures for an offer.
// Disbursal is amount minus fee minus GST on the fee. Total repayable applies
// the rate once per 30-day period of tenure.
func ComputeBreakdown(offer models.Offer) Breakdown {
	gst := offer.PlatformFee.Mul(GSTRate).Round(2)
	disbursal := offer.Amount.Sub(offer.PlatformFee).Sub(gst)

	tenure, unit := offer.Tenure()
	periods := decimal.NewFromInt(int64(tenure))
	if unit == "days" {
		periods = periods.Div(daysPerPeriod)
	}
	total := offer.Amount.Mul(decimal.NewFromInt(1).Add(offer.InterestRate.Mul(periods))).Round(2)

	return Breakdown{
		Amount:         offer.Amount,
		PlatformFee:    offer.PlatformFee,
		GSTOnFee:       gst,
		Disbursal:      disbursal,
		InterestRate:   offer.InterestRate,
		Tenure:         tenure,
		TenureUnit:     unit,
		TotalRepayable: total,
	}
}
