package services

import "github.com/wanderpal/tour_guide/models"

// payoutReservedStatuses are the payout states that hold funds against a
// guide's lifetime earnings. TotalEarnings itself is monotone: only the
// completion crediting path writes it and it is never decremented, so
// paid-out money stays reserved here instead of being subtracted from it.
var payoutReservedStatuses = map[string]struct{}{
	"pending": {},
	"paid":    {},
}

// ReservedPayoutAmount sums the payouts that count against the guide's
// withdrawable balance.
func ReservedPayoutAmount(payouts []models.PayoutRequest) float64 {
	var total float64
	for _, p := range payouts {
		if _, ok := payoutReservedStatuses[p.Status]; ok {
			total += p.Amount
		}
	}
	return total
}

// AvailableBalance is lifetime earnings minus reserved payouts.
func AvailableBalance(guide models.Guide, payouts []models.PayoutRequest) float64 {
	return guide.TotalEarnings - ReservedPayoutAmount(payouts)
}
