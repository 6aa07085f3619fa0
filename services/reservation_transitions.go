package services

import "github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/models"

// completed dan cancelled adalah status akhir
var reservationTransitions = map[string][]string{
	models.ReservationPending:    {models.ReservationConfirmed, models.ReservationCancelled},
	models.ReservationConfirmed:  {models.ReservationInProgress, models.ReservationCompleted, models.ReservationCancelled},
	models.ReservationInProgress: {models.ReservationCompleted, models.ReservationCancelled},
}

// ValidReservationTransition -> status yang sama selalu boleh (hanya stamp updated_at)
func ValidReservationTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, status := range reservationTransitions[from] {
		if status == to {
			return true
		}
	}
	return false
}
