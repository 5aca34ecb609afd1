package model

// RentalPeriodLabel is the rental block all fee amounts refer to.
const RentalPeriodLabel = "2.5日間"

// Fees 料金 (円). Nil amounts were never recorded.
type Fees struct {
	MainVenueFee      *int64 `json:"main_venue_fee"`
	ControlRoomFee    *int64 `json:"control_room_fee"`
	EquipmentFee      *int64 `json:"equipment_fee"`
	ElectricityFee    *int64 `json:"electricity_fee"`
	AirConditionerFee *int64 `json:"air_conditioner_fee"`
	GarbageFee        *int64 `json:"garbage_fee"`
	MealBringFee      *int64 `json:"meal_bring_fee"`
	EstimatedTotalFee *int64 `json:"estimated_total_fee"`
	Notes             string `json:"fee_notes"`
}

// UtilitiesFee sums the recorded utility charges. ok is false when none of
// them were recorded.
func (f *Fees) UtilitiesFee() (total int64, ok bool) {
	for _, v := range []*int64{f.ElectricityFee, f.AirConditionerFee, f.GarbageFee} {
		if v != nil {
			total += *v
			ok = true
		}
	}
	return total, ok
}

// Parking 駐車場
type Parking struct {
	Capacity   *int   `json:"capacity"`
	IsFree     bool   `json:"is_free"`
	Fee        string `json:"fee"`
	NearbyInfo string `json:"nearby_info"`
}

// Conditions 予約・キャンセル条件
type Conditions struct {
	AdvanceReservationDays   *int   `json:"advance_reservation_days"`
	CancellationDeadlineDays *int   `json:"cancellation_deadline_days"`
	ReservationMethod        string `json:"reservation_method"`
	CancellationPolicy       string `json:"cancellation_policy"`
	PaymentTerms             string `json:"payment_terms"`
}
