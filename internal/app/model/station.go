package model

// TransportMethod 最寄り駅からの移動手段
type TransportMethod string

const (
	TransportWalk  TransportMethod = "徒歩"
	TransportTaxi  TransportMethod = "タクシー"
	TransportBus   TransportMethod = "バス"
	TransportOther TransportMethod = "その他"
)

// Station 最寄り駅のアクセス情報
type Station struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	VenueID         uint            `gorm:"index;not null" json:"venue_id"`
	StationName     string          `gorm:"not null;index" json:"station_name"`
	LineName        string          `gorm:"index" json:"line_name"`
	ExitName        *string         `json:"exit_name"`
	TransportMethod TransportMethod `gorm:"type:varchar(16)" json:"transportation_method"`
	TravelTime      *int            `json:"travel_time"` // 分
	WalkingTime     *int            `json:"walking_time"`
	TaxiTime        *int            `json:"taxi_time"`
	BusTime         *int            `json:"bus_time"`
	DistanceKm      *float64        `json:"distance_km"`
	Notes           string          `gorm:"type:text" json:"notes"`
	DisplayOrder    int             `gorm:"default:0;index" json:"display_order"`
}

func (Station) TableName() string {
	return "venue_stations"
}

// WalkingMinutes returns the walking time, taken from WalkingTime or from
// TravelTime when the transport method is walking.
func (s *Station) WalkingMinutes() (int, bool) {
	if s.WalkingTime != nil {
		return *s.WalkingTime, true
	}
	if s.TransportMethod == TransportWalk && s.TravelTime != nil {
		return *s.TravelTime, true
	}
	return 0, false
}

// Access picks the first known travel mode in walk, taxi, bus order, then
// the generic TravelTime.
func (s *Station) Access() (TransportMethod, int, bool) {
	if m, ok := s.WalkingMinutes(); ok {
		return TransportWalk, m, true
	}
	if s.TaxiTime != nil {
		return TransportTaxi, *s.TaxiTime, true
	}
	if s.BusTime != nil {
		return TransportBus, *s.BusTime, true
	}
	if s.TravelTime != nil {
		method := s.TransportMethod
		if method == "" {
			method = TransportOther
		}
		return method, *s.TravelTime, true
	}
	return "", 0, false
}
