package model

import "time"

// VenueStatus 会場の運用ステータス
type VenueStatus string

const (
	VenueStatusActive   VenueStatus = "active"
	VenueStatusInactive VenueStatus = "inactive"
	VenueStatusPending  VenueStatus = "pending"
)

// Valid reports whether s is one of the known statuses.
func (s VenueStatus) Valid() bool {
	switch s {
	case VenueStatusActive, VenueStatusInactive, VenueStatusPending:
		return true
	}
	return false
}

// Venue is the root record. Rooms and Stations are owned by the venue and
// are replaced together with it.
type Venue struct {
	ID                uint        `gorm:"primarykey" json:"id"`                         // 会場ID
	VenueNo           string      `gorm:"type:varchar(32);uniqueIndex" json:"venue_no"` // 管理コード (例: "V010")
	Name              string      `gorm:"not null" json:"venue_name"`                   // 会場名
	OfficialName      string      `json:"official_name"`                                // 正式名称
	Prefecture        string      `gorm:"index;not null" json:"prefecture"`             // 都道府県
	City              string      `gorm:"index" json:"city"`                            // 市区町村
	Address           string      `gorm:"type:text" json:"address"`                     // 住所
	PostalCode        string      `gorm:"type:varchar(10)" json:"postal_code"`          // 郵便番号
	PhoneNumber       *string     `gorm:"type:varchar(30)" json:"phone_number"`         // 電話番号
	Email             *string     `json:"email"`                                        // メールアドレス
	ContactPerson     *string     `json:"contact_person"`                               // 担当者名
	ContactDepartment *string     `json:"contact_department"`                           // 担当部署
	OfficialURL       *string     `json:"official_url"`                                 // 公式サイト
	ReservationURL    *string     `json:"reservation_url"`                              // 予約サイト
	GoogleMapURL      *string     `json:"google_map_url"`                               // 地図URL
	Status            VenueStatus `gorm:"type:varchar(16);index;default:active" json:"status"`
	Notes             string      `gorm:"type:text" json:"notes"`
	LastVerifiedDate  string      `gorm:"type:varchar(32)" json:"last_verified_date"` // 最終確認日 (日付文字列)

	Rooms    []Room    `gorm:"foreignKey:VenueID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"rooms"`
	Stations []Station `gorm:"foreignKey:VenueID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"stations"`

	Equipment  Equipment   `gorm:"serializer:json" json:"equipment"`
	Facilities Facilities  `gorm:"serializer:json" json:"facilities"`
	Fees       *Fees       `gorm:"serializer:json" json:"fees"`
	Parking    *Parking    `gorm:"serializer:json" json:"parking"`
	Conditions *Conditions `gorm:"serializer:json" json:"conditions"`

	Tags TagList `json:"tags"` // 検索・絞り込み用タグ

	CreatedBy string    `json:"created_by"`
	UpdatedBy string    `json:"updated_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Venue) TableName() string {
	return "venues"
}

// MaxCapacity is the largest theater-layout capacity across the venue's
// rooms, or 0 when no room reports one.
func (v *Venue) MaxCapacity() int {
	maxCapacity := 0
	for i := range v.Rooms {
		if c := v.Rooms[i].CapacityTheater; c != nil && *c > maxCapacity {
			maxCapacity = *c
		}
	}
	return maxCapacity
}

// MainRoom returns the room with the largest theater capacity, falling back
// to the first room. Nil when the venue has no rooms.
func (v *Venue) MainRoom() *Room {
	if len(v.Rooms) == 0 {
		return nil
	}
	main := &v.Rooms[0]
	for i := range v.Rooms {
		r := &v.Rooms[i]
		if r.CapacityTheater != nil && (main.CapacityTheater == nil || *r.CapacityTheater > *main.CapacityTheater) {
			main = r
		}
	}
	return main
}

// NearestStation returns the first station in display order.
func (v *Venue) NearestStation() *Station {
	if len(v.Stations) == 0 {
		return nil
	}
	return &v.Stations[0]
}

// ControlRoomCount totals control rooms across all rooms.
func (v *Venue) ControlRoomCount() int {
	n := 0
	for i := range v.Rooms {
		n += len(v.Rooms[i].ControlRooms)
	}
	return n
}
