package model

// Room 会場内の部屋 (メイン会場)
type Room struct {
	ID              uint     `gorm:"primarykey" json:"id"`
	VenueID         uint     `gorm:"index;not null" json:"venue_id"`
	Name            string   `gorm:"not null" json:"room_name"`
	RoomType        string   `json:"room_type"`
	Floor           *string  `json:"floor"`
	CeilingHeight   *float64 `json:"ceiling_height"` // 天井高 (m)
	FloorArea       *float64 `json:"floor_area"`     // 面積 (㎡)
	Width           *float64 `json:"width"`
	Depth           *float64 `json:"depth"`
	CapacityTheater *int     `json:"capacity_theater"` // シアター形式
	CapacitySchool  *int     `json:"capacity_school"`  // スクール形式
	CapacityBanquet *int     `json:"capacity_banquet"` // 宴会形式
	IsDividable     bool     `gorm:"default:false" json:"is_dividable"`
	HasStage        bool     `gorm:"default:false" json:"has_stage"`
	Notes           string   `gorm:"type:text" json:"notes"`
	DisplayOrder    int      `gorm:"default:0" json:"display_order"`

	ControlRooms []ControlRoom `gorm:"foreignKey:RoomID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"control_rooms"`
}

func (Room) TableName() string {
	return "venue_rooms"
}

// Capacities returns the three layout capacities in a fixed order.
func (r *Room) Capacities() []*int {
	return []*int{r.CapacityTheater, r.CapacitySchool, r.CapacityBanquet}
}

// ControlRoom 控室. Belongs to exactly one Room.
type ControlRoom struct {
	ID           uint     `gorm:"primarykey" json:"id"`
	RoomID       uint     `gorm:"index;not null" json:"room_id"`
	Name         string   `json:"name"`
	Area         *float64 `json:"area"`
	DeskCount    *int     `json:"desk_count"`
	ChairCount   *int     `json:"chair_count"`
	Capacity     *int     `json:"capacity"`
	Notes        string   `gorm:"type:text" json:"notes"`
	DisplayOrder int      `gorm:"default:0" json:"display_order"`
}

func (ControlRoom) TableName() string {
	return "venue_control_rooms"
}
