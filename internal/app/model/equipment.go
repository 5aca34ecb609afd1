package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Availability 設備の有無
type Availability string

const (
	AvailabilityYes     Availability = "yes"
	AvailabilityNo      Availability = "no"
	AvailabilityUnknown Availability = "unknown"
)

// FacilityItem is one equipment entry. Quantity and Notes are optional.
type FacilityItem struct {
	Status   Availability `json:"status"`
	Quantity *int         `json:"quantity,omitempty"`
	Notes    string       `json:"notes,omitempty"`
}

// FlagItem records a plain yes/no answer.
func FlagItem(ok bool) FacilityItem {
	if ok {
		return FacilityItem{Status: AvailabilityYes}
	}
	return FacilityItem{Status: AvailabilityNo}
}

// Recorded is false for unknown entries and for the zero value.
func (f FacilityItem) Recorded() bool {
	return f.Status == AvailabilityYes || f.Status == AvailabilityNo
}

func (f FacilityItem) Available() bool {
	return f.Status == AvailabilityYes
}

// UnmarshalJSON accepts the object form as well as a bare boolean, which is
// how older dataset exports encode equipment.
func (f *FacilityItem) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("true")):
		*f = FacilityItem{Status: AvailabilityYes}
		return nil
	case bytes.Equal(trimmed, []byte("false")):
		*f = FacilityItem{Status: AvailabilityNo}
		return nil
	case bytes.Equal(trimmed, []byte("null")):
		*f = FacilityItem{Status: AvailabilityUnknown}
		return nil
	}

	type plain FacilityItem
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("invalid equipment entry: %w", err)
	}
	if p.Status == "" {
		p.Status = AvailabilityUnknown
	}
	*f = FacilityItem(p)
	return nil
}

// EquipmentKey names one entry of the fixed equipment schema.
type EquipmentKey string

const (
	EquipmentProjector          EquipmentKey = "projector"
	EquipmentProjectorStand     EquipmentKey = "projector_stand"
	EquipmentScreen             EquipmentKey = "screen"
	EquipmentMicrophone         EquipmentKey = "microphone"
	EquipmentWirelessMicrophone EquipmentKey = "wireless_microphone"
	EquipmentWhiteboard         EquipmentKey = "whiteboard"
	EquipmentPodium             EquipmentKey = "podium"
	EquipmentPointer            EquipmentKey = "pointer"
	EquipmentSoundSystem        EquipmentKey = "sound_system"
	EquipmentLightingControl    EquipmentKey = "lighting_control"
	EquipmentAirConditioning    EquipmentKey = "air_conditioning"
	EquipmentWifi               EquipmentKey = "wifi"
	EquipmentLANCable           EquipmentKey = "lan_cable"
	EquipmentRecording          EquipmentKey = "recording_equipment"
	EquipmentLivestream         EquipmentKey = "livestream_equipment"
	EquipmentInterpreterBooth   EquipmentKey = "interpreter_booth"
	EquipmentVideoConference    EquipmentKey = "video_conference"
)

// EquipmentSpec describes a catalog entry.
type EquipmentSpec struct {
	Key   EquipmentKey
	Label string
}

// EquipmentCatalog is the fixed equipment schema in display order.
var EquipmentCatalog = []EquipmentSpec{
	{EquipmentPodium, "演台"},
	{EquipmentWhiteboard, "ホワイトボード"},
	{EquipmentScreen, "スクリーン"},
	{EquipmentProjector, "プロジェクター"},
	{EquipmentProjectorStand, "プロジェクター台"},
	{EquipmentWirelessMicrophone, "ワイヤレスマイク"},
	{EquipmentMicrophone, "有線マイク"},
	{EquipmentPointer, "ポインター"},
	{EquipmentRecording, "録音機器"},
	{EquipmentLivestream, "ライブ配信機器"},
	{EquipmentInterpreterBooth, "同時通訳ブース"},
	{EquipmentSoundSystem, "音響設備"},
	{EquipmentLightingControl, "照明調整"},
	{EquipmentAirConditioning, "空調設備"},
	{EquipmentWifi, "Wi-Fi"},
	{EquipmentLANCable, "有線LAN"},
	{EquipmentVideoConference, "ビデオ会議システム"},
}

// IsKnownEquipment reports whether key belongs to the catalog.
func IsKnownEquipment(key EquipmentKey) bool {
	for _, spec := range EquipmentCatalog {
		if spec.Key == key {
			return true
		}
	}
	return false
}

// Equipment maps catalog keys to their entries. Absent keys mean the
// information was never recorded, which differs from an explicit "no".
type Equipment map[EquipmentKey]FacilityItem

// Lookup returns the entry for key and whether it was recorded.
func (e Equipment) Lookup(key EquipmentKey) (FacilityItem, bool) {
	item, ok := e[key]
	if !ok || !item.Recorded() {
		return item, false
	}
	return item, true
}

// Facilities 施設・利用条件フラグ. A flag missing from the dataset stays
// unrecorded rather than decoding to "no".
type Facilities struct {
	CanEatDrink              FacilityItem `json:"can_eat_drink"`
	CanWearShoes             FacilityItem `json:"can_wear_shoes"`
	IsBarrierFree            FacilityItem `json:"is_barrier_free"`
	HasElevator              FacilityItem `json:"has_elevator"`
	IsEarthquakeResistant    FacilityItem `json:"is_earthquake_resistant"`
	EarthquakeResistanceYear *int         `json:"earthquake_resistance_year,omitempty"`
	HasAED                   FacilityItem `json:"has_aed"`
	HasNursingRoom           FacilityItem `json:"has_nursing_room"`
	HasSmokingArea           FacilityItem `json:"has_smoking_area"`
	HasVendingMachine        FacilityItem `json:"has_vending_machine"`
	HasRestaurant            FacilityItem `json:"has_restaurant"`
	HasCateringService       FacilityItem `json:"has_catering_service"`
	CanReceivePackage        FacilityItem `json:"can_receive_package"`

	// 旧形式のデータセットは駐車場を facilities に持つ。読み込み時に Venue.Parking へ移す
	ParkingCapacity *int   `json:"parking_capacity,omitempty"`
	ParkingFee      string `json:"parking_fee,omitempty"`
	ParkingNotes    string `json:"parking_notes,omitempty"`
}
