package importer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ikkim/venue-backend/internal/app/model"
	"github.com/ikkim/venue-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/width"
)

// Sheet names of the venue workbook.
const (
	SheetVenues   = "会場"
	SheetRooms    = "部屋"
	SheetStations = "最寄り駅"
)

var (
	ErrNoVenueSheet  = errors.New("会場シートが見つかりません")
	ErrNoData        = errors.New("会場シートにデータ行がありません")
	ErrMissingColumn = errors.New("必須列がありません")
	ErrUnknownVenue  = errors.New("存在しない会場IDを参照しています")
)

// Summary counts what a parse produced.
type Summary struct {
	VenueRows int
	Venues    int
	Rooms     int
	Stations  int
	Skipped   int
}

// Result is a parsed workbook.
type Result struct {
	Dataset *model.VenueDataset
	Summary Summary
}

// column aliases: json field name first, then the Japanese header.
var venueColumns = map[string][]string{
	"id":                         {"id", "会場id"},
	"venue_no":                   {"venue_no", "管理コード"},
	"venue_name":                 {"venue_name", "会場名"},
	"official_name":              {"official_name", "正式名称"},
	"prefecture":                 {"prefecture", "都道府県"},
	"city":                       {"city", "市区町村"},
	"address":                    {"address", "住所"},
	"postal_code":                {"postal_code", "郵便番号"},
	"phone_number":               {"phone_number", "電話番号"},
	"email":                      {"email", "メールアドレス"},
	"contact_person":             {"contact_person", "担当者"},
	"official_url":               {"official_url", "公式サイト"},
	"reservation_url":            {"reservation_url", "予約サイト"},
	"status":                     {"status", "ステータス"},
	"notes":                      {"notes", "備考"},
	"last_verified_date":         {"last_verified_date", "最終確認日"},
	"tags":                       {"tags", "タグ"},
	"can_eat_drink":              {"can_eat_drink", "飲食可"},
	"can_wear_shoes":             {"can_wear_shoes", "土足可"},
	"is_barrier_free":            {"is_barrier_free", "バリアフリー"},
	"has_elevator":               {"has_elevator", "エレベーター"},
	"is_earthquake_resistant":    {"is_earthquake_resistant", "耐震基準"},
	"parking_capacity":           {"parking_capacity", "駐車台数"},
	"parking_fee":                {"parking_fee", "駐車料金"},
	"parking_nearby":             {"parking_nearby", "近隣駐車場"},
	"main_venue_fee":             {"main_venue_fee", "会場使用料"},
	"control_room_fee":           {"control_room_fee", "控室使用料"},
	"equipment_fee":              {"equipment_fee", "備品使用料"},
	"electricity_fee":            {"electricity_fee", "電気代"},
	"air_conditioner_fee":        {"air_conditioner_fee", "空調費"},
	"garbage_fee":                {"garbage_fee", "ゴミ処理費"},
	"meal_bring_fee":             {"meal_bring_fee", "飲食持込料"},
	"estimated_total_fee":        {"estimated_total_fee", "概算合計"},
	"fee_notes":                  {"fee_notes", "料金備考"},
	"advance_reservation_days":   {"advance_reservation_days", "予約受付日数"},
	"cancellation_deadline_days": {"cancellation_deadline_days", "キャンセル期限日数"},
	"reservation_method":         {"reservation_method", "予約方法"},
	"cancellation_policy":        {"cancellation_policy", "キャンセルポリシー"},
	"payment_terms":              {"payment_terms", "支払条件"},
}

var roomColumns = map[string][]string{
	"venue_id":         {"venue_id", "会場id"},
	"room_name":        {"room_name", "部屋名"},
	"room_type":        {"room_type", "部屋種別"},
	"floor":            {"floor", "階数"},
	"ceiling_height":   {"ceiling_height", "天井高"},
	"floor_area":       {"floor_area", "面積"},
	"width":            {"width", "幅"},
	"depth":            {"depth", "奥行"},
	"capacity_theater": {"capacity_theater", "シアター"},
	"capacity_school":  {"capacity_school", "スクール"},
	"capacity_banquet": {"capacity_banquet", "宴会"},
	"is_dividable":     {"is_dividable", "分割可"},
	"has_stage":        {"has_stage", "ステージ"},
	"notes":            {"notes", "備考"},
	"display_order":    {"display_order", "表示順"},
}

var stationColumns = map[string][]string{
	"venue_id":              {"venue_id", "会場id"},
	"station_name":          {"station_name", "駅名"},
	"line_name":             {"line_name", "路線名"},
	"exit_name":             {"exit_name", "出口"},
	"transportation_method": {"transportation_method", "移動手段"},
	"travel_time":           {"travel_time", "所要時間"},
	"walking_time":          {"walking_time", "徒歩"},
	"taxi_time":             {"taxi_time", "タクシー"},
	"bus_time":              {"bus_time", "バス"},
	"distance_km":           {"distance_km", "距離"},
	"notes":                 {"notes", "備考"},
	"display_order":         {"display_order", "表示順"},
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(width.Fold.String(h)))
}

type columns map[string]int

func headerIndex(header []string, aliases map[string][]string) columns {
	lookup := make(map[string]string)
	for field, names := range aliases {
		for _, name := range names {
			lookup[normalizeHeader(name)] = field
		}
	}
	idx := make(columns)
	for i, h := range header {
		if field, ok := lookup[normalizeHeader(h)]; ok {
			if _, dup := idx[field]; !dup {
				idx[field] = i
			}
		}
	}
	return idx
}

func (c columns) get(row []string, field string) string {
	i, ok := c[field]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// equipmentIndex maps catalog columns, matched by key or label.
func equipmentIndex(header []string) map[model.EquipmentKey]int {
	idx := make(map[model.EquipmentKey]int)
	for i, h := range header {
		n := normalizeHeader(h)
		for _, spec := range model.EquipmentCatalog {
			if n == normalizeHeader(string(spec.Key)) || n == normalizeHeader(spec.Label) {
				idx[spec.Key] = i
			}
		}
	}
	return idx
}

// ParseWorkbook reads the venue workbook. The rooms and stations sheets are
// optional; their rows attach to venues by id.
func ParseWorkbook(r io.Reader, meta model.DatasetMetadata) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	venueSheet := SheetVenues
	if idx, _ := f.GetSheetIndex(venueSheet); idx < 0 {
		venueSheet = f.GetSheetName(0)
		if venueSheet == "" {
			return nil, ErrNoVenueSheet
		}
	}

	rows, err := f.GetRows(venueSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", venueSheet, err)
	}
	if len(rows) < 2 {
		return nil, ErrNoData
	}

	result := &Result{Dataset: &model.VenueDataset{}}
	venues, err := parseVenues(rows, &result.Summary)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]*model.Venue, len(venues))
	for i := range venues {
		byID[venues[i].ID] = &venues[i]
	}

	if idx, _ := f.GetSheetIndex(SheetRooms); idx >= 0 {
		roomRows, err := f.GetRows(SheetRooms)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", SheetRooms, err)
		}
		if err := attachRooms(roomRows, byID, &result.Summary); err != nil {
			return nil, err
		}
	}
	if idx, _ := f.GetSheetIndex(SheetStations); idx >= 0 {
		stationRows, err := f.GetRows(SheetStations)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", SheetStations, err)
		}
		if err := attachStations(stationRows, byID, &result.Summary); err != nil {
			return nil, err
		}
	}

	meta.TotalCount = len(venues)
	result.Dataset.Venues = venues
	result.Dataset.Metadata = meta

	logger.Info("Venue workbook parsed", map[string]interface{}{
		"venues":   result.Summary.Venues,
		"rooms":    result.Summary.Rooms,
		"stations": result.Summary.Stations,
		"skipped":  result.Summary.Skipped,
	})
	return result, nil
}

func rowError(sheet string, row int, err error) error {
	return fmt.Errorf("%s シート %d 行目: %w", sheet, row, err)
}

func parseVenues(rows [][]string, summary *Summary) ([]model.Venue, error) {
	cols := headerIndex(rows[0], venueColumns)
	for _, required := range []string{"id", "venue_name"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s (%s)", ErrMissingColumn, required, SheetVenues)
		}
	}
	equipment := equipmentIndex(rows[0])

	venues := make([]model.Venue, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			summary.Skipped++
			continue
		}
		summary.VenueRows++

		v, err := parseVenueRow(cols, equipment, row)
		if err != nil {
			return nil, rowError(SheetVenues, i+1, err)
		}
		venues = append(venues, *v)
	}
	if len(venues) == 0 {
		return nil, ErrNoData
	}
	summary.Venues = len(venues)
	return venues, nil
}

func parseVenueRow(cols columns, equipment map[model.EquipmentKey]int, row []string) (*model.Venue, error) {
	id, err := parseUint(cols.get(row, "id"))
	if err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	name := cols.get(row, "venue_name")
	if name == "" {
		return nil, fmt.Errorf("venue_name is empty")
	}

	v := &model.Venue{
		ID:               id,
		VenueNo:          cols.get(row, "venue_no"),
		Name:             name,
		OfficialName:     cols.get(row, "official_name"),
		Prefecture:       cols.get(row, "prefecture"),
		City:             cols.get(row, "city"),
		Address:          cols.get(row, "address"),
		PostalCode:       cols.get(row, "postal_code"),
		PhoneNumber:      optionalString(cols.get(row, "phone_number")),
		Email:            optionalString(cols.get(row, "email")),
		ContactPerson:    optionalString(cols.get(row, "contact_person")),
		OfficialURL:      optionalString(cols.get(row, "official_url")),
		ReservationURL:   optionalString(cols.get(row, "reservation_url")),
		Status:           model.VenueStatus(cols.get(row, "status")),
		Notes:            cols.get(row, "notes"),
		LastVerifiedDate: cols.get(row, "last_verified_date"),
		Tags:             splitTags(cols.get(row, "tags")),
	}

	v.Facilities = model.Facilities{
		CanEatDrink:           parseFacilityFlag(cols.get(row, "can_eat_drink")),
		CanWearShoes:          parseFacilityFlag(cols.get(row, "can_wear_shoes")),
		IsBarrierFree:         parseFacilityFlag(cols.get(row, "is_barrier_free")),
		HasElevator:           parseFacilityFlag(cols.get(row, "has_elevator")),
		IsEarthquakeResistant: parseFacilityFlag(cols.get(row, "is_earthquake_resistant")),
	}

	if v.Fees, err = parseFees(cols, row); err != nil {
		return nil, err
	}
	if v.Parking, err = parseParking(cols, row); err != nil {
		return nil, err
	}
	if v.Conditions, err = parseConditions(cols, row); err != nil {
		return nil, err
	}

	if len(equipment) > 0 {
		v.Equipment = make(model.Equipment, len(equipment))
		for key, i := range equipment {
			if i >= len(row) {
				continue
			}
			if item, ok := parseEquipmentCell(row[i]); ok {
				v.Equipment[key] = item
			}
		}
	}
	return v, nil
}

func parseFees(cols columns, row []string) (*model.Fees, error) {
	fees := &model.Fees{Notes: cols.get(row, "fee_notes")}
	targets := map[string]**int64{
		"main_venue_fee":      &fees.MainVenueFee,
		"control_room_fee":    &fees.ControlRoomFee,
		"equipment_fee":       &fees.EquipmentFee,
		"electricity_fee":     &fees.ElectricityFee,
		"air_conditioner_fee": &fees.AirConditionerFee,
		"garbage_fee":         &fees.GarbageFee,
		"meal_bring_fee":      &fees.MealBringFee,
		"estimated_total_fee": &fees.EstimatedTotalFee,
	}
	recorded := fees.Notes != ""
	for field, target := range targets {
		n, err := parseYen(cols.get(row, field))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		if n != nil {
			*target = n
			recorded = true
		}
	}
	if !recorded {
		return nil, nil
	}
	return fees, nil
}

func parseParking(cols columns, row []string) (*model.Parking, error) {
	capacity, err := parseOptionalInt(cols.get(row, "parking_capacity"))
	if err != nil {
		return nil, fmt.Errorf("parking_capacity: %w", err)
	}
	fee := cols.get(row, "parking_fee")
	nearby := cols.get(row, "parking_nearby")
	if capacity == nil && fee == "" && nearby == "" {
		return nil, nil
	}
	return &model.Parking{
		Capacity:   capacity,
		Fee:        fee,
		IsFree:     fee == "無料",
		NearbyInfo: nearby,
	}, nil
}

func parseConditions(cols columns, row []string) (*model.Conditions, error) {
	advance, err := parseOptionalInt(cols.get(row, "advance_reservation_days"))
	if err != nil {
		return nil, fmt.Errorf("advance_reservation_days: %w", err)
	}
	deadline, err := parseOptionalInt(cols.get(row, "cancellation_deadline_days"))
	if err != nil {
		return nil, fmt.Errorf("cancellation_deadline_days: %w", err)
	}
	c := &model.Conditions{
		AdvanceReservationDays:   advance,
		CancellationDeadlineDays: deadline,
		ReservationMethod:        cols.get(row, "reservation_method"),
		CancellationPolicy:       cols.get(row, "cancellation_policy"),
		PaymentTerms:             cols.get(row, "payment_terms"),
	}
	if advance == nil && deadline == nil && c.ReservationMethod == "" && c.CancellationPolicy == "" && c.PaymentTerms == "" {
		return nil, nil
	}
	return c, nil
}

func attachRooms(rows [][]string, byID map[uint]*model.Venue, summary *Summary) error {
	if len(rows) < 2 {
		return nil
	}
	cols := headerIndex(rows[0], roomColumns)
	if _, ok := cols["venue_id"]; !ok {
		return fmt.Errorf("%w: venue_id (%s)", ErrMissingColumn, SheetRooms)
	}

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		venueID, err := parseUint(cols.get(row, "venue_id"))
		if err != nil {
			return rowError(SheetRooms, i+1, fmt.Errorf("venue_id: %w", err))
		}
		venue, ok := byID[venueID]
		if !ok {
			return rowError(SheetRooms, i+1, fmt.Errorf("%w: %d", ErrUnknownVenue, venueID))
		}

		room := model.Room{
			VenueID:     venueID,
			Name:        cols.get(row, "room_name"),
			RoomType:    cols.get(row, "room_type"),
			Floor:       optionalString(cols.get(row, "floor")),
			IsDividable: parseFlag(cols.get(row, "is_dividable")),
			HasStage:    parseFlag(cols.get(row, "has_stage")),
			Notes:       cols.get(row, "notes"),
		}
		floats := map[string]**float64{
			"ceiling_height": &room.CeilingHeight,
			"floor_area":     &room.FloorArea,
			"width":          &room.Width,
			"depth":          &room.Depth,
		}
		for field, target := range floats {
			if *target, err = parseOptionalFloat(cols.get(row, field)); err != nil {
				return rowError(SheetRooms, i+1, fmt.Errorf("%s: %w", field, err))
			}
		}
		ints := map[string]**int{
			"capacity_theater": &room.CapacityTheater,
			"capacity_school":  &room.CapacitySchool,
			"capacity_banquet": &room.CapacityBanquet,
		}
		for field, target := range ints {
			if *target, err = parseOptionalInt(cols.get(row, field)); err != nil {
				return rowError(SheetRooms, i+1, fmt.Errorf("%s: %w", field, err))
			}
		}
		if room.DisplayOrder, err = parseOrder(cols.get(row, "display_order"), len(venue.Rooms)); err != nil {
			return rowError(SheetRooms, i+1, fmt.Errorf("display_order: %w", err))
		}

		venue.Rooms = append(venue.Rooms, room)
		summary.Rooms++
	}
	return nil
}

func attachStations(rows [][]string, byID map[uint]*model.Venue, summary *Summary) error {
	if len(rows) < 2 {
		return nil
	}
	cols := headerIndex(rows[0], stationColumns)
	for _, required := range []string{"venue_id", "station_name"} {
		if _, ok := cols[required]; !ok {
			return fmt.Errorf("%w: %s (%s)", ErrMissingColumn, required, SheetStations)
		}
	}

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		venueID, err := parseUint(cols.get(row, "venue_id"))
		if err != nil {
			return rowError(SheetStations, i+1, fmt.Errorf("venue_id: %w", err))
		}
		venue, ok := byID[venueID]
		if !ok {
			return rowError(SheetStations, i+1, fmt.Errorf("%w: %d", ErrUnknownVenue, venueID))
		}

		st := model.Station{
			VenueID:         venueID,
			StationName:     cols.get(row, "station_name"),
			LineName:        cols.get(row, "line_name"),
			ExitName:        optionalString(cols.get(row, "exit_name")),
			TransportMethod: model.TransportMethod(cols.get(row, "transportation_method")),
			Notes:           cols.get(row, "notes"),
		}
		ints := map[string]**int{
			"travel_time":  &st.TravelTime,
			"walking_time": &st.WalkingTime,
			"taxi_time":    &st.TaxiTime,
			"bus_time":     &st.BusTime,
		}
		for field, target := range ints {
			if *target, err = parseOptionalInt(cols.get(row, field)); err != nil {
				return rowError(SheetStations, i+1, fmt.Errorf("%s: %w", field, err))
			}
		}
		if st.DistanceKm, err = parseOptionalFloat(cols.get(row, "distance_km")); err != nil {
			return rowError(SheetStations, i+1, fmt.Errorf("distance_km: %w", err))
		}
		if st.DisplayOrder, err = parseOrder(cols.get(row, "display_order"), len(venue.Stations)); err != nil {
			return rowError(SheetStations, i+1, fmt.Errorf("display_order: %w", err))
		}

		venue.Stations = append(venue.Stations, st)
		summary.Stations++
	}
	return nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func splitTags(s string) model.TagList {
	if s == "" {
		return nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '、' || r == '，'
	})
	tags := make(model.TagList, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			tags = append(tags, f)
		}
	}
	return tags
}

// numeric strips the decorations spreadsheet users add to numbers.
func numeric(s string) string {
	s = width.Fold.String(strings.TrimSpace(s))
	return strings.NewReplacer(",", "", "円", "", "¥", "", "名", "", "分", "", "台", "", "㎡", "", "m", "").Replace(s)
}

func parseUint(s string) (uint, error) {
	n, err := strconv.ParseUint(numeric(s), 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(n), nil
}

func parseOptionalInt(s string) (*int, error) {
	s = numeric(s)
	if s == "" || s == "-" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return &n, nil
}

func parseOptionalFloat(s string) (*float64, error) {
	s = numeric(s)
	if s == "" || s == "-" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return &f, nil
}

func parseYen(s string) (*int64, error) {
	s = numeric(s)
	if s == "" || s == "-" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return &n, nil
}

func parseOrder(s string, fallback int) (int, error) {
	n, err := parseOptionalInt(s)
	if err != nil {
		return 0, err
	}
	if n == nil {
		return fallback, nil
	}
	return *n, nil
}

func parseFlag(s string) bool {
	b, _ := parseAvailability(s)
	return b == model.AvailabilityYes
}

// parseFacilityFlag keeps a blank cell unrecorded. Free text that is not a
// mark is kept as notes on an unknown entry.
func parseFacilityFlag(s string) model.FacilityItem {
	status, ok := parseAvailability(s)
	if !ok {
		return model.FacilityItem{Status: model.AvailabilityUnknown, Notes: strings.TrimSpace(s)}
	}
	return model.FacilityItem{Status: status}
}

func parseAvailability(s string) (model.Availability, bool) {
	switch strings.ToLower(width.Fold.String(strings.TrimSpace(s))) {
	case "":
		return model.AvailabilityUnknown, false
	case "○", "〇", "◯", "あり", "有", "可", "yes", "y", "true", "1":
		return model.AvailabilityYes, true
	case "×", "x", "なし", "無", "不可", "no", "n", "false", "0":
		return model.AvailabilityNo, true
	case "?", "？", "不明", "unknown", "要確認":
		return model.AvailabilityUnknown, true
	}
	return model.AvailabilityUnknown, false
}

// parseEquipmentCell accepts a flag or a quantity ("3" means three units).
func parseEquipmentCell(s string) (model.FacilityItem, bool) {
	if status, ok := parseAvailability(s); ok {
		if status == model.AvailabilityUnknown {
			return model.FacilityItem{}, false
		}
		return model.FacilityItem{Status: status}, true
	}
	n, err := parseOptionalInt(s)
	if err != nil || n == nil {
		return model.FacilityItem{Status: model.AvailabilityYes, Notes: strings.TrimSpace(s)}, strings.TrimSpace(s) != ""
	}
	if *n == 0 {
		return model.FacilityItem{Status: model.AvailabilityNo}, true
	}
	return model.FacilityItem{Status: model.AvailabilityYes, Quantity: n}, true
}
