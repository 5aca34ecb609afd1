package service

import (
	"strconv"

	"github.com/ikkim/venue-backend/internal/app/model"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CellKind 比較表セルの種類
type CellKind string

const (
	CellText   CellKind = "text"
	CellNumber CellKind = "number"
	CellFlag   CellKind = "flag"
	CellNA     CellKind = "na"
)

// NotAvailableLabel marks a value that was never recorded.
const NotAvailableLabel = "情報なし"

// MatrixCell is one venue's value for one row. Kind NA is distinct from a
// false flag and from a zero number.
type MatrixCell struct {
	Kind    CellKind `json:"kind"`
	Text    string   `json:"text,omitempty"`
	Number  *float64 `json:"number,omitempty"`
	Unit    string   `json:"unit,omitempty"`
	Flag    *bool    `json:"flag,omitempty"`
	Display string   `json:"display"`
}

func (c MatrixCell) IsNA() bool {
	return c.Kind == CellNA
}

type MatrixColumn struct {
	VenueID uint   `json:"venue_id"`
	Name    string `json:"venue_name"`
}

type MatrixRow struct {
	Category string       `json:"category"`
	Label    string       `json:"label"`
	Values   []MatrixCell `json:"values"`
}

// ComparisonMatrix is row-major: every row has one value per column, in
// column order.
type ComparisonMatrix struct {
	RentalPeriod string         `json:"rental_period"`
	Columns      []MatrixColumn `json:"columns"`
	Rows         []MatrixRow    `json:"rows"`
}

const (
	CategoryBasic      = "基本情報"
	CategorySpec       = "仕様"
	CategoryCapacity   = "レイアウト別収容人数"
	CategoryFees       = "料金（" + model.RentalPeriodLabel + "）"
	CategoryEquipment  = "設備"
	CategoryConditions = "利用条件"
	CategoryAccess     = "アクセス"
)

// MatrixCategories is the fixed category order of every matrix.
var MatrixCategories = []string{
	CategoryBasic,
	CategorySpec,
	CategoryCapacity,
	CategoryFees,
	CategoryEquipment,
	CategoryConditions,
	CategoryAccess,
}

var numberPrinter = message.NewPrinter(language.Japanese)

func naCell() MatrixCell {
	return MatrixCell{Kind: CellNA, Display: NotAvailableLabel}
}

func textCell(s string) MatrixCell {
	if s == "" {
		return naCell()
	}
	return MatrixCell{Kind: CellText, Text: s, Display: s}
}

func optionalTextCell(s *string) MatrixCell {
	if s == nil {
		return naCell()
	}
	return textCell(*s)
}

func intCell(n *int, unit string) MatrixCell {
	if n == nil {
		return naCell()
	}
	return int64Cell(int64(*n), unit)
}

func int64Cell(n int64, unit string) MatrixCell {
	f := float64(n)
	return MatrixCell{
		Kind:    CellNumber,
		Number:  &f,
		Unit:    unit,
		Display: numberPrinter.Sprintf("%d", n) + unit,
	}
}

func feeCell(n *int64) MatrixCell {
	if n == nil {
		return naCell()
	}
	return int64Cell(*n, "円")
}

func floatCell(f *float64, unit string) MatrixCell {
	if f == nil {
		return naCell()
	}
	v := *f
	return MatrixCell{
		Kind:    CellNumber,
		Number:  &v,
		Unit:    unit,
		Display: strconv.FormatFloat(v, 'f', -1, 64) + unit,
	}
}

func flagCell(b bool) MatrixCell {
	display := "×"
	if b {
		display = "○"
	}
	return MatrixCell{Kind: CellFlag, Flag: &b, Display: display}
}

// facilityCell renders an unrecorded item as NA, never as a false flag.
func facilityCell(item model.FacilityItem) MatrixCell {
	return equipmentCell(item, item.Recorded())
}

func equipmentCell(item model.FacilityItem, recorded bool) MatrixCell {
	if !recorded {
		return naCell()
	}
	cell := flagCell(item.Status == model.AvailabilityYes)
	if item.Quantity != nil && item.Status == model.AvailabilityYes {
		q := float64(*item.Quantity)
		cell.Number = &q
		cell.Display = numberPrinter.Sprintf("○（%d）", *item.Quantity)
	}
	cell.Text = item.Notes
	return cell
}

type matrixRowSpec struct {
	category string
	label    string
	cell     func(v *model.Venue) MatrixCell
}

func roomCell(fn func(r *model.Room) MatrixCell) func(v *model.Venue) MatrixCell {
	return func(v *model.Venue) MatrixCell {
		room := v.MainRoom()
		if room == nil {
			return naCell()
		}
		return fn(room)
	}
}

func feesCell(fn func(f *model.Fees) MatrixCell) func(v *model.Venue) MatrixCell {
	return func(v *model.Venue) MatrixCell {
		if v.Fees == nil {
			return naCell()
		}
		return fn(v.Fees)
	}
}

func conditionsCell(fn func(c *model.Conditions) MatrixCell) func(v *model.Venue) MatrixCell {
	return func(v *model.Venue) MatrixCell {
		if v.Conditions == nil {
			return naCell()
		}
		return fn(v.Conditions)
	}
}

func matrixRowSpecs() []matrixRowSpec {
	specs := []matrixRowSpec{
		{CategoryBasic, "会場名", func(v *model.Venue) MatrixCell { return textCell(v.Name) }},
		{CategoryBasic, "都道府県", func(v *model.Venue) MatrixCell { return textCell(v.Prefecture) }},
		{CategoryBasic, "市区町村", func(v *model.Venue) MatrixCell { return textCell(v.City) }},
		{CategoryBasic, "住所", func(v *model.Venue) MatrixCell { return textCell(v.Address) }},
		{CategoryBasic, "電話番号", func(v *model.Venue) MatrixCell { return optionalTextCell(v.PhoneNumber) }},
		{CategoryBasic, "担当者", func(v *model.Venue) MatrixCell { return optionalTextCell(v.ContactPerson) }},
		{CategoryBasic, "公式サイト", func(v *model.Venue) MatrixCell { return optionalTextCell(v.OfficialURL) }},
		{CategoryBasic, "最終確認日", func(v *model.Venue) MatrixCell { return textCell(v.LastVerifiedDate) }},

		{CategorySpec, "メイン会場", roomCell(func(r *model.Room) MatrixCell { return textCell(r.Name) })},
		{CategorySpec, "階数", roomCell(func(r *model.Room) MatrixCell { return optionalTextCell(r.Floor) })},
		{CategorySpec, "天井高", roomCell(func(r *model.Room) MatrixCell { return floatCell(r.CeilingHeight, "m") })},
		{CategorySpec, "面積", roomCell(func(r *model.Room) MatrixCell { return floatCell(r.FloorArea, "㎡") })},
		{CategorySpec, "幅", roomCell(func(r *model.Room) MatrixCell { return floatCell(r.Width, "m") })},
		{CategorySpec, "奥行", roomCell(func(r *model.Room) MatrixCell { return floatCell(r.Depth, "m") })},
		{CategorySpec, "分割利用", roomCell(func(r *model.Room) MatrixCell { return flagCell(r.IsDividable) })},
		{CategorySpec, "ステージ", roomCell(func(r *model.Room) MatrixCell { return flagCell(r.HasStage) })},
		{CategorySpec, "控室数", func(v *model.Venue) MatrixCell {
			if len(v.Rooms) == 0 {
				return naCell()
			}
			n := v.ControlRoomCount()
			return intCell(&n, "室")
		}},

		{CategoryCapacity, "シアター形式", roomCell(func(r *model.Room) MatrixCell { return intCell(r.CapacityTheater, "名") })},
		{CategoryCapacity, "スクール形式", roomCell(func(r *model.Room) MatrixCell { return intCell(r.CapacitySchool, "名") })},
		{CategoryCapacity, "宴会形式", roomCell(func(r *model.Room) MatrixCell { return intCell(r.CapacityBanquet, "名") })},
		{CategoryCapacity, "最大収容人数", func(v *model.Venue) MatrixCell {
			for i := range v.Rooms {
				if v.Rooms[i].CapacityTheater != nil {
					n := v.MaxCapacity()
					return intCell(&n, "名")
				}
			}
			return naCell()
		}},

		{CategoryFees, "会場使用料", feesCell(func(f *model.Fees) MatrixCell { return feeCell(f.MainVenueFee) })},
		{CategoryFees, "控室使用料", feesCell(func(f *model.Fees) MatrixCell { return feeCell(f.ControlRoomFee) })},
		{CategoryFees, "備品使用料", feesCell(func(f *model.Fees) MatrixCell { return feeCell(f.EquipmentFee) })},
		{CategoryFees, "光熱費・空調・ゴミ処理", feesCell(func(f *model.Fees) MatrixCell {
			total, ok := f.UtilitiesFee()
			if !ok {
				return naCell()
			}
			return feeCell(&total)
		})},
		{CategoryFees, "飲食持込料", feesCell(func(f *model.Fees) MatrixCell { return feeCell(f.MealBringFee) })},
		{CategoryFees, "概算合計", feesCell(func(f *model.Fees) MatrixCell { return feeCell(f.EstimatedTotalFee) })},
		{CategoryFees, "料金備考", feesCell(func(f *model.Fees) MatrixCell { return textCell(f.Notes) })},
	}

	for _, item := range model.EquipmentCatalog {
		key := item.Key
		specs = append(specs, matrixRowSpec{CategoryEquipment, item.Label, func(v *model.Venue) MatrixCell {
			entry, ok := v.Equipment.Lookup(key)
			return equipmentCell(entry, ok)
		}})
	}

	specs = append(specs,
		matrixRowSpec{CategoryConditions, "飲食", func(v *model.Venue) MatrixCell { return facilityCell(v.Facilities.CanEatDrink) }},
		matrixRowSpec{CategoryConditions, "土足", func(v *model.Venue) MatrixCell { return facilityCell(v.Facilities.CanWearShoes) }},
		matrixRowSpec{CategoryConditions, "バリアフリー", func(v *model.Venue) MatrixCell { return facilityCell(v.Facilities.IsBarrierFree) }},
		matrixRowSpec{CategoryConditions, "エレベーター", func(v *model.Venue) MatrixCell { return facilityCell(v.Facilities.HasElevator) }},
		matrixRowSpec{CategoryConditions, "耐震基準", func(v *model.Venue) MatrixCell { return facilityCell(v.Facilities.IsEarthquakeResistant) }},
		matrixRowSpec{CategoryConditions, "予約受付（日前）", conditionsCell(func(c *model.Conditions) MatrixCell {
			return intCell(c.AdvanceReservationDays, "日前")
		})},
		matrixRowSpec{CategoryConditions, "キャンセル期限", conditionsCell(func(c *model.Conditions) MatrixCell {
			return intCell(c.CancellationDeadlineDays, "日前")
		})},
		matrixRowSpec{CategoryConditions, "予約方法", conditionsCell(func(c *model.Conditions) MatrixCell { return textCell(c.ReservationMethod) })},
		matrixRowSpec{CategoryConditions, "キャンセルポリシー", conditionsCell(func(c *model.Conditions) MatrixCell { return textCell(c.CancellationPolicy) })},
		matrixRowSpec{CategoryConditions, "支払条件", conditionsCell(func(c *model.Conditions) MatrixCell { return textCell(c.PaymentTerms) })},

		matrixRowSpec{CategoryAccess, "最寄り駅", func(v *model.Venue) MatrixCell {
			st := v.NearestStation()
			if st == nil {
				return naCell()
			}
			if st.LineName == "" {
				return textCell(st.StationName)
			}
			return textCell(st.LineName + " " + st.StationName)
		}},
		matrixRowSpec{CategoryAccess, "所要時間", func(v *model.Venue) MatrixCell {
			st := v.NearestStation()
			if st == nil {
				return naCell()
			}
			method, minutes, ok := st.Access()
			if !ok {
				return naCell()
			}
			cell := intCell(&minutes, "分")
			cell.Text = string(method)
			cell.Display = string(method) + cell.Display
			return cell
		}},
		matrixRowSpec{CategoryAccess, "駐車場", func(v *model.Venue) MatrixCell {
			if v.Parking == nil {
				return naCell()
			}
			if v.Parking.Capacity == nil {
				return textCell(v.Parking.NearbyInfo)
			}
			return intCell(v.Parking.Capacity, "台")
		}},
		matrixRowSpec{CategoryAccess, "駐車料金", func(v *model.Venue) MatrixCell {
			if v.Parking == nil {
				return naCell()
			}
			if v.Parking.IsFree {
				return textCell("無料")
			}
			return textCell(v.Parking.Fee)
		}},
	)
	return specs
}

// BuildComparisonMatrix lays the venues out as columns in the given order.
// Rows follow MatrixCategories; equipment rows follow the catalog.
func BuildComparisonMatrix(venues []model.Venue) *ComparisonMatrix {
	m := &ComparisonMatrix{
		RentalPeriod: model.RentalPeriodLabel,
		Columns:      make([]MatrixColumn, 0, len(venues)),
	}
	for i := range venues {
		m.Columns = append(m.Columns, MatrixColumn{VenueID: venues[i].ID, Name: venues[i].Name})
	}

	specs := matrixRowSpecs()
	m.Rows = make([]MatrixRow, 0, len(specs))
	for _, spec := range specs {
		row := MatrixRow{
			Category: spec.category,
			Label:    spec.label,
			Values:   make([]MatrixCell, 0, len(venues)),
		}
		for i := range venues {
			row.Values = append(row.Values, spec.cell(&venues[i]))
		}
		m.Rows = append(m.Rows, row)
	}
	return m
}
