package service

import (
	"encoding/json"
	"testing"

	"github.com/ikkim/venue-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findRow(t *testing.T, m *ComparisonMatrix, label string) MatrixRow {
	t.Helper()
	for _, row := range m.Rows {
		if row.Label == label {
			return row
		}
	}
	t.Fatalf("row %q not found", label)
	return MatrixRow{}
}

func TestBuildComparisonMatrix_MissingFeesAreNotAvailable(t *testing.T) {
	venues := testVenues()
	m := BuildComparisonMatrix([]model.Venue{venues[0], venues[2]})

	row := findRow(t, m, "会場使用料")
	assert.Equal(t, CategoryFees, row.Category)
	require.Len(t, row.Values, 2)

	assert.Equal(t, CellNumber, row.Values[0].Kind)
	require.NotNil(t, row.Values[0].Number)
	assert.Equal(t, float64(1200000), *row.Values[0].Number)
	assert.Equal(t, "1,200,000円", row.Values[0].Display)

	assert.True(t, row.Values[1].IsNA())
	assert.Nil(t, row.Values[1].Number)
	assert.Equal(t, NotAvailableLabel, row.Values[1].Display)
}

func TestBuildComparisonMatrix_ZeroIsNotMissing(t *testing.T) {
	m := BuildComparisonMatrix([]model.Venue{
		{ID: 1, Name: "a", Fees: &model.Fees{MainVenueFee: int64Ptr(0)}},
		{ID: 2, Name: "b", Fees: &model.Fees{}},
	})

	row := findRow(t, m, "会場使用料")
	assert.Equal(t, CellNumber, row.Values[0].Kind)
	assert.Equal(t, "0円", row.Values[0].Display)
	assert.True(t, row.Values[1].IsNA())
}

func TestBuildComparisonMatrix_Shape(t *testing.T) {
	venues := testVenues()
	m := BuildComparisonMatrix(venues)

	assert.Equal(t, model.RentalPeriodLabel, m.RentalPeriod)
	assert.Equal(t, []MatrixColumn{
		{VenueID: 1, Name: "東京国際フォーラム"},
		{VenueID: 2, Name: "大阪府立国際会議場"},
		{VenueID: 3, Name: "福岡市民会館"},
		{VenueID: 4, Name: "ＮＯＣ会議室"},
	}, m.Columns)

	order := make(map[string]int, len(MatrixCategories))
	for i, c := range MatrixCategories {
		order[c] = i
	}
	last := 0
	for _, row := range m.Rows {
		assert.Len(t, row.Values, len(venues), row.Label)
		pos, ok := order[row.Category]
		require.True(t, ok, "unknown category %q", row.Category)
		assert.GreaterOrEqual(t, pos, last, "row %q out of category order", row.Label)
		last = pos
	}

	equipmentRows := 0
	for _, row := range m.Rows {
		if row.Category == CategoryEquipment {
			equipmentRows++
		}
	}
	assert.Equal(t, len(model.EquipmentCatalog), equipmentRows)
}

func TestBuildComparisonMatrix_Cells(t *testing.T) {
	venues := testVenues()
	m := BuildComparisonMatrix(venues)

	tests := []struct {
		label string
		want  []string
	}{
		{"電話番号", []string{"03-5221-9000", NotAvailableLabel, NotAvailableLabel, NotAvailableLabel}},
		{"天井高", []string{"6.5m", NotAvailableLabel, NotAvailableLabel, NotAvailableLabel}},
		{"控室数", []string{"1室", "0室", "0室", "0室"}},
		{"シアター形式", []string{"1,400名", "180名", "40名", "100名"}},
		{"最大収容人数", []string{"1,400名", "180名", "40名", "100名"}},
		{"光熱費・空調・ゴミ処理", []string{"30,000円", NotAvailableLabel, NotAvailableLabel, NotAvailableLabel}},
		{"概算合計", []string{"1,290,000円", "45,000円", NotAvailableLabel, "30,000円"}},
		{"プロジェクター", []string{"○（2）", NotAvailableLabel, NotAvailableLabel, NotAvailableLabel}},
		{"ホワイトボード", []string{NotAvailableLabel, "×", NotAvailableLabel, NotAvailableLabel}},
		{"スクリーン", []string{"○", NotAvailableLabel, NotAvailableLabel, NotAvailableLabel}},
		{"飲食", []string{"○", "×", NotAvailableLabel, NotAvailableLabel}},
		{"土足", []string{NotAvailableLabel, NotAvailableLabel, "○", NotAvailableLabel}},
		{"最寄り駅", []string{"JR山手線 有楽町", "京阪中之島線 中之島", "空港線 天神", NotAvailableLabel}},
		{"所要時間", []string{"徒歩1分", "徒歩5分", "バス10分", NotAvailableLabel}},
		{"駐車場", []string{"300台", NotAvailableLabel, "20台", NotAvailableLabel}},
		{"駐車料金", []string{"30分300円", NotAvailableLabel, "無料", NotAvailableLabel}},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			row := findRow(t, m, tt.label)
			got := make([]string, 0, len(row.Values))
			for _, cell := range row.Values {
				got = append(got, cell.Display)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildComparisonMatrix_UnrecordedFacilitiesAreNotAvailable(t *testing.T) {
	var decoded model.Venue
	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"venue_name":"B","prefecture":"東京都"}`), &decoded))

	partial := model.Venue{ID: 3, Name: "C"}
	require.NoError(t, json.Unmarshal([]byte(`{"can_eat_drink":false,"is_barrier_free":null}`), &partial.Facilities))

	m := BuildComparisonMatrix([]model.Venue{decoded, partial})

	for _, label := range []string{"土足", "バリアフリー", "エレベーター", "耐震基準"} {
		row := findRow(t, m, label)
		for i, cell := range row.Values {
			assert.True(t, cell.IsNA(), "%s column %d", label, i)
			assert.Nil(t, cell.Flag, "%s column %d", label, i)
		}
	}

	food := findRow(t, m, "飲食")
	assert.True(t, food.Values[0].IsNA())
	assert.Equal(t, CellFlag, food.Values[1].Kind)
	require.NotNil(t, food.Values[1].Flag)
	assert.False(t, *food.Values[1].Flag)
}

func TestBuildComparisonMatrix_Empty(t *testing.T) {
	m := BuildComparisonMatrix(nil)

	assert.Empty(t, m.Columns)
	assert.NotEmpty(t, m.Rows)
	for _, row := range m.Rows {
		assert.Empty(t, row.Values)
	}
}
