package service

import (
	"encoding/json"
	"fmt"
)

// MaxComparisonVenues 比較できる会場の上限
const MaxComparisonVenues = 5

// Selection is an ordered set of venue IDs chosen for comparison. The zero
// value is an empty selection. Operations return a new Selection.
type Selection struct {
	ids []uint
}

// NewSelection builds a selection from ids, dropping repeats. More than
// MaxComparisonVenues distinct ids is ErrSelectionFull.
func NewSelection(ids ...uint) (Selection, error) {
	out := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) > MaxComparisonVenues {
		return Selection{}, fmt.Errorf("%w: %d venues selected", ErrSelectionFull, len(out))
	}
	return Selection{ids: out}, nil
}

func (s Selection) IDs() []uint {
	out := make([]uint, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s Selection) Len() int {
	return len(s.ids)
}

func (s Selection) Contains(id uint) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Toggle removes id when present, otherwise appends it. A full selection
// returns ErrSelectionFull together with the unchanged selection.
func (s Selection) Toggle(id uint) (Selection, error) {
	if s.Contains(id) {
		out := make([]uint, 0, len(s.ids)-1)
		for _, v := range s.ids {
			if v != id {
				out = append(out, v)
			}
		}
		return Selection{ids: out}, nil
	}
	if len(s.ids) >= MaxComparisonVenues {
		return s, ErrSelectionFull
	}
	out := make([]uint, len(s.ids), len(s.ids)+1)
	copy(out, s.ids)
	return Selection{ids: append(out, id)}, nil
}

func (s Selection) Clear() Selection {
	return Selection{}
}

func (s Selection) MarshalJSON() ([]byte, error) {
	if s.ids == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.ids)
}

func (s *Selection) UnmarshalJSON(data []byte) error {
	var ids []uint
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	sel, err := NewSelection(ids...)
	if err != nil {
		return err
	}
	*s = sel
	return nil
}
