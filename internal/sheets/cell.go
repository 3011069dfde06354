package sheets

import (
	"fmt"
	"strconv"
	"strings"
)

// cell is a zero-based grid position.
type cell struct {
	Row int64
	Col int64
}

// parseA1 turns "B6" or "aa10" into a zero-based position.
func parseA1(ref string) (cell, error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	i := 0
	var col int64
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		col = col*26 + int64(ref[i]-'A'+1)
		i++
	}
	if i == 0 || i == len(ref) {
		return cell{}, fmt.Errorf("invalid cell %q", ref)
	}
	row, err := strconv.ParseInt(ref[i:], 10, 64)
	if err != nil || row < 1 {
		return cell{}, fmt.Errorf("invalid cell %q", ref)
	}
	return cell{Row: row - 1, Col: col - 1}, nil
}

// parseRoomCells maps room ids to cells, e.g. {"1": "B6"}.
func parseRoomCells(raw map[string]string) (map[int64]cell, error) {
	out := make(map[int64]cell, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseInt(strings.TrimSpace(k), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid room id %q in cell map", k)
		}
		c, err := parseA1(v)
		if err != nil {
			return nil, fmt.Errorf("room %d: %w", id, err)
		}
		out[id] = c
	}
	return out, nil
}
