package layout

import "voicecal/internal/model"

// AssignLayers sets Layer on placements that all belong to the same row.
// Placements are processed in slice order and each takes the lowest layer
// on which no earlier placement overlaps its column range. This is a
// first-fit heuristic: it does not minimize the number of layers globally,
// and ties are broken purely by input order. No placement is rejected.
func AssignLayers(placements []model.EventPlacement) {
	for i := range placements {
		layer := 0
		for hasConflict(placements[:i], layer, placements[i]) {
			layer++
		}
		placements[i].Layer = layer
	}
}

func hasConflict(assigned []model.EventPlacement, layer int, p model.EventPlacement) bool {
	for _, a := range assigned {
		if a.Layer != layer {
			continue
		}
		if !(a.EndCol() < p.StartCol || a.StartCol > p.EndCol()) {
			return true
		}
	}
	return false
}

// MaxLayer returns the highest layer used in row, or -1 if the row has no
// placements.
func MaxLayer(placements []model.EventPlacement, row int) int {
	maxLayer := -1
	for _, p := range placements {
		if p.Row == row && p.Layer > maxLayer {
			maxLayer = p.Layer
		}
	}
	return maxLayer
}
