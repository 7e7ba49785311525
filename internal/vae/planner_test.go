package vae

import "testing"

// TestPlanDims checks the width formulas against hand-computed values.
func TestPlanDims(t *testing.T) {
	tests := []struct {
		originalDim, latentDim int
		d1, d2, d3             int
	}{
		{50, 3, 65, 16, 5},
		{20, 2, 29, 8, 3},
		{8, 2, 15, 7, 3},
		{100, 4, 125, 28, 10},
	}

	for _, tt := range tests {
		d1, d2, d3 := PlanDims(tt.originalDim, tt.latentDim)
		if d1 != tt.d1 || d2 != tt.d2 || d3 != tt.d3 {
			t.Errorf("PlanDims(%d, %d) = (%d, %d, %d), want (%d, %d, %d)",
				tt.originalDim, tt.latentDim, d1, d2, d3, tt.d1, tt.d2, tt.d3)
		}
	}
}

// TestPlanDimsFunnel verifies the monotone taper for sane inputs.
func TestPlanDimsFunnel(t *testing.T) {
	for od := 8; od <= 200; od += 8 {
		for ld := 2; ld <= 6; ld++ {
			d1, d2, d3 := PlanDims(od, ld)
			if !(d1 >= d2 && d2 >= d3 && d3 >= ld) {
				t.Errorf("PlanDims(%d, %d) = (%d, %d, %d): not a funnel down to %d",
					od, ld, d1, d2, d3, ld)
			}
		}
	}
}

// TestPlanDimsDeterministic verifies repeated calls agree.
func TestPlanDimsDeterministic(t *testing.T) {
	a1, a2, a3 := PlanDims(37, 3)
	b1, b2, b3 := PlanDims(37, 3)
	if a1 != b1 || a2 != b2 || a3 != b3 {
		t.Errorf("PlanDims not deterministic: (%d,%d,%d) vs (%d,%d,%d)", a1, a2, a3, b1, b2, b3)
	}
}
