package service

import "testing"

func TestMeanScore(t *testing.T) {
	tests := []struct {
		name   string
		scores map[string]float64
		want   float64
	}{
		{"two criteria", map[string]float64{"a": 80, "b": 90}, 85.00},
		{"single criterion", map[string]float64{"interview": 73.5}, 73.5},
		{"repeating decimal rounds", map[string]float64{"a": 70, "b": 80, "c": 85}, 78.33},
		{"rounds up", map[string]float64{"a": 33, "b": 33, "c": 34}, 33.33},
		{"all zero", map[string]float64{"a": 0, "b": 0}, 0},
		{"full marks", map[string]float64{"a": 100, "b": 100, "c": 100}, 100},
		{"empty map", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MeanScore(tt.scores); got != tt.want {
				t.Errorf("MeanScore(%v) = %v, want %v", tt.scores, got, tt.want)
			}
		})
	}
}
