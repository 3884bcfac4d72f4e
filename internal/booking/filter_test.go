package booking

import (
	"testing"
	"time"

	"holiday-booking/internal/model"
)

func stay(id, start, end string) model.Booking {
	s, _ := time.Parse(time.DateOnly, start)
	e, _ := time.Parse(time.DateOnly, end)
	return model.Booking{ID: id, StartDate: s, EndDate: e, Status: model.StatusApproved}
}

func ids(bs []model.Booking) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterContained(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []model.Booking
		want  []string
	}{
		{
			name:  "inner booking dropped",
			input: []model.Booking{stay("A", "2024-01-01", "2024-01-10"), stay("B", "2024-01-03", "2024-01-06")},
			want:  []string{"A"},
		},
		{
			name:  "inner listed first",
			input: []model.Booking{stay("B", "2024-01-03", "2024-01-06"), stay("A", "2024-01-01", "2024-01-10")},
			want:  []string{"A"},
		},
		{
			name:  "partial overlap kept",
			input: []model.Booking{stay("A", "2024-01-01", "2024-01-10"), stay("B", "2024-01-08", "2024-01-12")},
			want:  []string{"A", "B"},
		},
		{
			name:  "shared boundary inside",
			input: []model.Booking{stay("A", "2024-01-01", "2024-01-10"), stay("B", "2024-01-01", "2024-01-04")},
			want:  []string{"A"},
		},
		{
			name:  "identical ranges keep one",
			input: []model.Booking{stay("A", "2024-01-01", "2024-01-05"), stay("B", "2024-01-01", "2024-01-05")},
			want:  []string{"B"},
		},
		{
			name: "nested chain",
			input: []model.Booking{
				stay("C", "2024-01-04", "2024-01-05"),
				stay("A", "2024-01-01", "2024-01-10"),
				stay("B", "2024-01-02", "2024-01-08"),
				stay("D", "2024-02-01", "2024-02-03"),
			},
			want: []string{"A", "D"},
		},
		{
			name:  "empty",
			input: nil,
			want:  []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterContained(tt.input)
			if !equalIDs(ids(got), tt.want) {
				t.Fatalf("FilterContained() = %v, want %v", ids(got), tt.want)
			}
			again := FilterContained(got)
			if !equalIDs(ids(again), ids(got)) {
				t.Errorf("not idempotent: %v then %v", ids(got), ids(again))
			}
		})
	}
}
