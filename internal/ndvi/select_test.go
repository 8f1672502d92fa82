package ndvi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func cc(v float64) *float64 { return &v }

func TestSelectLeastCloudy(t *testing.T) {
	tests := []struct {
		name   string
		scenes []Scene
		wantID string
		wantOK bool
	}{
		{name: "empty", scenes: nil, wantOK: false},
		{
			name: "minimum wins",
			scenes: []Scene{
				{ID: "a", CloudCover: cc(12.5)},
				{ID: "b", CloudCover: cc(3)},
				{ID: "c", CloudCover: cc(7)},
			},
			wantID: "b", wantOK: true,
		},
		{
			name: "first of equal values wins",
			scenes: []Scene{
				{ID: "a", CloudCover: cc(5)},
				{ID: "b", CloudCover: cc(5)},
				{ID: "c", CloudCover: cc(5)},
			},
			wantID: "a", wantOK: true,
		},
		{
			name: "first minimum among ties after larger",
			scenes: []Scene{
				{ID: "a", CloudCover: cc(9)},
				{ID: "b", CloudCover: cc(1)},
				{ID: "c", CloudCover: cc(1)},
			},
			wantID: "b", wantOK: true,
		},
		{
			name: "missing and NaN cloud cover are skipped",
			scenes: []Scene{
				{ID: "a"},
				{ID: "b", CloudCover: cc(math.NaN())},
				{ID: "c", CloudCover: cc(18)},
			},
			wantID: "c", wantOK: true,
		},
		{
			name: "scenes at or above the bound are ignored",
			scenes: []Scene{
				{ID: "a", CloudCover: cc(25)},
				{ID: "b", CloudCover: cc(20)},
				{ID: "c", CloudCover: cc(19.5)},
			},
			wantID: "c", wantOK: true,
		},
		{
			name:   "everything above the bound",
			scenes: []Scene{{ID: "a", CloudCover: cc(25)}, {ID: "b", CloudCover: cc(40)}},
			wantOK: false,
		},
		{
			name:   "no eligible scene",
			scenes: []Scene{{ID: "a"}, {ID: "b"}},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectLeastCloudy(tt.scenes, 20)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, got.ID)
			}
		})
	}
}

func TestSelectLeastCloudy_MinimumOverAll(t *testing.T) {
	values := []float64{17.2, 4.4, 19.9, 0.01, 8, 0.01, 11}
	scenes := make([]Scene, len(values))
	for i, v := range values {
		scenes[i] = Scene{ID: string(rune('a' + i)), CloudCover: cc(v)}
	}

	got, ok := SelectLeastCloudy(scenes, 20)
	assert.True(t, ok)
	for _, s := range scenes {
		assert.LessOrEqual(t, *got.CloudCover, *s.CloudCover)
	}
	assert.Equal(t, "d", got.ID)
}

func TestSelectLeastCloudy_NoBound(t *testing.T) {
	got, ok := SelectLeastCloudy([]Scene{{ID: "a", CloudCover: cc(80)}, {ID: "b", CloudCover: cc(60)}}, 0)
	assert.True(t, ok)
	assert.Equal(t, "b", got.ID)
}
