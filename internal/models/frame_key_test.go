package models

import (
	"sort"
	"testing"
)

func TestParseFrameKey(t *testing.T) {
	tests := []struct {
		in      string
		want    FrameKey
		wantErr bool
	}{
		{in: "frame_12", want: FrameKey{FrameID: 12, Side: SideLeft}},
		{in: "frame_12_left", want: FrameKey{FrameID: 12, Side: SideLeft}},
		{in: "frame_12_right", want: FrameKey{FrameID: 12, Side: SideRight}},
		{in: "frame_0_left", wantErr: true},
		{in: "frame_12_up", wantErr: true},
		{in: "frame__left", wantErr: true},
		{in: "xframe_12", wantErr: true},
		{in: "frame_12_right_extra", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFrameKey(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %+v", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFrameKeyWire(t *testing.T) {
	k := FrameKey{FrameID: 5, Side: SideRight}
	if got := k.Wire(true); got != "frame_5_right" {
		t.Errorf("paired wire = %q", got)
	}
	if got := k.Wire(false); got != "frame_5" {
		t.Errorf("unpaired wire = %q", got)
	}
	back, err := ParseFrameKey(k.String())
	if err != nil || back != k {
		t.Errorf("round trip = %+v, %v", back, err)
	}
}

func TestFrameNumberOrdering(t *testing.T) {
	names := []string{"A_B_150_1", "A_B_3_1", "A_B_27_1"}
	sort.SliceStable(names, func(i, j int) bool {
		return FrameNumber(names[i]) < FrameNumber(names[j])
	})

	want := []int{3, 27, 150}
	for i, name := range names {
		if FrameNumber(name) != want[i] {
			t.Errorf("position %d: got %s, want number %d", i, name, want[i])
		}
	}

	if FrameNumber("broken") != 0 || FrameNumber("a_b_x_1") != 0 {
		t.Error("unparseable names must yield 0")
	}
}
