package tags

import "testing"

func TestSplitIndexTotal(t *testing.T) {
	tests := []struct {
		value   string
		index   int
		total   int
		wantErr bool
	}{
		{value: "7", index: 7},
		{value: "7/12", index: 7, total: 12},
		{value: " 3 / 10 ", index: 3, total: 10},
		{value: "01", index: 1},
		{value: "a", wantErr: true},
		{value: "7/x", wantErr: true},
		{value: "", wantErr: true},
	}
	for _, tt := range tests {
		index, total, err := splitIndexTotal(tt.value)
		if tt.wantErr {
			if err == nil {
				t.Errorf("splitIndexTotal(%q): expected error", tt.value)
			}
			continue
		}
		if err != nil {
			t.Errorf("splitIndexTotal(%q): %v", tt.value, err)
			continue
		}
		if index != tt.index || total != tt.total {
			t.Errorf("splitIndexTotal(%q) = (%d, %d), want (%d, %d)",
				tt.value, index, total, tt.index, tt.total)
		}
	}
}

func TestApplyNumbering(t *testing.T) {
	copier := NewCopier(nil)

	src := map[string][]string{
		"TRACKNUMBER": {"7/12"},
		"DISCNUMBER":  {"1"},
		"DISCTOTAL":   {"2"},
	}
	out := make(map[string][]string)
	copier.applyNumbering(out, src, "TRACKNUMBER", "TRACKTOTAL")
	copier.applyNumbering(out, src, "DISCNUMBER", "DISCTOTAL")

	if got := out["TRACKNUMBER"]; len(got) != 1 || got[0] != "7" {
		t.Errorf("TRACKNUMBER = %v", got)
	}
	if got := out["TRACKTOTAL"]; len(got) != 1 || got[0] != "12" {
		t.Errorf("TRACKTOTAL = %v", got)
	}
	// A bare disc number keeps the standalone total from the source.
	if got := out["DISCNUMBER"]; len(got) != 1 || got[0] != "1" {
		t.Errorf("DISCNUMBER = %v", got)
	}
	if got := out["DISCTOTAL"]; len(got) != 1 || got[0] != "2" {
		t.Errorf("DISCTOTAL = %v", got)
	}
}

func TestApplyNumberingMalformed(t *testing.T) {
	copier := NewCopier(nil)
	out := make(map[string][]string)
	copier.applyNumbering(out, map[string][]string{"TRACKNUMBER": {"A1"}}, "TRACKNUMBER", "TRACKTOTAL")
	if len(out) != 0 {
		t.Errorf("malformed numbering should be dropped, got %v", out)
	}
}

func TestNonEmptyValues(t *testing.T) {
	got := nonEmptyValues([]string{" ", "Album Artist", "", " x "})
	if len(got) != 2 || got[0] != "Album Artist" || got[1] != "x" {
		t.Errorf("nonEmptyValues = %v", got)
	}
	if got := nonEmptyValues(nil); len(got) != 0 {
		t.Errorf("nonEmptyValues(nil) = %v", got)
	}
}
