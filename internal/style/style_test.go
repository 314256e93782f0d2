package style

import (
	"errors"
	"testing"
)

func TestSpecsResolveLastWins(t *testing.T) {
	specs := Specs{
		{ID: Bold, Value: true},
		{ID: Foreground, Value: ColorFromRGB(255, 0, 0)},
		{ID: Bold, Value: false},
	}

	set := specs.Resolve()

	if len(set) != 2 {
		t.Fatalf("len(set) = %d, want 2", len(set))
	}
	if set[Bold] != false {
		t.Errorf("set[bold] = %v, want false", set[Bold])
	}
	if set[Foreground] != ColorFromRGB(255, 0, 0) {
		t.Errorf("set[foreground] = %v, want #FF0000", set[Foreground])
	}
}

func TestSpecsResolveEmpty(t *testing.T) {
	var specs Specs
	set := specs.Resolve()
	if len(set) != 0 {
		t.Errorf("len(set) = %d, want 0", len(set))
	}
	if !set.Style().IsDefault() {
		t.Error("empty set should produce the default style")
	}
}

func TestSetStyle(t *testing.T) {
	set := Set{
		Bold:       true,
		Italic:     true,
		Underline:  false,
		Background: ColorFromIndex(4),
		"font":     "serif",
	}

	st := set.Style()

	if !st.Flags.Has(FlagBold) || !st.Flags.Has(FlagItalic) {
		t.Errorf("Flags = %b, want bold and italic", st.Flags)
	}
	if st.Flags.Has(FlagUnderline) {
		t.Error("underline=false should not set the flag")
	}
	if st.Background != ColorFromIndex(4) {
		t.Errorf("Background = %v, want idx(4)", st.Background)
	}
	if !st.Foreground.IsDefault() {
		t.Errorf("Foreground = %v, want default", st.Foreground)
	}
}

func TestSetEqual(t *testing.T) {
	a := Set{Bold: true, Foreground: ColorFromRGB(1, 2, 3)}
	b := a.Clone()

	if !a.Equal(b) {
		t.Error("clone should be equal")
	}
	b[Bold] = false
	if a.Equal(b) {
		t.Error("sets with different values should not be equal")
	}
	if a[Bold] != true {
		t.Error("Clone should not share storage")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"default", ColorDefault},
		{"", ColorDefault},
		{"red", ColorFromRGB(255, 0, 0)},
		{"#00ff00", ColorFromRGB(0, 255, 0)},
		{"#00F", ColorFromRGB(0, 0, 255)},
		{"208", ColorFromIndex(208)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if err != nil {
				t.Fatalf("ParseColor(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	for _, bad := range []string{"#12", "300", "chartreuse-ish"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("ParseColor(%q) should fail", bad)
		}
	}
}

func TestParseSpec(t *testing.T) {
	tests := []struct {
		in   string
		want Spec
	}{
		{"bold", Spec{ID: Bold, Value: true}},
		{"Bold=false", Spec{ID: Bold, Value: false}},
		{"foreground=#ff0000", Spec{ID: Foreground, Value: ColorFromRGB(255, 0, 0)}},
		{"font=serif", Spec{ID: "font", Value: "serif"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSpec(tt.in)
			if err != nil {
				t.Fatalf("ParseSpec(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseSpec(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseSpecErrors(t *testing.T) {
	for _, in := range []string{"=true", "bold=maybe", "background=#zzzzzz"} {
		_, err := ParseSpec(in)
		var specErr *SpecError
		if !errors.As(err, &specErr) {
			t.Errorf("ParseSpec(%q) error = %v, want *SpecError", in, err)
		}
	}
}

func TestParseSpecsKeepsOrder(t *testing.T) {
	specs, err := ParseSpecs([]string{"bold", "italic", "bold=false"})
	if err != nil {
		t.Fatalf("ParseSpecs error = %v", err)
	}
	if len(specs) != 3 {
		t.Fatalf("len(specs) = %d, want 3", len(specs))
	}
	if specs[2].ID != Bold || specs[2].Value != false {
		t.Errorf("specs[2] = %+v, want bold=false", specs[2])
	}
}

func TestFlagBits(t *testing.T) {
	if FlagNone != 0 {
		t.Errorf("FlagNone = %d, want 0", FlagNone)
	}
	if FlagBold != 1 {
		t.Errorf("FlagBold = %d, want 1", FlagBold)
	}
	all := []Flag{FlagBold, FlagDim, FlagItalic, FlagUnderline, FlagBlink, FlagReverse, FlagStrikethrough}
	for i, f := range all {
		if want := Flag(1) << i; f != want {
			t.Errorf("flag %d = %d, want %d", i, f, want)
		}
	}
}
