package script

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/matchstyle/internal/segment"
)

const longWords = `
function accept(text, start, stop)
  return #text > 3 and stop - start == #text
end
`

func TestAccept(t *testing.T) {
	f, err := Compile("long.lua", longWords)
	if err != nil {
		t.Fatalf("Compile error = %v", err)
	}
	defer f.Close()

	tests := []struct {
		text        string
		start, stop int
		want        bool
	}{
		{"food", 0, 4, true},
		{"foo", 0, 3, false},
		{"foods", 10, 12, false},
	}
	for _, tt := range tests {
		got, err := f.Accept(tt.text, tt.start, tt.stop)
		if err != nil {
			t.Fatalf("Accept(%q) error = %v", tt.text, err)
		}
		if got != tt.want {
			t.Errorf("Accept(%q, %d, %d) = %v, want %v", tt.text, tt.start, tt.stop, got, tt.want)
		}
	}
}

func TestKeepWithSplit(t *testing.T) {
	f, err := Compile("long.lua", longWords)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	text := "foo food fo foodie"
	segs := segment.Filter(text, segment.Split(text, segment.MustCompile(`\w+`, segment.FlagsNone)), f.Keep)

	var matched []string
	for _, s := range segment.Matches(segs) {
		matched = append(matched, s.Text(text))
	}
	if strings.Join(matched, ",") != "food,foodie" {
		t.Errorf("matches = %q, want [food foodie]", matched)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   error
	}{
		{"syntax", "function accept(", nil},
		{"runtime", "error('boom')", nil},
		{"missing accept", "x = 1", ErrNoAcceptFunction},
		{"accept not a function", "accept = true", ErrNoAcceptFunction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Compile(tt.name, tt.source)
			if err == nil {
				f.Close()
				t.Fatal("Compile succeeded")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Compile error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSandbox(t *testing.T) {
	for _, src := range []string{
		"function accept() return os.time() > 0 end",
		"function accept() return io.write('x') end",
		"function accept() return dofile('/etc/passwd') end",
	} {
		f, err := Compile("sandbox", src)
		if err != nil {
			t.Fatalf("Compile(%q) error = %v", src, err)
		}
		if _, err := f.Accept("x", 0, 1); err == nil {
			t.Errorf("Accept with %q succeeded", src)
		}
		f.Close()
	}
}

func TestKeepReportsErrors(t *testing.T) {
	var got []error
	f, err := Compile("bad", "function accept(text) return text.missing.field end",
		WithErrorHandler(func(err error) { got = append(got, err) }))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if !f.Keep("abc", segment.Segment{Start: 0, Length: 3, IsMatch: true}) {
		t.Error("Keep = false for a failing call, want true")
	}
	if len(got) != 1 {
		t.Errorf("error handler called %d times, want 1", len(got))
	}
}

func TestTimeout(t *testing.T) {
	f, err := Compile("spin", "function accept() while true do end end", WithTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	start := time.Now()
	if _, err := f.Accept("x", 0, 1); err == nil {
		t.Error("Accept of an endless loop succeeded")
	}
	if d := time.Since(start); d > 2*time.Second {
		t.Errorf("Accept took %v", d)
	}
}

func TestLoadAndClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.lua")
	if err := os.WriteFile(path, []byte(longWords), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if f.Name() != path {
		t.Errorf("Name() = %q, want %q", f.Name(), path)
	}

	f.Close()
	f.Close()
	if _, err := f.Accept("food", 0, 4); !errors.Is(err, ErrFilterClosed) {
		t.Errorf("Accept after Close error = %v, want ErrFilterClosed", err)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.lua")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want not-exist", err)
	}
}
