package engine

import (
	"errors"
	"strings"
	"testing"
)

func TestParse_Total(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		total int64
		depth int
	}{
		{name: "two patterns depth 2", text: "pattern a\npattern b\ndepth 2", total: 4, depth: 2},
		{name: "default depth", text: "pattern a", total: 1, depth: 1},
		{name: "no patterns positive depth", text: "depth 3", total: 0, depth: 3},
		{name: "no patterns zero depth", text: "depth 0", total: 1, depth: 0},
		{name: "empty text", text: "", total: 0, depth: 1},
		{name: "three patterns depth 3", text: "pattern x\npattern y\npattern z\ndepth 3", total: 27, depth: 3},
		{name: "last depth wins", text: "depth 5\npattern a\npattern b\ndepth 1", total: 2, depth: 1},
		{name: "directives with indentation", text: "   pattern a  \n\tpattern b\n  depth   2  ", total: 4, depth: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if spec.Total != tt.total {
				t.Errorf("expected total %d, got %d", tt.total, spec.Total)
			}
			if spec.Depth != tt.depth {
				t.Errorf("expected depth %d, got %d", tt.depth, spec.Depth)
			}
			if spec.Text != tt.text {
				t.Error("Text should be kept verbatim")
			}
		})
	}
}

func TestParse_Patterns(t *testing.T) {
	spec, err := Parse("# comment\npattern  push 1 \nnot a directive\npatternx\npattern pop\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"push 1", "pop"}
	if len(spec.Patterns) != len(want) {
		t.Fatalf("expected %d patterns, got %d: %v", len(want), len(spec.Patterns), spec.Patterns)
	}
	for i := range want {
		if spec.Patterns[i] != want[i] {
			t.Errorf("pattern %d: expected %q, got %q", i, want[i], spec.Patterns[i])
		}
	}
}

func TestParse_InvalidDepth(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
		line    int
	}{
		{name: "not a number", text: "pattern a\ndepth two", wantErr: ErrInvalidDepth, line: 2},
		{name: "float", text: "depth 1.5", wantErr: ErrInvalidDepth, line: 1},
		{name: "negative", text: "pattern a\n\ndepth -1", wantErr: ErrNegativeDepth, line: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := Parse(tt.text)
			if err == nil {
				t.Fatalf("expected error, got spec %+v", spec)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}

			var pErr *ParseError
			if !errors.As(err, &pErr) {
				t.Fatalf("expected ParseError, got %T", err)
			}
			if pErr.Line != tt.line {
				t.Errorf("expected line %d, got %d", tt.line, pErr.Line)
			}
		})
	}
}

func TestParse_DepthWithoutArgumentIgnored(t *testing.T) {
	// "depth" без пробела и аргумента не является директивой
	spec, err := Parse("pattern a\npattern b\ndepth")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Depth != DefaultDepth {
		t.Errorf("expected default depth, got %d", spec.Depth)
	}
}

func TestParse_NewSpecEachTime(t *testing.T) {
	a, _ := Parse("pattern a")
	b, _ := Parse("pattern a")
	if a == b {
		t.Error("each Parse should return a distinct spec")
	}
}

func TestSpaceSize(t *testing.T) {
	tests := []struct {
		patterns int
		depth    int
		want     int64
	}{
		{0, 0, 1},
		{0, 4, 0},
		{1, 1000000, 1},
		{2, 10, 1024},
		{16, 6, 1 << 24},
	}

	for _, tt := range tests {
		got, err := SpaceSize(tt.patterns, tt.depth)
		if err != nil {
			t.Errorf("SpaceSize(%d, %d): unexpected error: %v", tt.patterns, tt.depth, err)
			continue
		}
		if got != tt.want {
			t.Errorf("SpaceSize(%d, %d) = %d, want %d", tt.patterns, tt.depth, got, tt.want)
		}
	}
}

func TestSpaceSize_TooLarge(t *testing.T) {
	for _, tc := range [][2]int{{16, 7}, {1000, 3}, {2, 64}} {
		_, err := SpaceSize(tc[0], tc[1])
		if !errors.Is(err, ErrSpaceTooLarge) {
			t.Errorf("SpaceSize(%d, %d): expected ErrSpaceTooLarge, got %v", tc[0], tc[1], err)
		}
	}

	_, err := Parse("pattern a\npattern b\ndepth 40")
	if !errors.Is(err, ErrSpaceTooLarge) {
		t.Errorf("Parse: expected ErrSpaceTooLarge, got %v", err)
	}
	// Сообщение называет лимит и что поменять
	if msg := err.Error(); !strings.Contains(msg, "limit of 16777216 assemblies") || !strings.Contains(msg, "lower depth") {
		t.Errorf("error should hint at the limit, got %q", msg)
	}
}
