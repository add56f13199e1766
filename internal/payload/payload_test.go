package payload

import (
	"errors"
	"testing"

	"github.com/nao1215/sstiscan/internal/model"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr    string
		want    string
		wantErr error
	}{
		{expr: "7*7", want: "49"},
		{expr: " 7 * 7 ", want: "49"},
		{expr: "8263+8263", want: "16526"},
		{expr: "839*839", want: "703921"},
		{expr: "10-3", want: "7"},
		{expr: "3-10", want: "-7"},
		{expr: "-3*4", want: "-12"},
		{expr: "3*-4", want: "-12"},
		{expr: "8/2", want: "4"},
		{expr: "7/2", want: "3.5"},
		{expr: "0*7", want: "0"},
		{expr: "1/0", wantErr: ErrDivisionByZero},
		{expr: "9223372036854775807+1", wantErr: ErrOverflow},
		{expr: "9223372036854775807*2", wantErr: ErrOverflow},
		{expr: "99999999999999999999*1", wantErr: ErrOverflow},
		{expr: "", wantErr: ErrNotArithmetic},
		{expr: "7", wantErr: ErrNotArithmetic},
		{expr: "7*", wantErr: ErrNotArithmetic},
		{expr: "7*7*7", wantErr: ErrNotArithmetic},
		{expr: "7**7", wantErr: ErrNotArithmetic},
		{expr: "7%7", wantErr: ErrNotArithmetic},
		{expr: "(7*7)", wantErr: ErrNotArithmetic},
		{expr: "= 7*7", wantErr: ErrNotArithmetic},
		{expr: "print(7*7)", wantErr: ErrNotArithmetic},
		{expr: "''.__class__.__mro__[2]", wantErr: ErrNotArithmetic},
		{expr: "7.5*2", wantErr: ErrNotArithmetic},
		{expr: "__import__('os').system('id')", wantErr: ErrNotArithmetic},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()

			got, err := Evaluate(tt.expr)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Evaluate(%q) error = %v, want %v", tt.expr, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Evaluate(%q) unexpected error: %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %q, want %q", tt.expr, got, tt.want)
			}
		})
	}
}

// TestCorpusExpected checks the expected value of every built-in payload.
func TestCorpusExpected(t *testing.T) {
	t.Parallel()

	want := map[string]string{
		"{{7*7}}":    "49",
		"${7*7}":     "49",
		"<%= 7*7 %>": "49",
		"#{7*7}":     "49",
		"${{7*7}}":   "49",
	}

	all := All()
	if len(all) != 7 {
		t.Fatalf("expected 7 payloads, got %d", len(all))
	}

	failed := 0
	for _, p := range all {
		got, err := Expected(p)
		if expected, ok := want[p.Raw]; ok {
			if err != nil || got != expected {
				t.Errorf("Expected(%q) = %q, %v; want %q", p.Raw, got, err, expected)
			}
			continue
		}
		if !errors.Is(err, ErrNotArithmetic) {
			t.Errorf("Expected(%q) error = %v, want ErrNotArithmetic", p.Raw, err)
		}
		failed++
	}

	if failed != 2 {
		t.Errorf("expected the gadget and ASP payloads to be non-arithmetic, got %d", failed)
	}
}

func TestCorpusOrder(t *testing.T) {
	t.Parallel()

	all := All()
	if all[0].Raw != "{{7*7}}" {
		t.Errorf("first payload = %q, want {{7*7}}", all[0].Raw)
	}
	if all[len(all)-1].Raw != "<% print(7*7) %>" {
		t.Errorf("last payload = %q, want <%% print(7*7) %%>", all[len(all)-1].Raw)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	t.Parallel()

	first := All()
	first[0].Raw = "changed"

	if All()[0].Raw != "{{7*7}}" {
		t.Error("modifying the returned slice changed the corpus")
	}
}

func TestExpectedZeroAndDelimiters(t *testing.T) {
	t.Parallel()

	_, err := Expected(model.Payload{Opener: "{{", Closer: "}}", Raw: "{{0*7}}"})
	if !errors.Is(err, ErrZeroResult) {
		t.Errorf("expected ErrZeroResult, got %v", err)
	}

	_, err = Expected(model.Payload{Opener: "${", Closer: "}", Raw: "{{7*7}}"})
	if !errors.Is(err, ErrNotArithmetic) {
		t.Errorf("expected ErrNotArithmetic for mismatched delimiters, got %v", err)
	}
}
