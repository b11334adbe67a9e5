package usecase

import (
	"slices"
	"testing"
)

func TestNewLineNormalizer(t *testing.T) {
	t.Run("uses defaults for nil lists", func(t *testing.T) {
		n := NewLineNormalizer(NormalizerConfig{})
		if n.headerPattern == nil {
			t.Error("expected default header keywords to be compiled")
		}
		if !n.units["kg"] || !n.units["lkg"] {
			t.Errorf("expected default unit tokens, got %v", n.units)
		}
		if n.minLength != DefaultMinCandidateLength {
			t.Errorf("minLength = %d, want %d", n.minLength, DefaultMinCandidateLength)
		}
	})

	t.Run("empty lists disable filters", func(t *testing.T) {
		n := NewLineNormalizer(NormalizerConfig{HeaderKeywords: []string{}, UnitTokens: []string{}})
		if n.headerPattern != nil {
			t.Error("expected no header pattern")
		}
		if len(n.units) != 0 {
			t.Errorf("expected no unit tokens, got %v", n.units)
		}
	})
}

func TestCleanLine(t *testing.T) {
	n := NewLineNormalizer(NormalizerConfig{})

	testCases := []struct {
		name   string
		line   string
		want   string
		wantOK bool
	}{
		{name: "strips quantity, unit, price and punctuation", line: "2x COCA-COLA 500ML $3.99", want: "COCACOLA", wantOK: true},
		{name: "skips total line", line: "TOTAL $3.99", wantOK: false},
		{name: "skips subtotal with punctuation", line: "Sub-Total: 12.40", wantOK: false},
		{name: "skips multi-word store name", line: "Fresh   Mart Downtown", wantOK: false},
		{name: "skips date line case-insensitively", line: "date: 12/03/2024", wantOK: false},
		{name: "keeps words that contain a keyword", line: "Dates 250g", want: "DATES", wantOK: true},
		{name: "skips total glued to amount", line: "TOTAL3.99", wantOK: false},
		{name: "skips subtotal glued to amount", line: "SUBTOTAL12.40", wantOK: false},
		{name: "skips date glued to digits", line: "DATE12/03/2024", wantOK: false},
		{name: "skips tax glued to amount", line: "TAX0.40", wantOK: false},
		{name: "skips invoice glued to number", line: "INVOICE123", wantOK: false},
		{name: "skips keyword after digits", line: "2024TIME 10:42", wantOK: false},
		{name: "keeps keyword inside a longer word", line: "Taxicab Snacks 1.50", want: "TAXICAB SNACKS", wantOK: true},
		{name: "removes decimal weight with unit", line: "Bananas 1.2kg 2.40", want: "BANANAS", wantOK: true},
		{name: "removes garbled kg", line: "Tomatoes 1okg 3.10", want: "TOMATOES", wantOK: true},
		{name: "removes spaced unit", line: "Oat Milk 1 LTR", want: "OAT MILK", wantOK: true},
		{name: "removes piece counts", line: "Eggs 12 pcs", want: "EGGS", wantOK: true},
		{name: "removes units glued together", line: "Onions 2 kg/pc", want: "ONIONS", wantOK: true},
		{name: "removes spaced multiplier", line: "3 × Lemons", want: "LEMONS", wantOK: true},
		{name: "removes european decimal price", line: "Brot 2,49 €", want: "BROT", wantOK: true},
		{name: "keeps letters that only contain unit letters", line: "cola zero", want: "COLA ZERO", wantOK: true},
		{name: "keeps non-ascii letters", line: "Café au lait 4.50", want: "CAFÉ AU LAIT", wantOK: true},
		{name: "drops short residue", line: "AB 2.00", wantOK: false},
		{name: "drops numbers only", line: "  12.50  ", wantOK: false},
		{name: "drops blank line", line: "   \t ", wantOK: false},
		{name: "handles carriage return", line: "Rice 5kg\r", want: "RICE", wantOK: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := n.CleanLine(tc.line)
			if ok != tc.wantOK {
				t.Fatalf("CleanLine(%q) ok = %v, want %v (got %q)", tc.line, ok, tc.wantOK, got)
			}
			if ok && got != tc.want {
				t.Errorf("CleanLine(%q) = %q, want %q", tc.line, got, tc.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	n := NewLineNormalizer(NormalizerConfig{})

	t.Run("receipt scenario", func(t *testing.T) {
		got := n.Normalize("2x COCA-COLA 500ML $3.99\nTOTAL $3.99")
		want := []string{"COCACOLA"}
		if !slices.Equal(got, want) {
			t.Errorf("Normalize() = %v, want %v", got, want)
		}
	})

	t.Run("empty text yields no candidates", func(t *testing.T) {
		got := n.Normalize("")
		if got == nil || len(got) != 0 {
			t.Errorf("Normalize(\"\") = %#v, want empty non-nil slice", got)
		}
	})

	t.Run("preserves order and repeats", func(t *testing.T) {
		text := "FRESH MART\nMilk 1L 1.20\nBread 2.10\nMilk 1L 1.20\r\nTOTAL 4.50\n"
		got := n.Normalize(text)
		want := []string{"MILK", "BREAD", "MILK"}
		if !slices.Equal(got, want) {
			t.Errorf("Normalize() = %v, want %v", got, want)
		}
	})

	t.Run("clean uppercase text is unchanged", func(t *testing.T) {
		inputs := []string{"COCA COLA", "ORGANIC BANANAS", "OAT MILK", "SPARKLING WATER"}
		for _, in := range inputs {
			got := n.Normalize(in)
			if len(got) != 1 || got[0] != in {
				t.Errorf("Normalize(%q) = %v, want [%q]", in, got, in)
			}
		}
	})

	t.Run("normalizing candidates again is identity", func(t *testing.T) {
		first := n.Normalize("Greek Yogurt 500g 4.99\n2 x Avocado 1.50\nBeef Mince 1kg 9.99")
		for _, c := range first {
			again := n.Normalize(c)
			if len(again) != 1 || again[0] != c {
				t.Errorf("Normalize(%q) = %v, want [%q]", c, again, c)
			}
		}
	})
}

func TestCandidates(t *testing.T) {
	n := NewLineNormalizer(NormalizerConfig{})
	text := "Apples 1kg\nPears 2 pcs\nPlums"

	t.Run("sequence is restartable", func(t *testing.T) {
		seq := n.Candidates(text)
		first := slices.Collect(seq)
		second := slices.Collect(seq)
		if !slices.Equal(first, second) {
			t.Errorf("second pass = %v, want %v", second, first)
		}
	})

	t.Run("stops early when consumer breaks", func(t *testing.T) {
		var got []string
		for c := range n.Candidates(text) {
			got = append(got, c)
			break
		}
		if !slices.Equal(got, []string{"APPLES"}) {
			t.Errorf("got %v, want [APPLES]", got)
		}
	})
}

func TestConfigurableVocabulary(t *testing.T) {
	t.Run("custom header keywords replace defaults", func(t *testing.T) {
		n := NewLineNormalizer(NormalizerConfig{HeaderKeywords: []string{"Walmart", "Thank You"}})

		if _, ok := n.CleanLine("WALMART SUPERCENTER"); ok {
			t.Error("expected custom keyword line to be skipped")
		}
		if _, ok := n.CleanLine("thank   you for shopping"); ok {
			t.Error("expected multi-word keyword line to be skipped")
		}
		got, ok := n.CleanLine("Total 5.00")
		if !ok || got != "TOTAL" {
			t.Errorf("CleanLine(Total) = %q, %v; want TOTAL kept once defaults are replaced", got, ok)
		}
	})

	t.Run("custom unit tokens", func(t *testing.T) {
		n := NewLineNormalizer(NormalizerConfig{UnitTokens: []string{"bunch"}})
		got, ok := n.CleanLine("Coriander 1 BUNCH")
		if !ok || got != "CORIANDER" {
			t.Errorf("CleanLine() = %q, %v; want CORIANDER", got, ok)
		}
	})

	t.Run("custom minimum length", func(t *testing.T) {
		n := NewLineNormalizer(NormalizerConfig{MinLength: 5})
		if _, ok := n.CleanLine("Kiwi"); ok {
			t.Error("expected 4-letter residue to be dropped")
		}
		if got, ok := n.CleanLine("Mango"); !ok || got != "MANGO" {
			t.Errorf("CleanLine(Mango) = %q, %v; want MANGO", got, ok)
		}
	})
}
