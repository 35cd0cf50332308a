package record

import "testing"

func TestParse(t *testing.T) {
	p := Parser{}

	tests := []struct {
		name       string
		line       string
		wantReason Reason
		wantN      int64
	}{
		{"valid link", "Main_Page\tGo_(programming_language)\tlink\t1200", ReasonNone, 1200},
		{"valid external", "other-search\tGo_(programming_language)\texternal\t33", ReasonNone, 33},
		{"valid other", "A\tB\tother\t0", ReasonNone, 0},
		{"negative count admitted", "A\tB\tlink\t-3", ReasonNone, -3},
		{"three fields", "A\tB\tlink", ReasonWrongFieldCount, 0},
		{"five fields", "A\tB\tlink\t3\textra", ReasonWrongFieldCount, 0},
		{"empty line", "", ReasonWrongFieldCount, 0},
		{"empty prev", "\tB\tlink\t3", ReasonEmptyRequiredField, 0},
		{"whitespace prev", "   \tB\tlink\t3", ReasonEmptyRequiredField, 0},
		{"empty curr", "A\t\tlink\t3", ReasonEmptyRequiredField, 0},
		{"unknown type", "A\tB\tbanner\t3", ReasonInvalidType, 0},
		{"empty type", "A\tB\t\t3", ReasonInvalidType, 0},
		{"non numeric count", "A\tB\tlink\tmany", ReasonNonNumericCount, 0},
		{"float count", "A\tB\tlink\t3.5", ReasonNonNumericCount, 0},
		{"empty count", "A\tB\tlink\t", ReasonNonNumericCount, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, reason := p.Parse(tt.line, "2025-09")
			if reason != tt.wantReason {
				t.Fatalf("Parse(%q) reason = %q, want %q", tt.line, reason, tt.wantReason)
			}
			if reason != ReasonNone {
				return
			}
			if rec.N != tt.wantN {
				t.Errorf("Parse(%q) N = %d, want %d", tt.line, rec.N, tt.wantN)
			}
			if rec.LoadMonth != "2025-09" {
				t.Errorf("Parse(%q) LoadMonth = %q, want 2025-09", tt.line, rec.LoadMonth)
			}
		})
	}
}

func TestParseTrimsFields(t *testing.T) {
	p := Parser{}

	rec, reason := p.Parse(" Main_Page \t B \t link \t 42 ", "2025-09")
	if reason != ReasonNone {
		t.Fatalf("reason = %q, want none", reason)
	}
	if rec.Prev != "Main_Page" || rec.Curr != "B" || rec.Type != "link" || rec.N != 42 {
		t.Errorf("fields not trimmed: %+v", rec)
	}
}

func TestParseRejectNegative(t *testing.T) {
	p := Parser{RejectNegative: true}

	if _, reason := p.Parse("A\tB\tlink\t-3", "2025-09"); reason != ReasonNegativeCount {
		t.Errorf("reason = %q, want %q", reason, ReasonNegativeCount)
	}
	if _, reason := p.Parse("A\tB\tlink\t3", "2025-09"); reason != ReasonNone {
		t.Errorf("reason = %q, want none", reason)
	}
}

func TestValidType(t *testing.T) {
	for _, typ := range []string{TypeLink, TypeExternal, TypeOther} {
		if !ValidType(typ) {
			t.Errorf("ValidType(%q) = false, want true", typ)
		}
	}
	for _, typ := range []string{"", "Link", "redlink", "banner"} {
		if ValidType(typ) {
			t.Errorf("ValidType(%q) = true, want false", typ)
		}
	}
}
