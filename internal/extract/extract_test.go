package extract

import "testing"

func TestExtractAnchoredPatterns(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"verification code colon", "Your verification code: 482913", "482913"},
		{"code is", "The code is 555123, valid for 10 minutes.", "555123"},
		{"enter", "Please enter 908172 to continue.", "908172"},
		{"six digit code", "Use this 6-digit code: 246810 to sign in.", "246810"},
		{"verification bare", "Verification 135791", "135791"},
		{"keyword after hex guard", "background:#123456; your verification 654321", "654321"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Extract(tt.text)
			if !result.Found {
				t.Fatalf("Extract(%q) found = false, want true", tt.text)
			}
			if result.Code != tt.want {
				t.Errorf("Extract(%q) code = %q, want %q", tt.text, result.Code, tt.want)
			}
			if result.MatchedPattern == "" {
				t.Errorf("Extract(%q) matched no anchored pattern, expected tier-1 match", tt.text)
			}
		})
	}
}

func TestExtractContextScan(t *testing.T) {
	// No anchored pattern applies: the digits never directly follow a
	// keyword. Acceptance depends entirely on the context window.
	text := "To confirm your sign-in, use the number below.\n\n482913\n\nIf you did not request this, ignore this message."

	result := Extract(text)
	if !result.Found {
		t.Fatal("expected context scan to accept the candidate")
	}
	if result.Code != "482913" {
		t.Errorf("code = %q, want %q", result.Code, "482913")
	}
	if result.MatchedPattern != "" {
		t.Errorf("expected tier-2 acceptance, got pattern %q", result.MatchedPattern)
	}
	if result.KeywordHits < 2 {
		t.Errorf("keyword hits = %d, want >= 2", result.KeywordHits)
	}
}

func TestExtractNotFound(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"hex like run no keywords", "The banner color is #a1b2c3 on white."},
		{"hash guarded digits", "Set the accent to #402913 in settings."},
		{"amount with no keyword context", "Your invoice total is 123456 cents, see the attached statement for details, thanks for shopping with auto-pay today, number shown as a plain amount"},
		{"no digits", "Nothing numeric to verify or confirm in here."},
		{"five digits", "Please confirm and verify with 12345 now."},
		{"seven digits", "Please confirm and verify with 1234567 now."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := Extract(tt.text); result.Found {
				t.Errorf("Extract(%q) = %q, want not found", tt.text, result.Code)
			}
		})
	}
}

func TestExtractSingleKeywordRejected(t *testing.T) {
	// Exactly one keyword ("confirm") sits inside the window; the
	// threshold is two distinct keywords, so the scan must report
	// not-found rather than fall back to a weak match.
	text := "Order 574821 was shipped today. We will confirm delivery by mail."

	if result := Extract(text); result.Found {
		t.Fatalf("weak context accepted: got %q with %d hits", result.Code, result.KeywordHits)
	}
}

func TestExtractFirstCandidateWins(t *testing.T) {
	// Both runs sit in a strong context; the first in document order
	// wins, not the better-scoring one.
	text := "Please confirm your account. You may use 111111 if asked, or later use 222222 again to verify."

	result := Extract(text)
	if !result.Found {
		t.Fatal("expected a match")
	}
	if result.Code != "111111" {
		t.Errorf("code = %q, want first candidate %q", result.Code, "111111")
	}
}

func TestExtractCodeShape(t *testing.T) {
	texts := []string{
		"Your verification code: 482913",
		"To confirm your sign-in, use the number below.\n\n482913",
		"enter 000042 to proceed",
	}

	for _, text := range texts {
		result := Extract(text)
		if !result.Found {
			continue
		}
		if len(result.Code) != 6 {
			t.Errorf("Extract(%q) code %q is not 6 digits", text, result.Code)
		}
		for i := 0; i < len(result.Code); i++ {
			if result.Code[i] < '0' || result.Code[i] > '9' {
				t.Errorf("Extract(%q) code %q contains non-digit", text, result.Code)
			}
		}
	}
}

func TestExtractDeterministic(t *testing.T) {
	text := "Please confirm your account and verify your identity using 314159 before Friday."

	first := Extract(text)
	for i := 0; i < 5; i++ {
		if got := Extract(text); got != first {
			t.Fatalf("run %d: %+v != %+v", i, got, first)
		}
	}
}

func TestDigitCandidates(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"single run", "x 123456 y", []string{"123456"}},
		{"hash excluded", "#123456 and 654321", []string{"654321"}},
		{"duplicates collapse", "123456 then 123456 then 654321", []string{"123456", "654321"}},
		{"longer runs excluded", "1234567 and 123456", []string{"123456"}},
		{"run at start", "123456 leads", []string{"123456"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := digitCandidates(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("digitCandidates(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("candidate[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
