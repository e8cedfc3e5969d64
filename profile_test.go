package opensched

import "testing"

func TestRequirementParsec(t *testing.T) {
	got, err := requirement("parsec-blackscholes-native-4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 5 {
		t.Errorf("got %d, want 5", got)
	}
}

func TestRequirementSplash2ZeroPlaceholder(t *testing.T) {
	got, err := requirement("splash2-fft-native-3")
	if err != nil {
		t.Fatalf("unexpected error for zero-placeholder parallelism: %v", err)
	}
	if got != 0 {
		t.Errorf("got %d, want 0 (zero placeholder is a valid lookup; the caller rejects it)", got)
	}
}

func TestRequirementUnknownSuite(t *testing.T) {
	if _, err := requirement("nosuchsuite-foo-native-1"); err == nil {
		t.Errorf("expected error for unknown suite")
	}
}

func TestRequirementUnknownBenchmark(t *testing.T) {
	if _, err := requirement("parsec-nosuchbench-native-1"); err == nil {
		t.Errorf("expected error for unknown benchmark")
	}
}

func TestRequirementParallelismTooLarge(t *testing.T) {
	if _, err := requirement("parsec-dedup-native-6"); err == nil {
		t.Errorf("expected error for parallelism beyond table length")
	}
}

func TestRequirementParallelismBelowOne(t *testing.T) {
	if _, err := requirement("parsec-canneal-native-0"); err == nil {
		t.Errorf("expected error for parallelism < 1")
	}
}

func TestRequirementMalformedComposition(t *testing.T) {
	if _, err := requirement("parsec-canneal-native"); err == nil {
		t.Errorf("expected error for malformed composition string")
	}
}
