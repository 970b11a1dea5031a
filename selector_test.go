package sexp

import (
	"strings"
	"testing"
)

func selectOutput(t *testing.T, keys []string, labeled bool, input string) string {
	t.Helper()
	var buf strings.Builder
	sel := NewSelector(keys, labeled, &buf)
	p := NewParser[selectorContext, error](sel, DefaultParserOptions())
	if _, err := p.ParseBytes([]byte(input)); err != nil {
		t.Fatalf("ParseBytes(%q): unexpected error: %v", input, err)
	}
	return buf.String()
}

func TestSelectorUnlabeledSingleKeyPerForm(t *testing.T) {
	// Within a matched sublist, only the single atom immediately following
	// the key atom is captured (ported verbatim from original_source's
	// select.rs: SelectNext(key) + atom -> Selected(key, atom)).
	input := `(test (name t) (libraries a))`
	got := selectOutput(t, []string{"name", "libraries"}, false, input)
	want := "(t a)\n"
	if got != want {
		t.Errorf("selectOutput = %q, want %q", got, want)
	}
}

func TestSelectorLabeledSingleKeyPerForm(t *testing.T) {
	input := `(test (name t) (libraries a))`
	got := selectOutput(t, []string{"name", "libraries"}, true, input)
	want := "((name t) (libraries a))\n"
	if got != want {
		t.Errorf("selectOutput = %q, want %q", got, want)
	}
}

func TestSelectorMultipleTopLevelForms(t *testing.T) {
	input := `(test (name t) (libraries a)) (library (name ov))`
	got := selectOutput(t, []string{"name", "libraries"}, false, input)
	want := "(t a)\n(ov)\n"
	if got != want {
		t.Errorf("selectOutput = %q, want %q", got, want)
	}
}

func TestSelectorExtraAtomAfterValueDropsTheWholeMatch(t *testing.T) {
	// A third atom in the sublist (key, value, extra) finds the frame
	// already Selected; the Selected(_,_) => Ignore transition overwrites
	// the context entirely, so ListClose sees Ignore and the match for
	// this key is dropped, not truncated to its first value.
	input := `(test (name t) (libraries a b))`
	got := selectOutput(t, []string{"name", "libraries"}, false, input)
	want := "(t)\n"
	if got != want {
		t.Errorf("selectOutput = %q, want %q", got, want)
	}
}

func TestSelectorFormsWithNoMatchEmitNothing(t *testing.T) {
	input := `(nothing (here a) (unrelated b))`
	got := selectOutput(t, []string{"name"}, false, input)
	if got != "" {
		t.Errorf("selectOutput = %q, want empty", got)
	}
}

func TestSelectorQuotedKeyValueIsIgnored(t *testing.T) {
	// A quoted atom immediately after the key does not count as its value
	// (SPEC_FULL.md §4.E.1 / select.rs's SelectNext + list-open TODO arm
	// folded into the general "quoted is ignored" rule); the frame becomes
	// Ignore and the enclosing form produces no output at all since
	// nothing else in it is Selected.
	input := `(test (name "t"))`
	got := selectOutput(t, []string{"name"}, false, input)
	if got != "" {
		t.Errorf("selectOutput = %q, want empty (quoted value not captured)", got)
	}
}

func TestSelectorNestedListAfterKeyIsIgnored(t *testing.T) {
	input := `(test (name (inner)))`
	got := selectOutput(t, []string{"name"}, false, input)
	if got != "" {
		t.Errorf("selectOutput = %q, want empty (list after key not captured)", got)
	}
}
