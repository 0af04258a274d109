package htmlsanitize

import (
	"reflect"
	"strings"
	"testing"
)

func TestSanitize_Empty(t *testing.T) {
	if got := Sanitize("   "); got != "" {
		t.Errorf("Sanitize(blank) = %q", got)
	}
}

func TestSanitize_KeepsFormatting(t *testing.T) {
	in := "<p>Night shift tips: <strong>hydrate</strong></p><ul><li>one</li></ul>"
	got := Sanitize(in)
	for _, want := range []string{"<p>", "<strong>hydrate</strong>", "<li>one</li>"} {
		if !strings.Contains(got, want) {
			t.Errorf("Sanitize dropped %q: %q", want, got)
		}
	}
}

func TestSanitize_RemovesScript(t *testing.T) {
	got := Sanitize(`<p>hi</p><script>alert("x")</script>`)
	if strings.Contains(got, "script") || strings.Contains(got, "alert") {
		t.Errorf("script survived: %q", got)
	}
}

func TestSanitize_RemovesEventHandlers(t *testing.T) {
	got := Sanitize(`<a href="https://example.com" onclick="steal()">x</a><img src="x.png" onerror="steal()">`)
	if strings.Contains(got, "onclick") || strings.Contains(got, "onerror") {
		t.Errorf("handler survived: %q", got)
	}
	if !strings.Contains(got, `rel="nofollow`) {
		t.Errorf("links should be nofollow: %q", got)
	}
}

func TestSanitize_RemovesJavascriptHref(t *testing.T) {
	got := Sanitize(`<a href="javascript:alert(1)">click</a>`)
	if strings.Contains(got, "javascript:") {
		t.Errorf("javascript href survived: %q", got)
	}
}

func TestSanitize_RemovesIframeAndForms(t *testing.T) {
	got := Sanitize(`<iframe src="https://evil"></iframe><form><input name="x"></form>ok`)
	for _, bad := range []string{"iframe", "<form", "<input"} {
		if strings.Contains(got, bad) {
			t.Errorf("%s survived: %q", bad, got)
		}
	}
}

func TestStripTags(t *testing.T) {
	if got := StripTags(" <b>Respite</b> & care "); got != "Respite & care" {
		t.Errorf("StripTags = %q", got)
	}
}

func TestStripAll(t *testing.T) {
	got := StripAll([]string{"<i>cna</i>", "  ", "<script>x</script>", "hha"})
	want := []string{"cna", "hha"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StripAll = %v, want %v", got, want)
	}
}
