package fonts

import (
	"strings"
	"testing"
)

func TestLoadAliases(t *testing.T) {
	for _, name := range []string{"embed:go-regular", "go-regular", "GO-BOLD.ttf", "embed:go-italic.ttf"} {
		data, err := Load(name)
		if err != nil {
			t.Fatalf("Load(%q) error: %v", name, err)
		}
		if len(data) == 0 {
			t.Fatalf("Load(%q) returned empty data", name)
		}
	}
}

func TestLoadUnknown(t *testing.T) {
	_, err := Load("embed:Inter/static/Inter-Regular.ttf")
	if err == nil {
		t.Fatalf("expected error for unknown font")
	}
	for _, name := range Names() {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("error should list available font %q: %v", name, err)
		}
	}
}

func TestNamesAreLoadable(t *testing.T) {
	for _, name := range Names() {
		if _, err := Load(name); err != nil {
			t.Fatalf("Names() lists %q but Load fails: %v", name, err)
		}
	}
}
