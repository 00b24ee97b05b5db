package render

import (
	"strings"
	"testing"
)

func TestRenderStatus(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	out, err := e.Render("status.tmpl", struct {
		Total, Active, Shutoff, Other int
	}{Total: 3, Active: 2, Shutoff: 1})
	if err != nil {
		t.Fatalf("Render(status) error = %v", err)
	}
	for _, want := range []string{"Machines: 3", "Active: 2", "Shutoff: 1", "Other: 0"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderDetailEscapesName(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	out, err := e.Render("detail.tmpl", map[string]any{
		"Name":      "web<1>",
		"Glyph":     "🟢",
		"Status":    "ACTIVE",
		"HasFlavor": false,
	})
	if err != nil {
		t.Fatalf("Render(detail) error = %v", err)
	}
	if strings.Contains(out, "web<1>") {
		t.Errorf("machine name not escaped for HTML parse mode:\n%s", out)
	}
	if !strings.Contains(out, "web&lt;1&gt;") {
		t.Errorf("expected escaped name in output:\n%s", out)
	}
	if strings.Contains(out, "Flavor:") {
		t.Errorf("flavor line rendered without flavor data:\n%s", out)
	}
}

func TestRenderDetailWithFlavor(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	out, err := e.Render("detail.tmpl", map[string]any{
		"Name":       "web1",
		"Glyph":      "🔴",
		"Status":     "SHUTOFF",
		"HasFlavor":  true,
		"FlavorName": "m1.small",
		"VCPUs":      2,
		"RAM":        2048,
		"Disk":       20,
	})
	if err != nil {
		t.Fatalf("Render(detail) error = %v", err)
	}
	if !strings.Contains(out, "m1.small (2 vCPU, 2048 MiB RAM, 20 GiB disk)") {
		t.Errorf("flavor line wrong:\n%s", out)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := e.Render("nope.tmpl", nil); err == nil {
		t.Error("Render(nope) error = nil, want error")
	}
}

func TestNilEngine(t *testing.T) {
	var e *Engine
	if _, err := e.Render("help.tmpl", nil); err == nil {
		t.Error("nil engine Render error = nil, want error")
	}
}
