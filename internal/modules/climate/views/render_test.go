package views

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadTemplates_success(t *testing.T) {
	if err := LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates() = %v; want nil", err)
	}
	if welcomeTmpl == nil {
		t.Fatal("LoadTemplates() left welcomeTmpl nil")
	}
}

func TestLoadTemplates_failure_sub(t *testing.T) {
	// Empty FS has no "templates" directory; ParseFS finds no files.
	if err := loadTemplatesFromFS(fstest.MapFS{}, "templates"); err == nil {
		t.Fatal("loadTemplatesFromFS(emptyFS) = nil; want error")
	}
}

func TestLoadTemplates_failure_parse(t *testing.T) {
	badFS := fstest.MapFS{
		"templates/welcome.html": {Data: []byte("{{ .")},
	}
	if err := loadTemplatesFromFS(badFS, "templates"); err == nil {
		t.Fatal("loadTemplatesFromFS(badFS) = nil; want error")
	}
}

func TestRenderWelcome_notLoaded(t *testing.T) {
	prev := welcomeTmpl
	welcomeTmpl = nil
	t.Cleanup(func() { welcomeTmpl = prev })

	var buf bytes.Buffer
	err := RenderWelcome(&buf, &WelcomeData{})
	if err == nil {
		t.Fatal("RenderWelcome() = nil; want error when templates not loaded")
	}
	if !strings.Contains(err.Error(), "not loaded") {
		t.Errorf("err = %q; want message containing \"not loaded\"", err.Error())
	}
}

func TestRenderWelcome(t *testing.T) {
	if err := LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}
	var buf bytes.Buffer
	err := RenderWelcome(&buf, &WelcomeData{
		Routes: []Route{
			{Path: "/api/v1.0/stations", Description: "list of stations"},
			{Path: "/api/v1.0/<start>", Description: "stats from start", Hint: "Use YYYY-MM-DD."},
		},
		ReferenceDate: "2017-08-23",
		Cutoff:        "2016-08-23",
	})
	if err != nil {
		t.Fatalf("RenderWelcome: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"<b>/api/v1.0/stations</b> - list of stations",
		"<b>/api/v1.0/&lt;start&gt;</b>",
		"Use YYYY-MM-DD.",
		"2016-08-23 through 2017-08-23",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
