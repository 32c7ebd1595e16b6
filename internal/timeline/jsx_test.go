package timeline

import (
	"strings"
	"testing"
)

func TestScriptJSXDeterministic(t *testing.T) {
	items := []Item{
		{Path: "/screens/001_01_Alpha.png", DX: 0.125, DY: -0.5},
		{Path: "/screens/002_01_Beta.png"},
	}
	p := testParams()
	p.Punch = 0.08

	tl, err := Generate(items, p)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	a := tl.ScriptJSX()
	b := tl.ScriptJSX()
	if a != b {
		t.Error("Identical timelines must serialize byte-identically")
	}
}

func TestScriptJSXLayerTiming(t *testing.T) {
	tl, err := Generate(testItems(2), testParams())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	script := tl.ScriptJSX()

	// Visibility comes from inPoint/outPoint, never from opacity or
	// layer stacking.
	for _, want := range []string{
		"L.inPoint = rec.inT;",
		"L.outPoint = rec.outT;",
		"inT: 0.000000, outT: 0.116667",
		"inT: 0.116667, outT: 0.233333",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("Script missing %q", want)
		}
	}
	if strings.Contains(script, "Opacity") {
		t.Error("Script must not drive visibility through opacity")
	}
}

func TestScriptJSXPunchKeyframes(t *testing.T) {
	p := testParams()
	p.Punch = 0.08
	tl, err := Generate(testItems(1), p)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	script := tl.ScriptJSX()
	if !strings.Contains(script, "sNow * 1.080000") {
		t.Error("Punch end keyframe missing")
	}
	if !strings.Contains(script, "KeyframeInterpolationType.BEZIER") {
		t.Error("Punch keyframes must use BEZIER interpolation")
	}
}

func TestScriptJSXNoPunch(t *testing.T) {
	tl, err := Generate(testItems(1), testParams())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if strings.Contains(tl.ScriptJSX(), "setValueAtTime") {
		t.Error("Zero punch must not emit scale keyframes")
	}
}

func TestScriptJSXEscapesPaths(t *testing.T) {
	items := []Item{{Path: `C:\shots\001 "final".png`}}
	tl, err := Generate(items, testParams())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	script := tl.ScriptJSX()
	if !strings.Contains(script, `"C:\\shots\\001 \"final\".png"`) {
		t.Errorf("Path not escaped for the script literal")
	}
}
