package timeline

import (
	"fmt"
	"strings"
)

// ScriptJSX serializes the timeline as an After Effects ExtendScript.
// The output is a pure function of the timeline: identical inputs
// produce byte-identical scripts, since the authoring application is
// driven by text diffing-sensitive tooling downstream.
//
// Every layer is placed at the composition center, shifted by its
// residual offset scaled into comp pixels, and bounded by inPoint and
// outPoint so visibility follows from timing alone.
func (t *Timeline) ScriptJSX() string {
	var b strings.Builder

	b.WriteString("(function() {\n")
	b.WriteString("  function getOrCreateProject() { if (!app.project) app.newProject(); return app.project; }\n")
	b.WriteString("  function scaleToFillAndCenter(layer, compW, compH, baseScale, dxCss, dyCss, dpr) {\n")
	b.WriteString("    var srcW = layer.source.width, srcH = layer.source.height;\n")
	b.WriteString("    var s = Math.max((compW / srcW) * 100, (compH / srcH) * 100) * (baseScale / 100.0);\n")
	b.WriteString("    layer.property('Scale').setValue([s, s]);\n")
	b.WriteString("    var shiftX = (-dxCss * dpr) * (s / 100.0);\n")
	b.WriteString("    var shiftY = (-dyCss * dpr) * (s / 100.0);\n")
	b.WriteString("    layer.property('Position').setValue([compW / 2 + shiftX, compH / 2 + shiftY]);\n")
	b.WriteString("  }\n")
	b.WriteString("  app.beginUndoGroup('WikiSplice Collage');\n")
	b.WriteString("  var proj = getOrCreateProject();\n")
	fmt.Fprintf(&b, "  var comp = proj.items.addComp(%s, %d, %d, 1.0, %.6f, %.6f);\n",
		jsString(t.CompName), t.Width, t.Height, t.Duration(), t.FPS)
	b.WriteString("  var folder = proj.items.addFolder('WikiCrops');\n")

	b.WriteString("  var items = [\n")
	for _, l := range t.Layers {
		fmt.Fprintf(&b, "    { path: %s, dx: %.6f, dy: %.6f, inT: %.6f, outT: %.6f },\n",
			jsString(l.Path), l.DX, l.DY, l.StartTime(t.FPS), l.EndTime(t.FPS))
	}
	b.WriteString("  ];\n")

	b.WriteString("  for (var i = 0; i < items.length; i++) {\n")
	b.WriteString("    var rec = items[i];\n")
	b.WriteString("    var f = new File(rec.path);\n")
	b.WriteString("    if (!f.exists) continue;\n")
	b.WriteString("    var it = proj.importFile(new ImportOptions(f));\n")
	b.WriteString("    it.parentFolder = folder;\n")
	b.WriteString("    var L = comp.layers.add(it);\n")
	b.WriteString("    L.startTime = rec.inT;\n")
	b.WriteString("    L.inPoint = rec.inT;\n")
	b.WriteString("    L.outPoint = rec.outT;\n")
	fmt.Fprintf(&b, "    scaleToFillAndCenter(L, %d, %d, %.6f, rec.dx, rec.dy, %.6f);\n",
		t.Width, t.Height, t.BaseScale, t.DPR)
	if t.Punch > 0 {
		b.WriteString("    var S = L.property('Scale');\n")
		b.WriteString("    var sNow = S.value[0];\n")
		b.WriteString("    S.setValueAtTime(L.inPoint, [sNow, sNow]);\n")
		fmt.Fprintf(&b, "    S.setValueAtTime(L.outPoint, [sNow * %.6f, sNow * %.6f]);\n",
			1.0+t.Punch, 1.0+t.Punch)
		b.WriteString("    S.setInterpolationTypeAtKey(1, KeyframeInterpolationType.BEZIER);\n")
		b.WriteString("    S.setInterpolationTypeAtKey(2, KeyframeInterpolationType.BEZIER);\n")
	}
	b.WriteString("  }\n")
	b.WriteString("  comp.openInViewer();\n")
	b.WriteString("  app.endUndoGroup();\n")
	b.WriteString("})();\n")

	return b.String()
}

var jsEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)

func jsString(s string) string {
	return `"` + jsEscaper.Replace(s) + `"`
}
