package browser

// Injected scripts. These run inside the page context and are the only
// place layout is read or mutated; everything above works in the CSS
// coordinates they report.

// waitFontsJS resolves once web fonts are loaded, so glyph metrics stop
// moving between measurements.
const waitFontsJS = `
(async () => { try { if (document.fonts && document.fonts.ready) { await document.fonts.ready; } } catch (e) {} })()
`

// flushLayoutJS resolves after two animation frames, forcing pending
// reflow to complete before the next measurement.
const flushLayoutJS = `
new Promise(r => requestAnimationFrame(() => requestAnimationFrame(r)))
`

// hideChromeJS strips site furniture and makes the page background
// transparent so crops composite cleanly.
const hideChromeJS = `
(() => {
  const hide = id => { const el = document.getElementById(id); if (el) el.style.display = 'none'; };
  hide('mw-panel'); hide('vector-toc'); hide('siteNotice');
  const html = document.documentElement;
  const body = document.body;
  html.style.background = 'transparent';
  html.style.backgroundColor = 'transparent';
  body.style.background = 'transparent';
  body.style.backgroundColor = 'transparent';
})()
`

// markMatchesJS walks body text nodes and wraps each occurrence of the
// term in an inline-block span with stable metrics, returning the span
// ids in document order. Whole-word boundaries are letters, digits and
// underscore; NBSP is normalized to a plain space before matching.
const markMatchesJS = `
(opts => {
  const { term, caseSensitive, wholeWord, maxMatches, highlightAll } = opts;

  function isWordChar(ch) { return !!ch && /[\p{L}\p{N}_]/u.test(ch); }
  function normalizeSpaces(str) { return String(str).replace(/[\s\u00A0]/g, ' '); }

  const walker = document.createTreeWalker(document.body, NodeFilter.SHOW_TEXT);
  const ids = [];

  while (walker.nextNode()) {
    if (!highlightAll && maxMatches && ids.length >= maxMatches) break;

    const n = walker.currentNode;
    let t = normalizeSpaces(n.nodeValue || '');
    if (!t) continue;

    const hay = caseSensitive ? t : t.toLowerCase();
    const needle = caseSensitive ? term : term.toLowerCase();
    let i = 0, last = 0;
    const frags = [];
    const spans = [];

    while ((i = hay.indexOf(needle, i)) !== -1) {
      const start = i, end = i + needle.length;
      if (wholeWord) {
        const prev = start > 0 ? t[start - 1] : '';
        const next = end < t.length ? t[end] : '';
        if (isWordChar(prev) || isWordChar(next)) { i = end; continue; }
      }
      frags.push(document.createTextNode(t.slice(last, start)));
      const span = document.createElement('span');
      span.textContent = t.slice(start, end);
      span.setAttribute('data-ws-mark', '1');
      span.style.display = 'inline-block';
      span.style.lineHeight = '1';
      span.style.verticalAlign = 'baseline';
      spans.push(span);
      frags.push(span);
      last = end;
      i = end;
      if (!highlightAll && maxMatches && (ids.length + spans.length) >= maxMatches) break;
    }

    if (frags.length) {
      frags.push(document.createTextNode(t.slice(last)));
      const parent = n.parentNode;
      for (const f of frags) parent.insertBefore(f, n);
      parent.removeChild(n);
      for (const span of spans) {
        const id = 'ws_mark_' + ids.length;
        span.id = id;
        ids.push(id);
        if (!highlightAll && maxMatches && ids.length >= maxMatches) break;
      }
    }
  }

  if (highlightAll && !document.getElementById('ws-mark-style')) {
    const style = document.createElement('style');
    style.id = 'ws-mark-style';
    style.textContent = "span[data-ws-mark]{background:rgba(255,230,80,.85);box-shadow:0 0 0 2px rgba(0,0,0,.15) inset;line-height:1;vertical-align:baseline;}";
    document.head.appendChild(style);
  }
  return ids;
})
`

// getRectJS reports the document-space bounding box of a mark, or null
// when it no longer exists.
const getRectJS = `
(id => {
  const el = document.getElementById(id);
  if (!el) return null;
  const r = el.getBoundingClientRect();
  return { x: r.left + window.scrollX, y: r.top + window.scrollY, w: r.width, h: r.height };
})
`

// pageSizeJS reports the full scrollable document extent.
const pageSizeJS = `
({ w: document.documentElement.scrollWidth, h: document.documentElement.scrollHeight })
`

// setPaddingJS grows the document at its vertical edges so a crop near a
// boundary can still be centered.
const setPaddingJS = `
(pads => {
  const s = document.body.style;
  s.paddingTop = pads[0] + 'px';
  s.paddingBottom = pads[1] + 'px';
})
`

// captureElementJS places (or moves) an absolutely positioned capture
// target covering the clip region, for the element-screenshot fallback.
const captureElementJS = `
(cfg => {
  const { id, x, y, w, h } = cfg;
  let el = document.getElementById(id);
  if (!el) {
    el = document.createElement('div');
    el.id = id;
    document.body.appendChild(el);
  }
  Object.assign(el.style, {
    position: 'absolute',
    left: x + 'px',
    top: y + 'px',
    width: w + 'px',
    height: h + 'px',
    background: 'transparent',
    outline: 'none',
    pointerEvents: 'none',
    zIndex: '2147483647',
    transform: 'translateZ(0)'
  });
})
`

// removeElementJS deletes a capture target after use.
const removeElementJS = `
(id => { const el = document.getElementById(id); if (el) el.remove(); })
`
