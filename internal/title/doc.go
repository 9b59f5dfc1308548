// Package title derives a clean, searchable media title from a raw release
// filename.
//
// Release names mix bracketed group tags, dotted Latin tokens, CJK runs,
// season and year markers, and quality/codec noise. Extraction runs a fixed
// rule cascade over the extension-stripped name; the first rule that produces
// a usable result wins. Extraction is best-effort and never fails: when no
// rule yields at least two characters the extension-stripped original is
// returned unchanged.
package title
