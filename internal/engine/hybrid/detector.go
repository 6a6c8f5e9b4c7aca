// internal/engine/hybrid/detector.go
package hybrid

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// frameworkMarkers maps a framework to attributes or globals its server
// shells carry before any client-side rendering happens.
var frameworkMarkers = []struct {
	name      string
	selectors []string
	inline    []string
}{
	{"React", []string{"[data-reactroot]", "#__next"}, []string{"__NEXT_DATA__", "_react"}},
	{"Vue", []string{"[data-v-app]", "#__nuxt"}, []string{"__NUXT__", "createApp("}},
	{"Angular", []string{"[ng-app]", "[ng-version]", "app-root"}, []string{"ng.probe"}},
	{"Svelte", []string{"[data-svelte-h]"}, []string{"__sveltekit"}},
}

// DetectJavaScriptFramework names the client-side framework a page is
// built on, or "Unknown"
func DetectJavaScriptFramework(doc *goquery.Document) string {
	inline := strings.ToLower(inlineScripts(doc))

	for _, fw := range frameworkMarkers {
		for _, sel := range fw.selectors {
			if doc.Find(sel).Length() > 0 {
				return fw.name
			}
		}
		for _, marker := range fw.inline {
			if strings.Contains(inline, strings.ToLower(marker)) {
				return fw.name
			}
		}
	}

	return "Unknown"
}

// NeedsJavaScript determines if a page likely needs JS rendering
func NeedsJavaScript(doc *goquery.Document) bool {
	scriptCount := doc.Find("script").Length()

	// If there are many scripts, likely needs JS
	if scriptCount > 5 {
		return true
	}

	if DetectJavaScriptFramework(doc) != "Unknown" {
		return true
	}

	// Thin markup driven by scripts is typical of SPAs
	if doc.Find("div").Length() < 3 && scriptCount > 0 {
		return true
	}

	return false
}

func inlineScripts(doc *goquery.Document) string {
	var b strings.Builder
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		if _, external := sel.Attr("src"); external {
			return
		}
		b.WriteString(sel.Text())
		b.WriteByte('\n')
	})
	return b.String()
}
