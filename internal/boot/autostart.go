package boot

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultBootScript is the script tag that starts the application
const DefaultBootScript = "blazor.webassembly.js"

// ShouldAutoStart reports whether the host page starts the application on
// its own. The boot script tag opts out with autostart="false"; a page
// without the tag does not boot.
func ShouldAutoStart(hostPage io.Reader, scriptName string) (bool, error) {
	doc, err := goquery.NewDocumentFromReader(hostPage)
	if err != nil {
		return false, fmt.Errorf("failed to parse host page: %w", err)
	}

	found, autostart := false, false
	doc.Find("script[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, _ := sel.Attr("src")
		if i := strings.IndexAny(src, "?#"); i >= 0 {
			src = src[:i]
		}
		if path.Base(src) != scriptName {
			return true
		}
		found = true
		value, _ := sel.Attr("autostart")
		autostart = value != "false"
		return false
	})

	return found && autostart, nil
}

// ProgressElementID is the host page element that shows boot progress
const ProgressElementID = "blazorBootPercentage"

// HasProgressElement reports whether the host page has a progress display
func HasProgressElement(hostPage io.Reader) (bool, error) {
	doc, err := goquery.NewDocumentFromReader(hostPage)
	if err != nil {
		return false, fmt.Errorf("failed to parse host page: %w", err)
	}
	return doc.Find("#"+ProgressElementID).Length() > 0, nil
}
