// Package baseline supplies the genre-popularity baseline the gap analysis
// compares a market against: either the global genre map scraped from
// everynoise.com, or another market's own genre records.
package baseline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"marketscope/data"
	"marketscope/flatten"
	"marketscope/request"

	"github.com/PuerkitoBio/goquery"
)

const everynoiseURL = "https://everynoise.com"

// A Baseline maps normalized genre labels to popularity in [0, 100].
type Baseline map[string]float64

// Fetch scrapes the everynoise.com genre map and converts it into a
// popularity baseline.
func Fetch() (Baseline, error) {
	doc, err := request.FetchHTML(everynoiseURL)
	if err != nil {
		return nil, fmt.Errorf("error fetching genre map: %w", err)
	}
	return FromDocument(doc)
}

// FromRecords treats a reference market's genre records as the baseline.
func FromRecords(records []data.GenreRecord) Baseline {
	baseline := make(Baseline, len(records))
	for _, record := range records {
		baseline[record.Name] = record.MeanPopularity
	}
	return baseline
}

var fontSizeRE = regexp.MustCompile(`font-size:\s*(\d+)%`)

// FromDocument extracts genres from the parsed everynoise page. The page
// renders one div per genre, and scales each div's font size by how popular
// the genre is; we rescale the sizes onto [0, 100].
func FromDocument(doc *goquery.Document) (Baseline, error) {
	sizes := map[string]int64{}
	minSize, maxSize := int64(-1), int64(-1)

	var findErr error
	doc.Find("div.canvas > div").Each(func(i int, sel *goquery.Selection) {
		if findErr != nil {
			return
		}
		name := flatten.Normalize(strings.TrimSuffix(sel.Text(), "» "))
		if name == "" {
			return
		}
		style, found := sel.Attr("style")
		if !found {
			findErr = fmt.Errorf("genre '%s' has no style attribute", name)
			return
		}
		match := fontSizeRE.FindStringSubmatch(style)
		if match == nil {
			findErr = fmt.Errorf("genre '%s' has no font-size in style '%s'", name, style)
			return
		}
		size, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			findErr = fmt.Errorf("error parsing font-size for genre '%s': %w", name, err)
			return
		}

		sizes[name] = size
		if size < minSize || minSize < 0 {
			minSize = size
		}
		if size > maxSize {
			maxSize = size
		}
	})
	if findErr != nil {
		return nil, findErr
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("no genres found in genre map")
	}

	baseline := make(Baseline, len(sizes))
	for name, size := range sizes {
		if maxSize == minSize {
			baseline[name] = 50
			continue
		}
		baseline[name] = 100 * float64(size-minSize) / float64(maxSize-minSize)
	}
	return baseline, nil
}
