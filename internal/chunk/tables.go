package chunk

import (
	"regexp"
	"sort"
	"strings"
)

// tableRegion is a half-open [start, end) byte span of text identified as
// tabular content.
type tableRegion struct {
	start int
	end   int
}

var (
	// Runs of pipe-delimited grid lines (markdown-style tables).
	pipeTablePattern = regexp.MustCompile(`(?:\|[^\n]*\|[^\n]*\n)+(?:\|[^\n]*\|[^\n]*)?`)

	// Runs of two or more indented lines with three or more aligned columns.
	alignedTablePattern = regexp.MustCompile(`(?m)(?:^[ \t]{2,}\S+[ \t]+\S+[ \t]+\S+[^\n]*\n?){2,}`)

	// A "Table N" or "Table N.M" caption line; the block it opens is scanned
	// forward by captionedRegion.
	tableCaptionPattern = regexp.MustCompile(`(?m)^Table[ \t]+\d+(?:\.\d+)?[^\n]*`)
)

// detectTableRegions finds every table-like span in text. Matches from all
// pattern classes are collected, sorted by start offset, and overlapping
// spans are merged so the caller can walk the text left to right without
// emitting any byte twice.
func detectTableRegions(text string) []tableRegion {
	var regions []tableRegion

	for _, loc := range pipeTablePattern.FindAllStringIndex(text, -1) {
		regions = append(regions, tableRegion{start: loc[0], end: loc[1]})
	}
	for _, loc := range alignedTablePattern.FindAllStringIndex(text, -1) {
		regions = append(regions, tableRegion{start: loc[0], end: loc[1]})
	}
	for _, loc := range tableCaptionPattern.FindAllStringIndex(text, -1) {
		regions = append(regions, captionedRegion(text, loc[0], loc[1]))
	}

	if len(regions) == 0 {
		return nil
	}

	sort.Slice(regions, func(i, j int) bool {
		if regions[i].start != regions[j].start {
			return regions[i].start < regions[j].start
		}
		return regions[i].end > regions[j].end
	})

	merged := regions[:1]
	for _, r := range regions[1:] {
		last := &merged[len(merged)-1]
		if r.start <= last.end {
			if r.end > last.end {
				last.end = r.end
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// captionedRegion extends a "Table N" caption line forward over its body:
// subsequent lines belong to the table until a blank line, a line starting
// with an uppercase letter, or the end of text.
func captionedRegion(text string, start, captionEnd int) tableRegion {
	end := captionEnd
	for end < len(text) {
		if text[end] == '\n' {
			end++
		}
		lineEnd := strings.IndexByte(text[end:], '\n')
		if lineEnd < 0 {
			lineEnd = len(text) - end
		}
		line := text[end : end+lineEnd]
		if line == "" || isUpperASCII(line[0]) {
			// Block ends before this line; back off the consumed newline.
			if end > captionEnd {
				end--
			}
			return tableRegion{start: start, end: end}
		}
		end += lineEnd
	}
	return tableRegion{start: start, end: len(text)}
}

func isUpperASCII(b byte) bool {
	return b >= 'A' && b <= 'Z'
}
