package request

import (
	"sort"
	"strconv"
	"strings"
)

type acceptEntry struct {
	contentType string
	quality     float64
}

// ParseAccept parses the value of an Accept header into a list of
// content types ordered by descending quality. Entries with the same
// quality keep the order in which they appear in the header. A missing
// quality counts as 1 and a quality that cannot be parsed counts as 0
func ParseAccept(header string) []string {
	if len(strings.TrimSpace(header)) == 0 {
		return []string{}
	}

	var entries []acceptEntry
	for _, part := range strings.Split(header, ",") {
		fields := strings.Split(part, ";")
		contentType := strings.TrimSpace(fields[0])
		if len(contentType) == 0 {
			continue
		}

		entry := acceptEntry{contentType: contentType, quality: 1}
		for _, field := range fields[1:] {
			field = strings.TrimSpace(field)
			if !strings.HasPrefix(field, "q=") {
				continue
			}

			q, err := strconv.ParseFloat(strings.TrimPrefix(field, "q="), 64)
			if err != nil {
				q = 0
			}
			entry.quality = q
		}

		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].quality > entries[j].quality
	})

	contentTypes := make([]string, 0, len(entries))
	for _, entry := range entries {
		contentTypes = append(contentTypes, entry.contentType)
	}

	return contentTypes
}
