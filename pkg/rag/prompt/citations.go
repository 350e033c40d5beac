package prompt

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"ng12-assistant-be/pkg/store"
)

var (
	singleSourceRe = regexp.MustCompile(`\[Source\s*(\d+)\]`)
	multiSourceRe  = regexp.MustCompile(`\[Source\s*([\d,\s]+)\]`)
)

// formatCitationRef builds a human-readable reference for a chunk:
//
//	"NG12 §1.1.1, p.9"  for rule chunks with a section number
//	"NG12 Part B, p.43" for symptom index chunks
func formatCitationRef(chunk store.Chunk) string {
	if chunk.Metadata.DocType == "symptom_index" {
		return fmt.Sprintf("NG12 Part B, p.%d", chunk.Metadata.Page)
	}
	if chunk.Metadata.Section != "" {
		return fmt.Sprintf("NG12 §%s, p.%d", chunk.Metadata.Section, chunk.Metadata.Page)
	}
	return fmt.Sprintf("NG12 p.%d", chunk.Metadata.Page)
}

// BuildCitations extracts [Source N] references from the answer and maps
// them back to chunk metadata. Handles both single ([Source 1]) and multi
// ([Source 1, 2, 3]) forms. Returns only the chunks actually cited; when
// the answer carries no markers the result is empty rather than fabricated.
func BuildCitations(chunks []store.Chunk, answer string) []store.Citation {
	cited := map[int]struct{}{}

	for _, match := range singleSourceRe.FindAllStringSubmatch(answer, -1) {
		if idx, err := strconv.Atoi(match[1]); err == nil {
			if idx >= 1 && idx <= len(chunks) {
				cited[idx-1] = struct{}{}
			}
		}
	}

	for _, match := range multiSourceRe.FindAllStringSubmatch(answer, -1) {
		for _, numStr := range strings.Split(match[1], ",") {
			numStr = strings.TrimSpace(numStr)
			if idx, err := strconv.Atoi(numStr); err == nil {
				if idx >= 1 && idx <= len(chunks) {
					cited[idx-1] = struct{}{}
				}
			}
		}
	}

	if len(cited) == 0 {
		return []store.Citation{}
	}

	indices := make([]int, 0, len(cited))
	for i := range cited {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	citations := make([]store.Citation, 0, len(indices))
	for _, i := range indices {
		chunk := chunks[i]
		section := chunk.Metadata.Section
		if section == "" {
			section = "Part B"
		}
		excerpt := chunk.Text
		if len(excerpt) > 200 {
			excerpt = excerpt[:200]
		}
		chunkID := chunk.Metadata.ChunkID
		if chunkID == "" {
			chunkID = "unknown"
		}
		citations = append(citations, store.Citation{
			Source:  "NG12 PDF",
			Section: section,
			Page:    chunk.Metadata.Page,
			ChunkID: chunkID,
			Excerpt: excerpt,
		})
	}
	return citations
}

// CleanAnswerSources replaces [Source N] and [Source N, N, ...] markers
// with readable references, e.g. [NG12 §1.1.1, p.9] or [NG12 Part B, p.43].
func CleanAnswerSources(answer string, chunks []store.Chunk) string {
	// First pass: multi-source references [Source 1, 2, 3]
	answer = multiSourceRe.ReplaceAllStringFunc(answer, func(m string) string {
		sub := multiSourceRe.FindStringSubmatch(m)
		refs := make([]string, 0, 3)
		for _, numStr := range strings.Split(sub[1], ",") {
			numStr = strings.TrimSpace(numStr)
			if idx, err := strconv.Atoi(numStr); err == nil {
				if idx >= 1 && idx <= len(chunks) {
					refs = append(refs, formatCitationRef(chunks[idx-1]))
				}
			}
		}
		if len(refs) > 0 {
			return "[" + strings.Join(refs, "; ") + "]"
		}
		return m
	})

	// Second pass: any remaining single-source references [Source 1]
	answer = singleSourceRe.ReplaceAllStringFunc(answer, func(m string) string {
		sub := singleSourceRe.FindStringSubmatch(m)
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx < 1 || idx > len(chunks) {
			return m
		}
		return "[" + formatCitationRef(chunks[idx-1]) + "]"
	})

	return answer
}
