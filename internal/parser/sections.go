package parser

import (
	"fmt"
	"regexp"
	"strings"

	"legaldoc-pipeline/models"
)

// headerPattern recognizes one heading token class. Depth is assigned by
// token class, not by nesting punctuation, per spec.md §4.5: § and Art = 1,
// Absatz = 2, Ziffer/Nr = 3, plain numbered lines = 4.
type headerPattern struct {
	re    *regexp.Regexp
	depth int
}

var headerPatterns = []headerPattern{
	{re: regexp.MustCompile(`^§(\d+(?:\.\d+)*[a-z]?)\b(.*)$`), depth: 1},
	{re: regexp.MustCompile(`(?i)^Art\.?\s*(\d+(?:\.\d+)*[a-z]?)\b(.*)$`), depth: 1},
	{re: regexp.MustCompile(`(?i)^Absatz\s*(\d+(?:\.\d+)*)\b(.*)$`), depth: 2},
	{re: regexp.MustCompile(`(?i)^(?:Ziffer|Nr\.?)\s*(\d+(?:\.\d+)*)\b(.*)$`), depth: 3},
	{re: regexp.MustCompile(`^(\d+)[.)]\s+(.*)$`), depth: 4},
}

// Options configures chunking size limits, mirroring spec.md §6 config keys.
type Options struct {
	MaxChunkSize int // default 1000
	ChunkOverlap int // default 100
}

type header struct {
	lineIdx   int
	depth     int
	sectionID string
	tailText  string
}

// Parse splits normalized document text into an ordered, parent/child
// forest of chunks, per spec.md §4.5. Grounded on the teacher's
// services/smart_chunking.go (paragraph/overlap mechanics) and
// bbiangul-go-reason/chunker/legal.go's clause-depth idiom, adapted from
// dotted numerals to the spec's §/Art./Absatz/Ziffer token classes.
func Parse(documentID, text string, opts Options) []models.Chunk {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	lines := strings.Split(normalized, "\n")
	headers := detectHeaders(lines)

	var chunks []models.Chunk
	position := 0

	if len(headers) == 0 {
		for _, piece := range windowedSplit(normalized, "doc", opts) {
			if strings.TrimSpace(piece.text) == "" {
				continue
			}
			chunks = append(chunks, models.Chunk{
				ID:         fmt.Sprintf("%s-c%d", documentID, position),
				DocumentID: documentID,
				SectionID:  piece.sectionID,
				Content:    piece.text,
				ChunkType:  models.ChunkParagraph,
				Position:   position,
			})
			position++
		}
		return chunks
	}

	// parentStack[d] holds the most recently opened section_id at depth d.
	parentStack := make(map[int]string)

	for i, h := range headers {
		endLine := len(lines)
		if i+1 < len(headers) {
			endLine = headers[i+1].lineIdx
		}
		body := strings.TrimSpace(strings.Join(append([]string{h.tailText}, lines[h.lineIdx+1:endLine]...), "\n"))
		if body == "" {
			continue
		}

		var parentID *string
		if pid, ok := nearestParent(parentStack, h.depth); ok {
			parentID = &pid
		}
		parentStack[h.depth] = h.sectionID
		clearDeeper(parentStack, h.depth)

		chunkType := chunkTypeForDepth(h.depth)

		for _, piece := range windowedSplit(body, h.sectionID, opts) {
			if strings.TrimSpace(piece.text) == "" {
				continue
			}
			id := fmt.Sprintf("%s-c%d", documentID, position)
			chunks = append(chunks, models.Chunk{
				ID:         id,
				DocumentID: documentID,
				SectionID:  piece.sectionID,
				ParentID:   parentID,
				Content:    piece.text,
				ChunkType:  chunkType,
				Position:   position,
			})
			position++
		}
	}

	return chunks
}

func chunkTypeForDepth(depth int) models.ChunkType {
	switch depth {
	case 1:
		return models.ChunkSection
	case 2:
		return models.ChunkSubsection
	case 3:
		return models.ChunkClause
	default:
		return models.ChunkParagraph
	}
}

// nearestParent walks up from depth-1 looking for the closest enclosing
// section of strictly smaller depth.
func nearestParent(stack map[int]string, depth int) (string, bool) {
	for d := depth - 1; d >= 1; d-- {
		if id, ok := stack[d]; ok {
			return id, true
		}
	}
	return "", false
}

func clearDeeper(stack map[int]string, depth int) {
	for d := range stack {
		if d > depth {
			delete(stack, d)
		}
	}
}

func detectHeaders(lines []string) []header {
	var headers []header
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		for _, hp := range headerPatterns {
			m := hp.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			headers = append(headers, header{
				lineIdx:   i,
				depth:     hp.depth,
				sectionID: sectionLabel(hp.depth, m[1]),
				tailText:  strings.TrimSpace(m[2]),
			})
			break
		}
	}
	return headers
}

func sectionLabel(depth int, num string) string {
	switch depth {
	case 1:
		return "§" + num
	case 2:
		return "Absatz " + num
	case 3:
		return "Ziffer " + num
	default:
		return "Nr. " + num
	}
}

type piece struct {
	sectionID string
	text      string
}

// windowedSplit breaks an oversized section into overlapping windows, per
// spec.md §4.5: split pieces share the section_id with a suffix index.
func windowedSplit(text string, sectionID string, opts Options) []piece {
	maxSize := opts.MaxChunkSize
	if maxSize <= 0 {
		maxSize = 1000
	}
	overlap := opts.ChunkOverlap
	if overlap < 0 || overlap >= maxSize {
		overlap = 0
	}

	if len(text) <= maxSize {
		return []piece{{sectionID: sectionID, text: text}}
	}

	var pieces []piece
	start := 0
	idx := 0
	for start < len(text) {
		end := start + maxSize
		if end > len(text) {
			end = len(text)
		}
		label := sectionID
		if idx > 0 {
			label = fmt.Sprintf("%s.%d", sectionID, idx+1)
		}
		pieces = append(pieces, piece{sectionID: label, text: strings.TrimSpace(text[start:end])})
		if end == len(text) {
			break
		}
		start = end - overlap
		idx++
	}
	return pieces
}
