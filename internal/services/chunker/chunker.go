package chunker

import (
	"strings"

	"github.com/ternarybob/citatum/internal/models"
)

// Split breaks extracted text into chunks of at most maxChars characters.
//
// Segment texts are joined with a single space, the joined text is split on
// splitTag, and lines whose trimmed length is one character or less are
// dropped as layout noise. Surviving lines accumulate greedily into a
// chunk, joined by single spaces, closing the chunk whenever adding the
// next line would exceed maxChars. A single line longer than maxChars
// becomes a chunk on its own.
//
// Every chunk carries the first segment's page and section. For multi-page
// documents that makes page attribution coarse: a chunk assembled from
// later pages still cites the first page.
func Split(segments []models.Segment, maxChars int, splitTag string) []models.Piece {
	if len(segments) == 0 || maxChars <= 0 {
		return nil
	}
	if splitTag == "" {
		splitTag = "\n"
	}

	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		texts = append(texts, seg.Text)
	}
	joined := strings.Join(texts, " ")

	var lines []string
	for _, line := range strings.Split(joined, splitTag) {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) <= 1 {
			continue
		}
		lines = append(lines, trimmed)
	}

	first := segments[0]
	var pieces []models.Piece
	emit := func(text string) {
		pieces = append(pieces, models.Piece{
			Text:       text,
			PageNumber: first.PageNumber,
			Section:    first.Section,
		})
	}

	var current strings.Builder
	for _, line := range lines {
		if current.Len() == 0 {
			if len(line) > maxChars {
				emit(line)
				continue
			}
			current.WriteString(line)
			continue
		}

		// +1 for the joining space
		if current.Len()+1+len(line) > maxChars {
			emit(current.String())
			current.Reset()
			if len(line) > maxChars {
				emit(line)
				continue
			}
			current.WriteString(line)
			continue
		}

		current.WriteByte(' ')
		current.WriteString(line)
	}
	if current.Len() > 0 {
		emit(current.String())
	}

	return pieces
}
