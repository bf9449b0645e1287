package documents

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ParseResume reads a candidate CV from a PDF file and slices it into the
// four canonical sections. The document id is the file name without its
// extension. A missing heading leaves the section empty; an unreadable or
// textless PDF is an error for this document only.
func ParseResume(path string) (*Resume, error) {
	text, err := extractPDFText(path)
	if err != nil {
		return nil, fmt.Errorf("extracting resume %q: %w", path, err)
	}

	sections := splitSections(text, resumeSectionPatterns)

	return &Resume{
		ID:         DocumentID(path),
		Type:       TypeResume,
		Profile:    extractFreeText(dropHeadingLine(sections["profile"])),
		Experience: extractKeywordLines(dropHeadingLine(sections["experience"]), experienceKeywords),
		Education:  extractKeywordLines(dropHeadingLine(sections["education"]), educationKeywords),
		Skills:     extractSkills(dropHeadingLine(sections["skills"])),
	}, nil
}

// extractPDFText concatenates the plain text of every page. Pages that fail
// to decode are skipped so one broken page does not lose the whole document.
func extractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var builder strings.Builder
	for pageIndex := 1; pageIndex <= r.NumPage(); pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		builder.WriteString(text)
		builder.WriteString("\n\n")
	}

	text := builder.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text content found in pdf")
	}

	return text, nil
}

// DocumentID derives the stable document identifier from a file path.
func DocumentID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
