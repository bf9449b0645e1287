package documents

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const minJobDescriptionLength = 10

// ParseJobDescription reads a job posting from a plain text file and slices
// it into the four canonical sections. Postings come from many sources with
// many encodings, so decoding is tolerant: UTF-8, UTF-16 (either byte order,
// with or without BOM) and Windows-1252 are all accepted. When no section
// heading is recognizable all four sections stay empty.
func ParseJobDescription(path string) (*JobDescription, error) {
	text, err := readTextFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job description %q: %w", path, err)
	}

	if len(strings.TrimSpace(text)) < minJobDescriptionLength {
		return nil, fmt.Errorf("job description %q: text too short to be a posting", path)
	}

	sections := splitSections(text, jobSectionPatterns)

	return &JobDescription{
		ID:               DocumentID(path),
		Type:             TypeJobDescription,
		Description:      extractFreeText(dropHeadingLine(sections["description"])),
		Responsibilities: extractResponsibilities(dropHeadingLine(sections["responsibilities"])),
		Education:        extractKeywordLines(dropHeadingLine(sections["education"]), educationKeywords),
		Skills:           extractSkills(dropHeadingLine(sections["skills"])),
	}, nil
}

var (
	bomUTF8    = []byte{0xef, 0xbb, 0xbf}
	bomUTF16LE = []byte{0xff, 0xfe}
	bomUTF16BE = []byte{0xfe, 0xff}
)

// readTextFile decodes a text file of unknown encoding. BOMs decide first,
// then valid UTF-8 is taken as is, then Windows-1252 as the single-byte
// fallback that never fails.
func readTextFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	switch {
	case bytes.HasPrefix(raw, bomUTF8):
		return string(raw[len(bomUTF8):]), nil
	case bytes.HasPrefix(raw, bomUTF16LE):
		return decodeUTF16(raw, unicode.LittleEndian)
	case bytes.HasPrefix(raw, bomUTF16BE):
		return decodeUTF16(raw, unicode.BigEndian)
	}

	if utf8.Valid(raw) {
		return string(raw), nil
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode windows-1252: %w", err)
	}
	return string(decoded), nil
}

func decodeUTF16(raw []byte, endianness unicode.Endianness) (string, error) {
	decoder := unicode.UTF16(endianness, unicode.ExpectBOM).NewDecoder()
	decoded, err := decoder.Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode utf-16: %w", err)
	}
	return string(decoded), nil
}
