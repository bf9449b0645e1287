package documents

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseResumeMissingFile(t *testing.T) {
	if _, err := ParseResume(filepath.Join(t.TempDir(), "nope.pdf")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseResumeNotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "texto.pdf")
	if err := os.WriteFile(path, []byte("esto no es un pdf"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	if _, err := ParseResume(path); err == nil {
		t.Fatal("expected error for a file that is not a pdf")
	}
}

func TestDocumentID(t *testing.T) {
	cases := []struct {
		path     string
		expected string
	}{
		{"data/cvs/juan_perez.pdf", "juan_perez"},
		{"backend_dev.txt", "backend_dev"},
		{"/abs/path/maria.lopez.pdf", "maria.lopez"},
		{"sin_extension", "sin_extension"},
	}

	for _, tc := range cases {
		if got := DocumentID(tc.path); got != tc.expected {
			t.Fatalf("DocumentID(%q) = %q, expected %q", tc.path, got, tc.expected)
		}
	}
}
