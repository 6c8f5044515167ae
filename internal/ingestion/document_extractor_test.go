package ingestion

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>
<w:p><w:r><w:t>Skills</w:t></w:r></w:p>
<w:p><w:r><w:t>Python,</w:t></w:r><w:r><w:t xml:space="preserve"> Docker</w:t></w:r></w:p>
</w:body>
</w:document>`

const documentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

// buildDOCX assembles a minimal word document in memory
func buildDOCX(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// buildPDF writes a single-page PDF with one text line per entry. Lines must
// not contain parentheses or backslashes.
func buildPDF(t *testing.T, lines []string) []byte {
	t.Helper()

	var content strings.Builder
	content.WriteString("BT\n/F1 12 Tf\n14 TL\n72 720 Td\n")
	for _, line := range lines {
		fmt.Fprintf(&content, "(%s) Tj\nT*\n", line)
	}
	content.WriteString("ET")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtractText_PDF(t *testing.T) {
	data := buildPDF(t, []string{
		"Jane Doe",
		"jane.doe@example.com",
		"Backend engineer with six years of Python and Docker experience",
	})

	text, err := ExtractText(data, "Jane_Doe_CV.pdf")
	require.NoError(t, err)

	assert.Contains(t, text, "Jane Doe")
	assert.Contains(t, text, "jane.doe@example.com")
	assert.Contains(t, text, "Python and Docker")
	assert.False(t, IsDegraded(text))
}

func TestExtractText_DOCX(t *testing.T) {
	data := buildDOCX(t, map[string]string{
		"word/document.xml":            documentXML,
		"word/_rels/document.xml.rels": documentRels,
	})

	text, err := ExtractText(data, "Jane_Doe_CV.DOCX")
	require.NoError(t, err)

	assert.Contains(t, text, "Jane Doe")
	assert.Contains(t, text, "Python, Docker")
	assert.NotContains(t, text, "<w:t>")
	assert.Equal(t, "Jane Doe", strings.Split(text, "\n")[0])
}

func TestExtractText_CorruptDocuments(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		filename string
	}{
		{"empty docx", nil, "cv.docx"},
		{"docx that is not a zip", []byte("plain text pretending"), "cv.docx"},
		{"docx without document.xml", buildDOCX(t, map[string]string{"other.xml": "<a/>"}), "cv.docx"},
		{"pdf without header", []byte("not a pdf at all"), "cv.pdf"},
		{"truncated pdf", []byte("%PDF-1.4\n1 0 obj\n"), "cv.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractText(tt.data, tt.filename)
			require.Error(t, err)
			assert.False(t, errors.Is(err, ErrUnsupportedFormat))
			assert.Contains(t, err.Error(), "failed to extract text from "+tt.filename)
		})
	}
}

// TestExtractText_UnsupportedType tests that unsupported file types return ErrUnsupportedFormat
func TestExtractText_UnsupportedType(t *testing.T) {
	tests := []string{
		"test.txt",
		"test.doc",
		"test.jpg",
		"test.xlsx",
		"no_extension",
	}

	for _, filename := range tests {
		t.Run(filename, func(t *testing.T) {
			_, err := ExtractText([]byte("content"), filename)
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("ExtractText(%q) error = %v, want ErrUnsupportedFormat", filename, err)
			}
			if IsSupported(filename) {
				t.Errorf("IsSupported(%q) = true", filename)
			}
		})
	}
}

func TestIsSupported(t *testing.T) {
	for _, name := range []string{"a.pdf", "b.PDF", "c.docx", "dir/d.Docx"} {
		assert.True(t, IsSupported(name), name)
	}
}

func TestStripDocxXML(t *testing.T) {
	raw := `<w:body><w:p><w:r><w:t>Name</w:t><w:tab/><w:t>Role</w:t></w:r></w:p><w:p><w:r><w:t>Line</w:t><w:br/><w:t>Break</w:t></w:r></w:p></w:body>`
	assert.Equal(t, "Name\tRole\nLine\nBreak", stripDocxXML(raw))

	// malformed XML is returned untouched
	assert.Equal(t, "<w:p>unclosed", stripDocxXML("<w:p>unclosed"))
}

func TestIsDegraded(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", true},
		{"whitespace", "   \n\n\t", true},
		{"too short", "Jane Doe\nEngineer", true},
		{"raw pdf bytes", "%PDF-1.7 " + strings.Repeat("x", 100), true},
		{"usable", "Jane Doe\nSoftware Engineer with five years building backend services in Go.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDegraded(tt.text))
		})
	}
}

// TestIsBinaryData_PlainText tests that plain text is not detected as binary
func TestIsBinaryData_PlainText(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Simple text", "This is a plain text CV with normal content."},
		{"Multi-line text", "John Doe\nSoftware Engineer\n5 years experience"},
		{"Text with special chars", "Education: Bachelor's Degree in Computer Science\nGPA: 3.8/4.0"},
		{"Empty string", ""},
		{"Text with tabs and newlines", "Name:\tJohn\nTitle:\tEngineer\nYears:\t5"},
		{"Few non-printable chars", "John Doe - Software Engineer\x00\nExperience: 5 years\nEducation: BS Computer Science"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if IsBinaryData(tt.content) {
				t.Errorf("IsBinaryData() returned true for plain text: %q", tt.content)
			}
		})
	}
}

// TestIsBinaryData_Binary tests that PDF, ZIP and control-heavy content is detected as binary
func TestIsBinaryData_Binary(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"PDF header v1.4", "%PDF-1.4\n%âãÏÓ\n"},
		{"PDF header v1.7", "%PDF-1.7\n%%EOF"},
		{"ZIP magic number", "PK\x03\x04"},
		{"High non-printable ratio", strings.Repeat("\x01", 400) + strings.Repeat("x", 600)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !IsBinaryData(tt.content) {
				t.Errorf("IsBinaryData() returned false for binary content")
			}
		})
	}
}
