package resumes

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText pulls plain text from an in-memory PDF resume so the bridge
// payload can carry resume content alongside the download URL. Non-PDF data
// yields an empty string rather than an error; the text is an enrichment,
// never a requirement.
func ExtractText(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return "", nil
	}
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
