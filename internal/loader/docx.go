package loader

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"docqa/internal/domain"
)

const documentPart = "word/document.xml"

// DocxLoader reads the main document part of a Word file. Explicit page
// breaks start a new page; without any the whole document is page 0.
type DocxLoader struct{}

func (DocxLoader) Load(path string) ([]domain.Page, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrUnsupportedFormat, path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != documentPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s in %s: %v", domain.ErrUnsupportedFormat, documentPart, path, err)
		}
		defer rc.Close()
		pages, err := parseDocumentXML(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrUnsupportedFormat, path, err)
		}
		return pages, nil
	}
	return nil, fmt.Errorf("%w: %s has no %s", domain.ErrUnsupportedFormat, path, documentPart)
}

// parseDocumentXML walks WordprocessingML runs. Text comes only from w:t
// elements; paragraphs end with a newline.
func parseDocumentXML(r io.Reader) ([]domain.Page, error) {
	dec := xml.NewDecoder(r)

	var (
		pages  []domain.Page
		b      strings.Builder
		inText bool
	)
	flush := func() {
		pages = append(pages, domain.Page{Number: len(pages), Text: b.String()})
		b.Reset()
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "cr":
				b.WriteByte('\n')
			case "br":
				if attr(t, "type") == "page" {
					flush()
				} else {
					b.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	flush()
	return pages, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
