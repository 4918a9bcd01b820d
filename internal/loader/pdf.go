package loader

import (
	"fmt"

	"docqa/internal/domain"

	"github.com/ledongthuc/pdf"
)

// PDFLoader returns one page per PDF page, numbered from zero.
type PDFLoader struct{}

func (PDFLoader) Load(path string) (pages []domain.Page, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: parse %s: %v", domain.ErrUnsupportedFormat, path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrUnsupportedFormat, path, err)
	}
	defer f.Close()

	n := r.NumPage()
	pages = make([]domain.Page, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, domain.Page{Number: i - 1})
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: extract page %d of %s: %v", domain.ErrUnsupportedFormat, i, path, err)
		}
		pages = append(pages, domain.Page{Number: i - 1, Text: text})
	}
	return pages, nil
}
