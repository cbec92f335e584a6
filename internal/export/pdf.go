package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/signintech/gopdf"
)

// Геометрия страницы: A4, поля 40pt по горизонтали, 50pt сверху,
// 60pt снизу, межстрочный интервал 15pt.
const (
	pageWidth  = 595.28
	pageHeight = 841.89

	marginX     = 40.0
	topY        = 50.0
	bottomY     = 60.0
	lineHeight  = 15.0
	titleSize   = 16
	titleLineH  = 22.0
	bodySize    = 11
	paragraphSp = 10.0

	fontFamily      = "NotoThai"
	regularFontFile = "NotoSansThai-Regular.ttf"
	boldFontFile    = "NotoSansThai-Bold.ttf"
)

// PDFRenderer рендерит текст истории в PDF. Файлы шрифтов читаются
// с диска один раз на процесс, независимо от числа вызовов Render.
type PDFRenderer struct {
	fontsDir string

	once    sync.Once
	regular []byte
	bold    []byte
	loadErr error
}

// NewPDFRenderer создает рендерер с указанной директорией шрифтов.
func NewPDFRenderer(fontsDir string) *PDFRenderer {
	return &PDFRenderer{fontsDir: fontsDir}
}

// loadFonts однократно читает TTF-файлы тайских шрифтов.
func (r *PDFRenderer) loadFonts() error {
	r.once.Do(func() {
		regularPath := filepath.Join(r.fontsDir, regularFontFile)
		boldPath := filepath.Join(r.fontsDir, boldFontFile)

		r.regular, r.loadErr = os.ReadFile(regularPath)
		if r.loadErr != nil {
			r.loadErr = fmt.Errorf("missing Thai font file %s: %w", regularPath, r.loadErr)
			return
		}
		r.bold, r.loadErr = os.ReadFile(boldPath)
		if r.loadErr != nil {
			r.loadErr = fmt.Errorf("missing Thai font file %s: %w", boldPath, r.loadErr)
		}
	})
	return r.loadErr
}

// Render собирает PDF: заголовок жирным 16pt, затем тело 11pt с
// переносом строк и разбивкой на страницы.
func (r *PDFRenderer) Render(title, text string) ([]byte, error) {
	if err := r.loadFonts(); err != nil {
		return nil, err
	}

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	if err := pdf.AddTTFFontData(fontFamily, r.regular); err != nil {
		return nil, fmt.Errorf("failed to register regular font: %w", err)
	}
	if err := pdf.AddTTFFontDataWithOption(fontFamily, r.bold, gopdf.TtfOption{Style: gopdf.Bold}); err != nil {
		return nil, fmt.Errorf("failed to register bold font: %w", err)
	}

	maxWidth := pageWidth - marginX*2
	y := topY

	// Заголовок
	if err := pdf.SetFont(fontFamily, "B", titleSize); err != nil {
		return nil, fmt.Errorf("failed to set title font: %w", err)
	}
	titleLines, err := wrap(&pdf, strings.TrimSpace(title), maxWidth)
	if err != nil {
		return nil, err
	}
	for _, line := range titleLines {
		pdf.SetXY(marginX, y)
		if err := pdf.Cell(nil, line); err != nil {
			return nil, fmt.Errorf("failed to draw title line: %w", err)
		}
		y += titleLineH
		if y > pageHeight-bottomY {
			pdf.AddPage()
			y = topY
		}
	}

	y += 6 // отступ после заголовка

	// Тело
	if err := pdf.SetFont(fontFamily, "", bodySize); err != nil {
		return nil, fmt.Errorf("failed to set body font: %w", err)
	}
	for _, paragraph := range strings.Split(text, "\n") {
		line := strings.TrimRight(paragraph, " \t")

		if strings.TrimSpace(line) == "" {
			y += paragraphSp
			if y > pageHeight-bottomY {
				pdf.AddPage()
				y = topY
			}
			continue
		}

		wrapped, err := wrap(&pdf, line, maxWidth)
		if err != nil {
			return nil, err
		}
		for _, wline := range wrapped {
			pdf.SetXY(marginX, y)
			if err := pdf.Cell(nil, wline); err != nil {
				return nil, fmt.Errorf("failed to draw body line: %w", err)
			}
			y += lineHeight
			if y > pageHeight-bottomY {
				pdf.AddPage()
				y = topY
			}
		}
	}

	return pdf.GetBytesPdfReturnErr()
}

// wrap переносит строку по словам, а текст без пробелов (тайский) —
// по символам. Сам алгоритм переноса предоставляет gopdf.
func wrap(pdf *gopdf.GoPdf, line string, maxWidth float64) ([]string, error) {
	if line == "" {
		return []string{""}, nil
	}
	var (
		lines []string
		err   error
	)
	if strings.Contains(line, " ") {
		lines, err = pdf.SplitTextWithWordWrap(line, maxWidth)
	} else {
		lines, err = pdf.SplitText(line, maxWidth)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to wrap text: %w", err)
	}
	return lines, nil
}
