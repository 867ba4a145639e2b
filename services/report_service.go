package services

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"time"

	"github.com/anjiri1684/english_practice/models"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

//go:embed templates/report.html
var reportFS embed.FS

var reportTemplate = template.Must(template.New("report.html").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	ParseFS(reportFS, "templates/report.html"))

// RenderPDF turns an HTML document into PDF bytes. Tests replace it to avoid
// starting a browser.
var RenderPDF = generatePDFFromHTML

func RenderReportHTML(s *models.Session, learner string) (string, error) {
	if s.Score == nil {
		return "", ErrNotScored
	}

	suggestion := ""
	if s.Suggestion != nil {
		suggestion = *s.Suggestion
	}
	date := s.StartedAt
	if s.EndedAt != nil {
		date = *s.EndedAt
	}

	data := struct {
		Title      string
		Learner    string
		Theme      string
		Date       string
		Score      int
		Suggestion string
		Answers    []models.Answer
	}{
		Title:      Kinds[s.Kind].Title,
		Learner:    learner,
		Theme:      s.Theme,
		Date:       date.Format("January 2, 2006"),
		Score:      *s.Score,
		Suggestion: suggestion,
		Answers:    s.Answers,
	}

	var rendered bytes.Buffer
	if err := reportTemplate.Execute(&rendered, data); err != nil {
		return "", err
	}
	return rendered.String(), nil
}

func SessionReport(ctx context.Context, s *models.Session, learner string) ([]byte, error) {
	html, err := RenderReportHTML(s, learner)
	if err != nil {
		return nil, err
	}
	return RenderPDF(ctx, html)
}

func generatePDFFromHTML(parent context.Context, htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(parent)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, 30*time.Second)
	defer cancelTimeout()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}
