package render

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"sort"

	"tracker/src/schemas"
	"tracker/src/utils"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"percent": func(fraction float64) string { return utils.FormatPercent(fraction * 100) },
}).ParseFS(templateFS, "templates/*.html"))

type dashboardPage struct {
	Dashboard *schemas.Dashboard
	Chart     template.URL
	Generated string
}

type transactionsPage struct {
	Ticker       string
	Transactions []schemas.TransactionEntry
}

// NewAllocationPie builds a pie chart with one slice per key, ordered by key.
func NewAllocationPie(title string, data map[string]float64) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithColorsOpts(opts.Colors(utils.ChartColors)),
		charts.WithInitializationOpts(opts.Initialization{Width: "560px", Height: "360px"}),
	)

	labels := make([]string, 0, len(data))
	for k := range data {
		labels = append(labels, k)
	}
	sort.Strings(labels)

	items := make([]opts.PieData, 0, len(labels))
	for _, k := range labels {
		items = append(items, opts.PieData{Name: k, Value: data[k]})
	}
	pie.AddSeries("Allocation", items)
	return pie
}

// RenderPieGraph renders an allocation pie chart page and returns it as a data URL suitable for an iframe.
func RenderPieGraph(title string, data map[string]float64) (template.URL, error) {
	var chartBuffer bytes.Buffer
	if err := NewAllocationPie(title, data).Render(&chartBuffer); err != nil {
		return "", err
	}

	chartBase64 := base64.StdEncoding.EncodeToString(chartBuffer.Bytes())
	return template.URL("data:text/html;base64," + chartBase64), nil
}

// RenderDashboard writes the portfolio overview page.
func RenderDashboard(w io.Writer, dashboard *schemas.Dashboard) error {
	page := dashboardPage{
		Dashboard: dashboard,
		Generated: dashboard.GeneratedAt.Format(utils.TimestampLayout),
	}
	if len(dashboard.Allocation) > 0 {
		chart, err := RenderPieGraph("Asset allocation", dashboard.Allocation)
		if err != nil {
			return err
		}
		page.Chart = chart
	}
	return templates.ExecuteTemplate(w, "dashboard.html", page)
}

// RenderTransactions writes the transaction history page.
func RenderTransactions(w io.Writer, ticker string, entries []schemas.TransactionEntry) error {
	return templates.ExecuteTemplate(w, "transactions.html", transactionsPage{
		Ticker:       ticker,
		Transactions: entries,
	})
}

// GeneratePDF generates a PDF from an array of HTML strings
func GeneratePDF(htmlContents []string) (*bytes.Buffer, error) {
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	for _, html := range htmlContents {
		page := wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(html)))
		pdfg.AddPage(page)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)

	err = pdfg.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}
