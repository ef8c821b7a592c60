// Package pdf renders patient-facing invoice documents.
package pdf

import (
	"context"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// InvoiceData is the pre-formatted content of one patient invoice. Amounts
// arrive formatted; the renderer does no money arithmetic.
type InvoiceData struct {
	PracticeName    string
	PracticeAddress string

	InvoiceNumber string
	IssueDate     string
	DueDate       string
	ServicePeriod string

	PatientName string

	Items []InvoiceItem

	Total string
}

// InvoiceItem is one line of the invoice table.
type InvoiceItem struct {
	ServiceDate string
	Description string
	Amount      string
}

type Provider interface {
	RenderInvoice(ctx context.Context, data InvoiceData) ([]byte, error)
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) RenderInvoice(_ context.Context, data InvoiceData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(12, "Invoice", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(24,
		col.New(6).Add(
			text.New(data.PracticeName, props.Text{Style: fontstyle.Bold}),
			text.New(data.PracticeAddress, props.Text{Top: 5}),
		),
		col.New(6).Add(
			text.New("Invoice number: "+data.InvoiceNumber, props.Text{Top: 0}),
			text.New("Issue date: "+data.IssueDate, props.Text{Top: 4}),
			text.New("Due date: "+data.DueDate, props.Text{Top: 8}),
			text.New("Service period: "+data.ServicePeriod, props.Text{Top: 12}),
		),
	)

	m.AddRow(14,
		col.New(12).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(data.PatientName, props.Text{Top: 5}),
		),
	)

	m.AddRow(8,
		text.NewCol(3, "Date", props.Text{Style: fontstyle.Bold}),
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold}),
		text.NewCol(3, "Amount", props.Text{Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	for _, item := range data.Items {
		m.AddRow(6,
			text.NewCol(3, item.ServiceDate),
			text.NewCol(6, item.Description),
			text.NewCol(3, item.Amount, props.Text{Align: align.Right}),
		)
	}

	m.AddRow(2, line.NewCol(12))
	m.AddRow(10,
		col.New(9),
		text.NewCol(3, "Total: "+data.Total, props.Text{
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
