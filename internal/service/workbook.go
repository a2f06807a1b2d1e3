package service

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

const spreadsheetNS = "urn:schemas-microsoft-com:office:spreadsheet"

// workbook is a single-sheet SpreadsheetML 2003 document, which Excel and
// LibreOffice open directly.
type workbook struct {
	doc   *etree.Document
	table *etree.Element
}

func newWorkbook(sheetName string) *workbook {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateProcInst("mso-application", `progid="Excel.Sheet"`)

	book := doc.CreateElement("Workbook")
	book.CreateAttr("xmlns", spreadsheetNS)
	book.CreateAttr("xmlns:ss", spreadsheetNS)

	styles := book.CreateElement("Styles")
	bold := styles.CreateElement("Style")
	bold.CreateAttr("ss:ID", "header")
	bold.CreateElement("Font").CreateAttr("ss:Bold", "1")

	sheet := book.CreateElement("Worksheet")
	sheet.CreateAttr("ss:Name", sheetName)
	return &workbook{doc: doc, table: sheet.CreateElement("Table")}
}

func (w *workbook) header(titles ...string) {
	row := w.table.CreateElement("Row")
	for _, t := range titles {
		cell := row.CreateElement("Cell")
		cell.CreateAttr("ss:StyleID", "header")
		data := cell.CreateElement("Data")
		data.CreateAttr("ss:Type", "String")
		data.SetText(t)
	}
}

func (w *workbook) row(values ...any) {
	row := w.table.CreateElement("Row")
	for _, v := range values {
		data := row.CreateElement("Cell").CreateElement("Data")
		switch val := v.(type) {
		case decimal.Decimal:
			data.CreateAttr("ss:Type", "Number")
			data.SetText(val.StringFixed(2))
		case int:
			data.CreateAttr("ss:Type", "Number")
			data.SetText(fmt.Sprint(val))
		default:
			data.CreateAttr("ss:Type", "String")
			data.SetText(fmt.Sprint(val))
		}
	}
}

func (w *workbook) bytes() ([]byte, error) {
	w.doc.Indent(2)
	out, err := w.doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return out, nil
}
