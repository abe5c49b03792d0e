package infra

// pdf.go — closure report generation using go-pdf/fpdf.
// One A4 page per cash closure: header with register and closure number,
// totals block, per-method table with percentages, per-user net table.
// The output file is saved to storagePath/cierre_{caja}_{numero}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"restopos/internal/dto"
	"restopos/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerarCierrePDF writes the closure report and returns the file path.
func GenerarCierrePDF(
	cierre *model.CierreCaja,
	metodos []dto.ResumenMetodo,
	usuarios []dto.ResumenUsuario,
	razonSocial string,
	storagePath string,
) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("cierre_%s_%d.pdf", cierre.CajaID, cierre.NumeroCierre)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, razonSocial, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(contentW, 6, fmt.Sprintf("Cierre de caja N° %d", cierre.NumeroCierre), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, cierre.CerradoEn.Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Totals ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, "Totales", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	half := contentW / 2
	pdf.CellFormat(half, 6, "Ingresos:", "", 0, "L", false, 0, "")
	pdf.CellFormat(half, 6, "S/ "+cierre.TotalIngresos.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.CellFormat(half, 6, "Egresos:", "", 0, "L", false, 0, "")
	pdf.CellFormat(half, 6, "S/ "+cierre.TotalEgresos.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(half, 7, "Neto:", "T", 0, "L", false, 0, "")
	pdf.CellFormat(half, 7, "S/ "+cierre.TotalNeto.StringFixed(2), "T", 1, "R", false, 0, "")
	pdf.Ln(6)

	// ── Per-method breakdown ─────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, "Por método de pago", "B", 1, "L", false, 0, "")

	col1 := contentW * 0.40
	col2 := contentW * 0.15
	col3 := contentW * 0.25
	col4 := contentW * 0.20

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(col1, 6, "Método", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Cant.", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 6, "Total", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 6, "%", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, m := range metodos {
		pdf.CellFormat(col1, 6, m.Etiqueta, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, fmt.Sprintf("%d", m.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 6, "S/ "+m.Total.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, m.Porcentaje.StringFixed(1)+" %", "", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	// ── Per-user breakdown ───────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, "Por usuario", "B", 1, "L", false, 0, "")

	u1 := contentW * 0.40
	u2 := contentW * 0.20
	u3 := contentW * 0.20
	u4 := contentW * 0.20

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(u1, 6, "Usuario", "B", 0, "L", false, 0, "")
	pdf.CellFormat(u2, 6, "Ingresos", "B", 0, "R", false, 0, "")
	pdf.CellFormat(u3, 6, "Egresos", "B", 0, "R", false, 0, "")
	pdf.CellFormat(u4, 6, "Neto", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, u := range usuarios {
		id := u.UsuarioID
		if len(id) > 8 {
			id = id[:8]
		}
		pdf.CellFormat(u1, 6, id, "", 0, "L", false, 0, "")
		pdf.CellFormat(u2, 6, "S/ "+u.TotalIngresos.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(u3, 6, "S/ "+u.TotalEgresos.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(u4, 6, "S/ "+u.TotalNeto.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Pagos incluidos: %d", len(cierre.Pagos)), "", 1, "L", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
