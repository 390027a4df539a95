// Package report writes a solved network's link flows and convergence
// summary out to an XLSX workbook.
package report

import (
	"bytes"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"sueassign/internal/assign"
	"sueassign/internal/network"
)

// Summary carries the bits of the solve that the report needs beyond the
// raw network: the assign.Result and the theta/lambda the solve used.
type Summary struct {
	Result assign.Result
	Theta  float64
	Lambda float64
}

func cellAddr(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// WriteXLSX renders a link-flow report and convergence summary for net and
// writes it to path.
func WriteXLSX(path string, net *network.Network, summary Summary) error {
	buf, err := RenderXLSX(net, summary)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// RenderXLSX builds the workbook in memory and returns its bytes, so
// callers (e.g. a daemon-mode HTTP handler) can stream it without touching
// disk.
func RenderXLSX(net *network.Network, summary Summary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	f.DeleteSheet("Sheet1")

	writeSummarySheet(f, net, summary)
	writeLinkFlowSheet(f, net)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, net *network.Network, summary Summary) {
	sheet := "Summary"
	f.NewSheet(sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	row := 1
	f.SetCellValue(sheet, cellAddr("A", row), "Stochastic User Equilibrium Assignment")
	f.MergeCell(sheet, cellAddr("A", row), cellAddr("B", row))
	row += 2

	f.SetCellValue(sheet, cellAddr("A", row), "Network")
	f.SetCellStyle(sheet, cellAddr("A", row), cellAddr("B", row), headerStyle)
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Nodes")
	f.SetCellValue(sheet, cellAddr("B", row), net.NumNodes())
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Zones")
	f.SetCellValue(sheet, cellAddr("B", row), net.NumZones)
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Links")
	f.SetCellValue(sheet, cellAddr("B", row), len(net.Arcs))
	row += 2

	f.SetCellValue(sheet, cellAddr("A", row), "Solver Parameters")
	f.SetCellStyle(sheet, cellAddr("A", row), cellAddr("B", row), headerStyle)
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Theta")
	f.SetCellValue(sheet, cellAddr("B", row), summary.Theta)
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Lambda")
	f.SetCellValue(sheet, cellAddr("B", row), summary.Lambda)
	row += 2

	f.SetCellValue(sheet, cellAddr("A", row), "Convergence")
	f.SetCellStyle(sheet, cellAddr("A", row), cellAddr("B", row), headerStyle)
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Converged")
	f.SetCellValue(sheet, cellAddr("B", row), summary.Result.Converged)
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Reason")
	f.SetCellValue(sheet, cellAddr("B", row), summary.Result.Reason)
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Iterations")
	f.SetCellValue(sheet, cellAddr("B", row), summary.Result.Iterations)
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Final Avg Flow Diff")
	f.SetCellValue(sheet, cellAddr("B", row), summary.Result.FinalDiff)
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Elapsed")
	f.SetCellValue(sheet, cellAddr("B", row), summary.Result.Elapsed.String())

	f.SetColWidth(sheet, "A", "B", 24)
}

func writeLinkFlowSheet(f *excelize.File, net *network.Network) {
	sheet := "Link Flows"
	f.NewSheet(sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	headers := []string{"Tail", "Head", "Flow", "Capacity", "Utilization", "Free Flow Time", "Cost"}
	for i, h := range headers {
		f.SetCellValue(sheet, cellAddr(string(rune('A'+i)), 1), h)
	}
	f.SetCellStyle(sheet, "A1", "G1", headerStyle)

	for i, a := range net.Arcs {
		row := i + 2
		utilization := 0.0
		if a.Capacity > 0 {
			utilization = a.Flow / a.Capacity
		}
		f.SetCellValue(sheet, cellAddr("A", row), a.Tail+1) // reported 1-based, matching TNTP node numbering
		f.SetCellValue(sheet, cellAddr("B", row), a.Head+1)
		f.SetCellValue(sheet, cellAddr("C", row), a.Flow)
		f.SetCellValue(sheet, cellAddr("D", row), a.Capacity)
		f.SetCellValue(sheet, cellAddr("E", row), utilization)
		f.SetCellValue(sheet, cellAddr("F", row), a.FreeFlowTime)
		f.SetCellValue(sheet, cellAddr("G", row), a.Cost)
	}

	f.SetColWidth(sheet, "A", "G", 16)
}
