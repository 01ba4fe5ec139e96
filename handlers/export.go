package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cohapparel/coherp_backend/models"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportStockAnalysis streams the reorder report as an XLSX workbook.
func ExportStockAnalysis(c *gin.Context) {
	report, err := models.GetStockAnalysis(c.Request.Context())
	if err != nil {
		respondError(c, "StockAnalysis", "ExportStockAnalysis", err)
		return
	}

	f := excelize.NewFile()
	sheetName := "Stock Analysis"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		respondError(c, "StockAnalysis", "ExportStockAnalysis", err)
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headings := []string{
		"Fabric", "Colour", "Code", "Unit", "Balance", "Avg Daily Usage",
		"Days Of Cover", "Lead Time (days)", "Min Order Qty", "Status",
		"Suggested Qty", "Est Order Cost",
	}
	col := 'A'
	for _, h := range headings {
		f.SetCellValue(sheetName, string(col)+"1", h)
		col++
	}

	for i, row := range report.Rows {
		rowNo := fmt.Sprint(i + 2)
		daysOfCover := ""
		if row.DaysOfCover != nil {
			daysOfCover = fmt.Sprint(*row.DaysOfCover)
		}
		values := []interface{}{
			row.FabricName,
			row.ColourName,
			row.Code,
			row.Unit,
			row.Balance.InexactFloat64(),
			row.AvgDailyUsage.InexactFloat64(),
			daysOfCover,
			row.LeadTimeDays,
			row.MinOrderQty.InexactFloat64(),
			string(row.Status),
			row.SuggestedQty.InexactFloat64(),
			row.EstOrderCost.InexactFloat64(),
		}
		col := 'A'
		for _, v := range values {
			f.SetCellValue(sheetName, string(col)+rowNo, v)
			col++
		}
	}

	filename := "stock-analysis-" + time.Now().Format("2006-01-02") + ".xlsx"
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	if err := f.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}
