package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/cohapparel/coherp_backend/config"
	"github.com/cohapparel/coherp_backend/models"
	"github.com/cohapparel/coherp_backend/utils"
)

// Builds the demand forecast report from the command line. The default
// output is a readable summary; --json emits the full report for piping
// into other tooling.
func main() {
	jsonMode := flag.Bool("json", false, "emit the full report as JSON")
	weeks := flag.Int("weeks", models.DefaultForecastWeeks, "forecast horizon in weeks")
	flag.Parse()

	config.ConnectDatabaseWithRetry()

	report, err := models.BuildForecastReport(context.Background(), *weeks)
	if err != nil {
		log.Fatalf("build forecast: %v", err)
	}

	if *jsonMode {
		out, err := utils.MarshalToJSON(report)
		if err != nil {
			log.Fatalf("marshal report: %v", err)
		}
		fmt.Println(out)
		return
	}

	printReport(os.Stdout, report)
}

func printReport(w *os.File, report *models.ForecastReport) {
	rule := strings.Repeat("#", 65)
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "  DEMAND FORECAST  %s\n", time.Now().Format("2006-01-02"))
	fmt.Fprintf(w, "%s\n", rule)
	fmt.Fprintf(w, "\n  Data: %d orders over %d weeks\n",
		report.Overall.TotalOrders, report.Overall.WeeksOfData)
	fmt.Fprintf(w, "  Recent 12w avg: %.1f/wk | AOV: %.0f\n",
		report.Overall.Recent12wAvg, report.Overall.RecentAov)

	productRule := strings.Repeat("-", 60)
	for _, p := range report.Products {
		fmt.Fprintf(w, "\n  %s\n", productRule)
		fmt.Fprintf(w, "  %s  %.0f units (%dwk)\n", p.Name, p.ForecastTotal, report.ForecastWeeks)
		for _, f := range p.Forecasts {
			fmt.Fprintf(w, "    %s  %6.0f  (%.0f-%.0f)\n", f.Week, f.Forecast, f.Low, f.High)
		}
	}

	fmt.Fprintf(w, "\n\n  FABRIC REQUIREMENTS:\n")
	for _, fab := range report.FabricRequirements {
		fmt.Fprintf(w, "\n  %s  %.1f %s\n", fab.Name, fab.TotalQty, fab.Unit)
		for _, c := range fab.Colours {
			status := fmt.Sprintf("OK (+%.1f)", -c.Gap)
			if c.Gap > 0 {
				status = fmt.Sprintf("ORDER %.1f", c.Gap)
			}
			fmt.Fprintf(w, "    %-16s %-20s need:%7.1f  stock:%7.1f  %s\n",
				c.Code, c.Colour, c.Required, c.InStock, status)
		}
	}

	fmt.Fprintf(w, "\n  SUMMARY: %.0f units | %d fabrics to order\n",
		report.Summary.TotalForecastUnits, report.Summary.ShortfallCount)
	if report.Summary.EstimatedPurchaseCost > 0 {
		fmt.Fprintf(w, "  Est. purchase: %.0f\n", report.Summary.EstimatedPurchaseCost)
	}
}
