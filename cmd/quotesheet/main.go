// Command quotesheet copies quote details from a results file into a
// spreadsheet.
package main

import (
	"flag"
	"os"

	"call-insights-go/internal/logger"
	"call-insights-go/internal/quotes"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitInput  = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("quotesheet", flag.ContinueOnError)
	in := fs.String("in", "results.txt", "results file written by the text sink")
	out := fs.String("out", "stats.xlsx", "workbook to append to")
	sheet := fs.String("sheet", "Sheet1", "sheet name")
	if err := fs.Parse(args); err != nil {
		return exitInput
	}

	log := logger.New().Component("quotesheet")

	f, err := os.Open(*in)
	if err != nil {
		log.WithError(err).Error("open results")
		return exitInput
	}
	defer f.Close()

	qs, err := quotes.Parse(f)
	if err != nil {
		log.WithError(err).Error("parse results")
		return exitFailed
	}
	if len(qs) == 0 {
		log.WithField("in", *in).Warn("no records found")
		return exitOK
	}
	if err := quotes.AppendSheet(*out, *sheet, qs); err != nil {
		log.WithError(err).Error("append sheet")
		return exitFailed
	}
	log.WithField("rows", len(qs)).WithField("out", *out).Info("quotes appended")
	return exitOK
}
