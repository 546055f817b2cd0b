package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"rpchealth/internal/domain/entity"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

type renderer func(w io.Writer, report entity.HealthReport) error

func rendererFor(format string) (renderer, error) {
	switch format {
	case formatTable:
		return renderTable, nil
	case formatJSON:
		return renderJSON, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func renderJSON(w io.Writer, report entity.HealthReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func renderTable(w io.Writer, report entity.HealthReport) error {
	summary := report.Summary()
	fmt.Fprintf(w, "%s  mode=%s  rpc %d/%d healthy  ws %d/%d healthy\n",
		report.Timestamp.Format(time.RFC3339), report.Mode,
		summary.RPCHealthy, summary.RPCTotal, summary.SocketHealthy, summary.SocketTotal)
	if report.Error != "" {
		fmt.Fprintf(w, "error: %s\n", report.Error)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tURL\tSTATUS\tLATENCY\tGRADE\tBLOCK\tDETAIL")
	writeRows(tw, "rpc", report.RPCResults)
	writeRows(tw, "ws", report.SocketResults)
	return tw.Flush()
}

func writeRows(w io.Writer, kind string, results entity.BatchResult) {
	for _, r := range results {
		block := "-"
		if r.BlockHeight != nil {
			block = fmt.Sprintf("%d", *r.BlockHeight)
		}
		grade := "-"
		if r.Status.Healthy() {
			grade = string(r.Grade())
		}
		detail := r.ErrorDetail
		if detail == "" {
			detail = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%dms\t%s\t%s\t%s\n", kind, r.URL, r.Status, r.LatencyMs, grade, block, detail)
	}
}
