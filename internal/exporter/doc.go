// Package exporter writes filtered sales for download.
//
// CSVWriter produces UTF-8 CSV with a BOM so spreadsheet tools pick up the
// accented column values. XLSXWriter produces a workbook with a "Vendas"
// sheet of raw rows plus one sheet per summary view. Both write the source
// column names, so an exported file can be loaded back as a dataset.
//
// Exporter ties the two together with a row limit and metrics:
//
//	exp := exporter.New(exporter.Options{Dir: "data/exports", Locale: format.PtBR}, logger, metrics)
//	err := exp.Write(ctx, w, exporter.FormatXLSX, rows, dashboard)
package exporter
