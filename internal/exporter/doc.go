// Package exporter turns tabular data into downloadable CSV documents.
//
// A TabularExporter reads either a rendered table, looked up by element id
// through a TableResolver, or a list of Records. It escapes every field,
// prepends a UTF-8 BOM when configured, resolves the {timestamp} filename
// placeholder from its Clock and hands the finished Download to a Sink.
//
// Exports never return errors. A table that does not resolve, an empty record
// list or a failed delivery ends the export with a notification to the
// injected notify.Notifier, and the returned Outcome tells callers which case
// occurred.
//
// Example usage:
//
//	sink := exporter.NewFileSink("exports")
//	exp := exporter.New(notify.NewLogNotifier(logger), exporter.Options{
//		Write:    exporter.DefaultWriteOptions(),
//		Resolver: doc,
//		Sink:     sink,
//	})
//
//	exp.ExportFromElement(ctx, "stock-table", "stock_{timestamp}.csv")
//
//	records := []exporter.Record{exporter.NewRecord("a", 1, "b", 2)}
//	exp.ExportFromRecords(ctx, records, "report.csv", "A", "B")
package exporter
