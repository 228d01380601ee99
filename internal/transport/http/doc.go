// Package http implements the HTTP handlers of the inventory web service.
// Handlers stay thin: they decode requests, call a service and write the
// response. Business rules live in internal/services.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Exporter → Sink
//	                                                                  ↓
//	HTTP Response (attachment or problem details) ←───────────────────┘
//
// # Downloads
//
// Export handlers hand the service an exporter.HTTPSink wrapping the
// response writer. A successful export writes the attachment directly. An
// export that ends without a download is answered with a problem response
// chosen from the export outcome:
//
//	not_found → 404 TABLE_NOT_FOUND
//	empty     → 422 EMPTY_DATASET
//	invalid   → 400 VALIDATION_FAILED
//	failed    → 500 EXPORT_FAILED
//
// The user-facing toast for each case is sent separately through the
// notifier, over the websocket at /ws.
//
// # Error Handling
//
// All errors go through errors.ErrorHandler and follow RFC 7807:
//
//	{
//	    "type": "/errors/export/table-not-found",
//	    "title": "Not Found",
//	    "status": 404,
//	    "detail": "Table not found",
//	    "instance": "/api/export/reports/stock/missing"
//	}
//
// # Testing
//
// Handlers are tested with httptest and testify mocks of the service
// interfaces in service_interfaces.go.
package http
