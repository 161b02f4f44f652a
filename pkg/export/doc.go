// Package export serializes a measurement session for external
// collaborators: a structured JSON payload, a flat CSV table and a PNG
// snapshot of the annotated view.
//
// # Payload
//
// [Payload] is the one structured form. It is what `garmushka session`
// stores persist, what the JSON export writes and what the HTTP API
// returns:
//
//	{
//	  "version": 1,
//	  "source_label": "plan-floor-2.png",
//	  "width": 1000, "height": 800,
//	  "unit_mode": "metric",
//	  "pixels_per_unit": 50,
//	  "is_calibrated": true,
//	  "measurement_table": [
//	    {"id": "…", "name": "Distance 1", "type": "polyline", "measurement": "2.00 m", "notes": "", "color": "#3b82f6"}
//	  ],
//	  "shapes": [
//	    {"id": "…", "name": "Distance 1", "color": "#3b82f6", "kind": "polyline", "points": [{"x": 0, "y": 0}, {"x": 100, "y": 0}]}
//	  ],
//	  "area_summary": {…}
//	}
//
// The measurement table is derived and informative only; "shapes" and
// "pixels_per_unit" are authoritative. [Payload.Engine] rebuilds an engine
// from them, and re-deriving the table reproduces every measurement string
// exactly.
//
// # CSV
//
// [WriteCSV] writes one row per shape with an optional UTF-8 byte order
// mark so spreadsheet tools read Hebrew labels correctly.
//
// # Raster
//
// [Render] draws the bitmap through the current view transform and
// overlays every shape with its label. [WritePNG] encodes the result.
package export
