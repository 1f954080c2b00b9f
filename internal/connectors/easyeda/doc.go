// Package easyeda implements the geometry source backed by the EasyEDA
// component API.
//
// One request returns everything the importer needs about a part: the
// identity fields (c_para), the schematic symbol shapes and the footprint
// package shapes, all encoded as "~" separated primitive strings.
//
// # Architecture
//
// The client follows the driven port pattern defined in [driven.GeometrySource]:
//
//   - Client: fetches and memoizes component documents through the
//     per-source limiter and retry policy
//   - decode: converts primitive strings into the tagged geometry union
//     field by field; unrecognised tags become [domain.ShapeUnknown]
//
// Fetch and FetchGeometry share one memoized document, so a search costs a
// single request however the two halves are consumed.
//
// # Outcomes
//
//   - HTTP 404, success=false or an empty result: not found
//   - Exhausted retries (429, 403, 5xx, timeouts): unavailable
//   - A document without shapes: found, with nil geometry
//
// # 3-D Models
//
// The footprint SVGNODE primitive carries the model uuid. Each uuid yields
// a STEP reference and an OBJ reference; the OBJ payload is converted to
// VRML by the model resolver.
package easyeda
