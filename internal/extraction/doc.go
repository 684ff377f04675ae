// Package extraction finds heat sources in heat fields.
//
// Several interchangeable strategies implement the Extractor interface:
//
//   - ConcurrentElimination: repeatedly takes the hottest cell and erases the
//     region it ignites, computed by four goroutines over a geometric partition
//   - SequentialElimination: the same idea walked by a single goroutine
//   - SmoothedMaxima: neighbourhood maxima of a Gaussian-smoothed field
//   - RowColumnMaxima: coinciding row and column maxima of a box-smoothed field
//
// Cached wraps any strategy with an artifact store so repeated runs over the
// same input reuse the persisted heat sources.
//
// # Partition
//
// A MarkerMask splits a W x H raster around a centre point P into eight
// disjoint regions. With py = P.Y, px = W-P.X-1, ny = H-P.Y-1 and nx = P.X:
//
//	region  origin          size (w x h)
//	PY      (P.X, 0)        1 x py
//	PX      (P.X+1, P.Y)    px x 1
//	NY      (P.X, P.Y+1)    1 x ny
//	NX      (0, P.Y)        nx x 1
//	PY-NX   (0, 0)          nx x py
//	PY-PX   (P.X+1, 0)      px x py
//	NY-PX   (P.X+1, P.Y+1)  px x ny
//	NY-NX   (0, P.Y+1)      nx x ny
//
// Every cell except P belongs to exactly one region. Each region is an Area:
// private counters plus the global origin used to translate coordinates.
//
// # Concurrency
//
// ConcurrentElimination runs two phases per source, each with four goroutines
// joined by a sync.WaitGroup. Axis workers write only their own axis and
// quadrant workers only their own quadrant. The field is read-only while a
// mask is computed and is mutated only by the extraction loop between masks.
package extraction
