// Package heat provides the intensity rasters and heat points the attention
// models are built from.
//
// A Field is a single-channel raster with integer intensities in [0,255] where
// each cell represents accumulated gaze attention. A Point is a discrete heat
// source extracted from a Field: a position plus the intensity found there.
//
// # Coordinate System
//
// All coordinates are 0-based with (0,0) at the top-left corner, X increasing
// rightward and Y increasing downward. Pixels are stored row-major, so the cell
// at (x, y) lives at Pix[y*Width+x].
//
// # Artifacts
//
// Heat points are persisted as a small text table:
//
//	X,Y,Intensity
//	812,403,17
//	640,512,255
//
// Rows are always written sorted ascending by intensity, which makes parsing
// followed by writing idempotent.
//
// Rasters are read with any codec registered with the image package (PNG,
// JPEG, GIF, BMP and TIFF are registered by this package) and written as PNG.
//
// # Rasterization
//
// Rasterize turns weighted fixation points into a normalized Field. This is how
// accumulated heatmaps for whole groups of episodes are produced: all fixations
// are summed per cell, smoothed with a Gaussian and normalized so the hottest
// cell becomes 255.
//
// # Thread Safety
//
// FieldCache is safe for concurrent use. A Field itself is not synchronized;
// extraction strategies work on private clones.
package heat
