// Package reduce shrinks a PDF by re-encoding its embedded raster images.
//
// Every image XObject is extracted once, decoded, turned upright according
// to its EXIF orientation, flattened onto white to drop any alpha channel,
// and written back as a JPEG at the configured quality. Page content streams,
// fonts and vector graphics are not touched.
//
// Design decision: the reducer works on in-memory copies and writes a new
// file. The input artifact is only ever opened for reading, so a failed
// reduction leaves the raw document intact.
package reduce
