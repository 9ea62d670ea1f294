// Package imaging provides the image handling used around text recognition.
//
// It decodes uploaded or captured image bytes, prepares them for OCR and
// renders recognized text locations back onto the source image. All
// operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward.
//
// # Decoding
//
// Decode accepts PNG, JPEG, GIF, BMP, TIFF and WebP data. JPEG images are
// rotated according to their EXIF orientation tag so that phone camera
// captures are upright before OCR runs.
//
// # Bounding Boxes
//
// A Quad is a quadrilateral given by four corner points in clockwise order
// starting at the top-left corner. OCR engines that only report axis-aligned
// rectangles produce quads with QuadFromRect. DrawBoxes outlines a list of
// quads on a copy of the source image, cycling through a generated palette so
// that neighbouring boxes are easy to tell apart.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// are stateless and can be called concurrently on different images.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Empty or undecodable image data
//   - Invalid region specifications (x1 >= x2 or y1 >= y2)
//   - File I/O errors during image loading
//   - Encoding errors during image output
package imaging
