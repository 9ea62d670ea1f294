// Package ocr provides Optical Character Recognition (OCR) functionality using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2) behind the
// Engine interface. Recognition returns text fragments, one per detected text
// line, each paired with a quadrilateral bounding box in the coordinates of
// the image that was passed in.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-fra ...
//   - macOS: brew install tesseract tesseract-lang
//
// A custom tessdata directory can be selected with TesseractEngine.TessdataPrefix.
//
// # Languages
//
// Callers speak ISO 639-1 codes ("en", "fr", "zh", ...). TesseractCode maps them
// to Tesseract's traineddata names ("eng", "fra", "chi_sim", ...). Several
// languages can be recognized at once; they are joined with "+" the way
// Tesseract expects.
//
// # Text Assembly
//
// Result.Text joins the recognized fragments with newlines in reading order,
// skipping fragments that are empty after trimming.
//
// # Cancellation
//
// Tesseract itself cannot be interrupted. Recognize runs the engine in its
// own goroutine and returns as soon as the context is done; the abandoned
// goroutine finishes in the background and releases its client.
package ocr
