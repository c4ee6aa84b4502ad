// Package decode opens WAV, FLAC and MP3 files and reads windows of their
// samples as de-interleaved float32 channels in [-1, 1].
//
// Each decoder wraps a sequential library decoder in a small block reader
// that serves ReadRange calls, rewinding when a caller reads backwards.
// Reads past the end of a stream are padded with silence.
package decode
