// Package media decodes, resizes and caches video thumbnails.
//
// Generator creates the thumbnail file of a stored video: remote images are
// downloaded and raw video files are sampled with FFmpeg, then resized to
// the configured width and written as JPEG into the playlist's thumbnail
// directory.
//
// TextureLoader and Presenter plug into the resource cache. The loader
// decodes a thumbnail file, domain icon or remote image into pixels on a
// worker; the presenter encodes those pixels for serving the first time the
// texture is requested.
//
// Decoding prefers libvips when it has been initialised with InitVips and
// falls back to imaging and the standard decoders.
package media
