// Package middleware provides the HTTP middleware of the video-shelf server:
// W3C extended access logging, Prometheus request metrics labelled by route
// template, and gzip compression of JSON responses.
package middleware
