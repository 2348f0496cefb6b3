// Package search filters, scores and orders videos for the search view.
//
// Filtering applies the uploader, duration, date and title predicates in
// that order. The duration and date filters are typed as free text:
//
//	"5:00"        shorter than five minutes
//	">1:02:03"    longer than one hour, two minutes and three seconds
//	"2019-06"     uploaded before June 1st 2019
//	">2020"       uploaded after January 1st 2020
//
// Filter text that cannot be parsed disables that filter instead of
// rejecting every video.
//
// Title matching is scored rather than boolean. An exact match (ignoring
// case) ranks above everything else; other titles collect points for
// containing the query, for whole-word token matches and for a Jaro-Winkler
// similarity above the configured sensitivity. While a title query is
// active the title orders sort by score.
//
// Run is safe for concurrent use. Scores are returned alongside the videos
// rather than stored on them, so concurrent runs over the same videos do not
// interfere.
package search
