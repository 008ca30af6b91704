// Package structure reconstructs the heading hierarchy of a document from its
// own table of contents.
//
// The pipeline runs in order: the TOCDetector finds the contents pages, the
// OutlineParser turns them into leveled entries, the NonHeadingFilter drops
// captions, and the Matcher resolves each entry to a body block through a
// prefix, adjacent-block and fuzzy phase. The resulting MatchReport drives
// the HTML emitter and the per-document text report.
package structure
