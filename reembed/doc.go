// Package reembed re-embeds every stored content chunk with the current
// embedding model.
//
// Switching embedding models leaves old vectors incomparable with new query
// vectors, so retrieval stops finding earlier lessons. Reembedder walks every
// topic known to a session, re-embeds each subtopic's chunks in batches on a
// bounded worker pool, normalizes the vectors and writes them back in place.
// Chunk text, type and position are untouched.
package reembed
