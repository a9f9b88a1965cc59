// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package retrieval stores embedded content chunks and finds context for new
// subtopics in the ones already published.
//
// Retrieval only ever looks backwards: a lookup for the subtopic at 0-based
// index i sees chunks of published subtopics with order at most i, i.e. the
// lessons that come before it in the course. Unpublished drafts, the current
// subtopic and later subtopics are never returned, and the Retriever checks
// this again on the results the storage layer hands back.
//
// # Usage
//
//	r, err := retrieval.NewRetriever(repos.Subtopics, repos.Chunks, client)
//	if err != nil {
//	    return err
//	}
//
//	hits, err := r.FindRelevantContext(ctx, topicID, "Graphs Trees", 2, 0)
//	previous, err := r.PreviousContent(ctx, topicID, 2)
//	prompt := retrieval.FormatContext(hits, previous)
package retrieval
