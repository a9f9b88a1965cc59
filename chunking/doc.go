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


// Package chunking splits generated subtopic content into typed fragments.
//
// Content is split on blank lines into paragraphs. Each paragraph is
// classified by lexical cues in a fixed priority order:
//
//	definition > example > procedure > application > concept
//
// Paragraphs that match no cue are concepts. Short paragraphs are dropped as
// noise, and every result contains at least one concept chunk so that each
// subtopic stays retrievable.
//
// Markdown is reduced to plain text with goldmark before the cues are
// checked, so emphasis or heading markers never hide a cue. The stored chunk
// keeps the original markdown.
//
// Chunking is pure: no I/O and no model calls.
package chunking
