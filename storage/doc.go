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


// Package storage provides the storage abstraction layer for syllabus.
//
// This package defines repository interfaces that decouple storage implementation
// from the workflow engine, together with the binary record encoding shared by
// every backend.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - TopicRepository: course topics and their planned subtopic titles
//   - SessionRepository: generation sessions, indexed by thread ID
//   - SubtopicRepository: generated subtopics, unique per (topic, order)
//   - ChunkRepository: embedded content chunks and similarity search
//   - CheckpointRepository: append-only workflow checkpoints per thread
//   - MessageRepository: consult conversation messages per session
//
// # Usage
//
// Open a backend and create repositories on top of it:
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	subtopics, err := badger.NewSubtopicRepository(backend)
//
// Use in tests with in-memory storage:
//
//	repos, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repos.Close()
//
// # Serialization
//
// Records are encoded with mus-go primitives. Timestamps are stored as
// Unix microseconds in UTC.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Pass context.Background() for operations
// without specific timeout requirements.
package storage
