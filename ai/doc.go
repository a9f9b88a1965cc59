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


// Package ai provides abstractions for the model services used by syllabus.
//
// This package defines interfaces for text embeddings and course content
// generation. The workflow, retrieval and conversation packages depend on
// these abstractions rather than on a concrete model host.
//
// # Design Principles
//
// The package is designed around three key interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - Generator: Plans subtopics, writes lessons and reviews them
//   - AIProvider: Aggregates AI services for convenient initialization
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider) return INTERFACE types to enforce
// abstraction and prevent accidental coupling to concrete implementations.
//
//	provider, err := openai.NewProvider(config, collector)  // returns ai.AIProvider
//
// Test utility constructors (mock.NewMockEmbedder, mock.NewMockGenerator)
// return CONCRETE types so tests can inject behavior through the Func fields
// and assert on CallCount.
//
//	gen := mock.NewMockGenerator()      // returns *mock.MockGenerator
//	gen.GenerateSubtopicFunc = ...      // needs concrete type
//	count := gen.CallCount()            // test assertion
//
// mock.NewMockProvider() returns an interface since it's the primary entry
// point, but provides GetMockEmbedder()/GetMockGenerator() to reach the
// concrete types when needed.
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	titles, err := provider.Generator().PlanSubtopics(ctx, ai.PlanRequest{
//	    TopicTitle: "Relational databases",
//	    Level:      "beginner",
//	})
//	vector, err := provider.Embedder().EmbedText(ctx, "A foreign key references a row")
package ai
