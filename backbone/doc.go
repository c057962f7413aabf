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


// Package backbone provides the abstraction over the frozen pretrained
// network that turns preprocessed images into fixed-length embeddings.
//
// The backbone is an external collaborator: this package never computes
// embeddings itself. It defines the Embedder interface consumed by the
// extraction driver, plus a Config describing where the model is served
// and what it produces.
//
// # Implementation Packages
//
//   - backbone/http: production client for an inference server exposing
//     the backbone over a JSON tensor-in/vector-out endpoint
//   - backbone/mock: deterministic test doubles
//
// Public constructors (http.NewEmbedder) return the Embedder interface to
// enforce abstraction; mock constructors return concrete types so tests
// can inject behavior and make assertions.
package backbone
