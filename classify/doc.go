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


// Package classify turns raw query text and optional caller hints into a
// structured core.Query.
//
// The Heuristic classifier is a cheap keyword layer: intent, scope and
// priority come from explicit hints when they name a known value and from
// trigger words in the query text otherwise. It never fails.
//
// The Assisted classifier asks an ai.IntentClassifier for the intent and
// falls back to the heuristic result whenever the model errors, is unsure,
// or answers with a label outside the intent vocabulary.
//
// Both satisfy Classifier, so callers can swap one for the other without
// touching planning or execution.
package classify
