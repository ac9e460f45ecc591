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


// Package scout runs the concurrent search workers of a query.
//
// A scout is one worker executing one Strategy. Strategies derive their
// search patterns from the query and turn document store hits into
// findings; they are registered by kind in a Registry so the Pool never
// branches on worker kinds.
//
// The Pool submits one task per planned worker to a non-blocking ants
// pool. A worker that cannot be scheduled is reported as Failed instead of
// failing the query. Run waits for every worker or for the context to end,
// whichever comes first; workers that have not reported by then are
// recorded as failed dead ends and the deployment is marked partial.
//
// GuardStore wraps a document store with a token-bucket rate limiter and a
// circuit breaker so a struggling store sheds load instead of piling up
// requests from every worker.
package scout
