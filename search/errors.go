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


package search

import (
	"errors"
	"fmt"

	"github.com/poiesic/quarry/scout"
)

var (
	// ErrPlannerRequired is returned when a planner is not provided.
	ErrPlannerRequired = errors.New("planner required")

	// ErrPoolRequired is returned when a scout pool is not provided.
	ErrPoolRequired = errors.New("scout pool required")

	// ErrOrchestratorRequired is returned when an orchestrator is not provided.
	ErrOrchestratorRequired = errors.New("orchestrator required")

	// ErrNoWorkersStarted is returned when a plan named scouts but none
	// could be scheduled.
	ErrNoWorkersStarted = scout.ErrNoWorkersStarted
)

// Stage names the orchestration step that failed.
type Stage string

const (
	StageClassify Stage = "classify"
	StageDeploy   Stage = "deploy"
)

// OrchestrationError reports that a query could not be run at all.
type OrchestrationError struct {
	QueryID string
	Stage   Stage
	Err     error
}

func (e *OrchestrationError) Error() string {
	return fmt.Sprintf("query %s failed at %s: %v", e.QueryID, e.Stage, e.Err)
}

func (e *OrchestrationError) Unwrap() error {
	return e.Err
}
