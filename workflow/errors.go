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


package workflow

import "errors"

var (
	// ErrGeneratorRequired is returned when no generator is given.
	ErrGeneratorRequired = errors.New("generator is required")

	// ErrIndexerRequired is returned when no indexer is given.
	ErrIndexerRequired = errors.New("indexer is required")

	// ErrEnforcerRequired is returned when no language enforcer is given.
	ErrEnforcerRequired = errors.New("language enforcer is required")

	// ErrQueryRequired is returned for a request without a query.
	ErrQueryRequired = errors.New("질문이 비어 있습니다")

	// ErrFileRequired is returned for a request without a document path.
	ErrFileRequired = errors.New("문서 경로가 비어 있습니다")

	// ErrNoRenderer is returned when a file-emitting task has no renderer.
	ErrNoRenderer = errors.New("no renderer for task")

	errEmptyContext = errors.New("문서 내용을 읽을 수 없습니다")
)
