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


// Package workflow drives one request through the generation state
// machine: classify intent, retrieve context, generate with a task
// prompt, enforce the target language and render file output.
//
// Steps run strictly in order. A failing step routes the run to
// StateError, which records an apology in the final response and ends
// the run; Execute never returns a Go error. Index and retrieval
// failures are not step failures: the retrieve step falls back to a
// bounded prefix of the raw source file.
//
// Answer is the direct path used when the state machine itself cannot
// complete. It plans retrieval from query keywords alone and uses a
// prompt tailored to the plan label.
package workflow
