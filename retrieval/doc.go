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


// Package retrieval selects context passages for a query.
//
// A Planner maps a query and task to retrieval parameters using an ordered
// rule table. An Engine runs the search against an index handle, widens it
// with a shortened query when results are sparse, tops the context up with
// unranked chunks when it is too short, and trims it to a token budget.
// ReadFallback supplies raw file text when no index is available.
package retrieval
