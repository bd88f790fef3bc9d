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


// Package language checks that generated text is written in Korean and
// retranslates it when another script dominates.
//
// The check is a heuristic over script composition: Hangul against all
// letters and digits, Han characters, and long runs of Latin words. Text
// that fails is sent once to a translation model; if that fails too, a
// fixed apology replaces it.
package language
