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


// Package extract turns uploaded files into normalized text.
//
// A Dispatcher maps lower-cased file extensions to Extractor
// implementations. Built-in extractors read plain text and CSV directly,
// unpack Office Open XML containers (docx, pptx, xlsx) and describe their
// embedded pictures through an ai.VisionAnalyzer, and delegate PDFs, legacy
// office formats, audio and video to external command-line tools.
//
// Output uses lightweight markers ("## 슬라이드 N", "[표]",
// "[이미지 N 분석 결과]") so that downstream chunking keeps structure
// visible to the generation model.
package extract
