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


package extract

import "time"

// Config holds settings for the built-in extractors.
// Command argument lists may use the placeholders {input}, {output},
// {outdir} and {format}.
type Config struct {
	// MaxImageWorkers bounds parallel image analysis within one document.
	MaxImageWorkers int

	// Timeout bounds a single extraction. Zero means no bound.
	Timeout time.Duration

	// PDFCommand prints a PDF's text to stdout.
	PDFCommand []string

	// TranscribeCommand prints an audio file's transcript to stdout.
	TranscribeCommand []string

	// AudioExtractCommand writes a video's audio track to {output}.
	AudioExtractCommand []string

	// ConvertCommand converts legacy office formats into {outdir} as {format}.
	ConvertCommand []string
}

// DefaultConfig returns settings that rely on poppler, whisper.cpp, ffmpeg
// and LibreOffice being on PATH.
func DefaultConfig() Config {
	return Config{
		MaxImageWorkers:     4,
		Timeout:             10 * time.Minute,
		PDFCommand:          []string{"pdftotext", "-layout", "{input}", "-"},
		TranscribeCommand:   []string{"whisper-cli", "-l", "ko", "-nt", "-np", "-f", "{input}"},
		AudioExtractCommand: []string{"ffmpeg", "-y", "-loglevel", "error", "-i", "{input}", "-vn", "-ac", "1", "-ar", "16000", "{output}"},
		ConvertCommand:      []string{"soffice", "--headless", "--convert-to", "{format}", "--outdir", "{outdir}", "{input}"},
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxImageWorkers <= 0 {
		c.MaxImageWorkers = def.MaxImageWorkers
	}
	if len(c.PDFCommand) == 0 {
		c.PDFCommand = def.PDFCommand
	}
	if len(c.TranscribeCommand) == 0 {
		c.TranscribeCommand = def.TranscribeCommand
	}
	if len(c.AudioExtractCommand) == 0 {
		c.AudioExtractCommand = def.AudioExtractCommand
	}
	if len(c.ConvertCommand) == 0 {
		c.ConvertCommand = def.ConvertCommand
	}
	return c
}
