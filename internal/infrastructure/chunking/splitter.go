package chunking

import "strings"

// Splitter cuts extracted text into overlapping chunks, preferring blank-line
// boundaries. Paragraphs are packed greedily up to ChunkSize runes; each new
// chunk is seeded with the last Overlap runes of the previous one, truncated
// when the next paragraph leaves less room. A single paragraph larger than
// ChunkSize falls back to plain rune windows. Output is deterministic for
// identical input.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(text string) []string {
	units := s.units(text)
	if len(units) == 0 {
		return nil
	}

	var out []string
	var current []rune
	for _, unit := range units {
		runes := []rune(unit)
		sep := 0
		if len(current) > 0 {
			sep = 2
		}
		if len(current) > 0 && len(current)+sep+len(runes) > s.ChunkSize {
			out = append(out, string(current))
			current = s.fitSeed(s.overlapTail(current), runes)
		}
		if len(current) > 0 {
			current = append(current, '\n', '\n')
		}
		current = append(current, runes...)
	}
	if chunk := strings.TrimSpace(string(current)); chunk != "" {
		out = append(out, string(current))
	}
	return out
}

// units yields paragraphs no larger than ChunkSize, window-splitting any
// oversized paragraph.
func (s *Splitter) units(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	var units []string
	for _, para := range strings.Split(normalized, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		runes := []rune(para)
		if len(runes) <= s.ChunkSize {
			units = append(units, para)
			continue
		}
		units = append(units, s.window(runes)...)
	}
	return units
}

func (s *Splitter) window(runes []rune) []string {
	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}

	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			out = append(out, piece)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}

// fitSeed shrinks the overlap seed from the front so seed + separator +
// next unit still fits in ChunkSize. Adjacent chunks keep as much overlap
// as the next unit leaves room for.
func (s *Splitter) fitSeed(seed, next []rune) []rune {
	if len(seed) == 0 {
		return nil
	}
	room := s.ChunkSize - len(next) - 2
	if room <= 0 {
		return nil
	}
	if len(seed) > room {
		seed = seed[len(seed)-room:]
	}
	return []rune(strings.TrimSpace(string(seed)))
}

func (s *Splitter) overlapTail(chunk []rune) []rune {
	if s.Overlap <= 0 || len(chunk) == 0 {
		return nil
	}
	start := len(chunk) - s.Overlap
	if start < 0 {
		start = 0
	}
	tail := strings.TrimSpace(string(chunk[start:]))
	return []rune(tail)
}
