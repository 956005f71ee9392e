package extract

// SplitSource cuts the source text into ordered, bounded chunks. Split points
// prefer paragraph breaks, then line breaks, then a hard cut, so prose is not
// severed mid-sentence when a softer boundary exists. Consecutive chunks
// overlap by overlapChars runes; together they cover the whole source with no
// gaps. A source no longer than maxChars comes back as exactly one chunk.
func SplitSource(src *SourceText, maxChars, overlapChars int) ([]Chunk, error) {
	if maxChars <= 0 {
		return nil, &ChunkError{MaxChars: maxChars, OverlapChars: overlapChars,
			Reason: "max chunk size must be positive"}
	}
	if overlapChars < 0 {
		return nil, &ChunkError{MaxChars: maxChars, OverlapChars: overlapChars,
			Reason: "overlap must not be negative"}
	}
	if overlapChars >= maxChars {
		return nil, &ChunkError{MaxChars: maxChars, OverlapChars: overlapChars,
			Reason: "overlap must be smaller than max chunk size"}
	}

	runes := []rune(src.Text)
	n := len(runes)
	if n == 0 {
		return nil, nil
	}
	if n <= maxChars {
		return []Chunk{{Index: 0, Start: 0, End: n, Text: src.Text}}, nil
	}

	var chunks []Chunk
	pos := 0
	for idx := 0; pos < n; idx++ {
		end := pos + maxChars
		if end >= n {
			end = n
		} else {
			end = splitPoint(runes, pos, end)
		}
		chunks = append(chunks, Chunk{Index: idx, Start: pos, End: end, Text: string(runes[pos:end])})
		if end >= n {
			break
		}
		next := end - overlapChars
		if next <= pos {
			next = pos + 1 // always make progress
		}
		pos = next
	}
	return chunks, nil
}

// splitPoint picks the cut position inside (pos, limit]: the last paragraph
// break in the window if any, else the last line break, else limit. Breaks in
// the first half of the window are ignored so chunks do not degenerate.
func splitPoint(runes []rune, pos, limit int) int {
	floor := pos + (limit-pos)/2

	for i := limit - 1; i > floor; i-- {
		if runes[i] == '\n' && i+1 < len(runes) && runes[i+1] == '\n' {
			return i
		}
		if runes[i] == '\n' && i > 0 && runes[i-1] == '\n' {
			return i - 1
		}
	}
	for i := limit - 1; i > floor; i-- {
		if runes[i] == '\n' {
			return i
		}
	}
	return limit
}
