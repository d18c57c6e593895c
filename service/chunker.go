package service

import (
	"strings"
	"unicode"
)

// overlapCharsPerWord approximates word length when converting a
// character overlap budget into a word count
const overlapCharsPerWord = 6

// ChunkText splits normalized text into overlapping, word-aligned chunks.
// Words accumulate greedily while the joined length stays within
// chunkSize; a chunk closes when the next word would exceed it. When
// chunkOverlap is positive, each new chunk is seeded with the last
// chunkOverlap/6 words of the previous one. chunkSize is a soft target:
// a single word longer than chunkSize still lands in its own chunk,
// never split mid-word.
func ChunkText(text string, chunkSize, chunkOverlap int) []string {
	words := strings.Fields(normalizeText(text))
	if len(words) == 0 {
		return nil
	}

	overlapWords := 0
	if chunkOverlap > 0 {
		overlapWords = chunkOverlap / overlapCharsPerWord
	}

	var chunks []string
	var current []string
	currentLen := 0

	for _, word := range words {
		if currentLen+len(word)+1 > chunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))

			carry := overlapWords
			if carry > len(current) {
				carry = len(current)
			}
			seed := current[len(current)-carry:]
			current = append([]string(nil), seed...)
			currentLen = 0
			for _, w := range current {
				currentLen += len(w) + 1
			}
		}

		current = append(current, word)
		currentLen += len(word) + 1
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}

// normalizeText canonicalizes line endings, collapses tabs to spaces,
// strips control characters and per-line trailing whitespace, and trims
// the result
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\t", " ")

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}

	lines := strings.Split(b.String(), "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
