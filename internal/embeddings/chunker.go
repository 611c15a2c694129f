package embeddings

import "strings"

// SplitText splits text into chunks of roughly chunkSize characters on word
// boundaries, carrying overlapPercent of each chunk's words into the next so
// context survives the cut.
func SplitText(text string, chunkSize, overlapPercent int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentSize := 0

	for _, word := range words {
		wordSize := len(word) + 1
		if currentSize+wordSize > chunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))

			overlapWords := len(current) * overlapPercent / 100
			if overlapWords > 0 && overlapWords < len(current) {
				current = current[len(current)-overlapWords:]
				currentSize = len(strings.Join(current, " "))
			} else {
				current = nil
				currentSize = 0
			}
		}
		current = append(current, word)
		currentSize += wordSize
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}
