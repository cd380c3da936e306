// Package words supplies the word-guessing game's vocabulary: a built-in
// list, optionally replaced by a newline-separated list fetched over HTTP at
// startup.
package words

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"
)

var defaultWords = []string{
	"KUCING", "ANJING", "HARIMAU", "GAJAH", "MONYET",
	"BANANA", "ORANGE", "GUITAR", "PLANET", "ROCKET",
	"SILVER", "CASTLE", "BRIDGE", "WINTER", "THUNDER",
	"PYTHON", "MARBLE", "VELVET", "LANTERN", "HORIZON",
}

const fetchTimeout = 10 * time.Second

type List struct {
	words []string
}

// NewList builds the word source. When url is non-empty the remote list is
// fetched once with a timeout; any failure falls back to the built-in list
// with a warning.
func NewList(ctx context.Context, url string) *List {
	if url == "" {
		return &List{words: defaultWords}
	}

	fetched, err := fetchWordList(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("failed to fetch word list, using built-in words")
		return &List{words: defaultWords}
	}

	log.Info().Int("words", len(fetched)).Str("url", url).Msg("loaded remote word list")

	return &List{words: fetched}
}

func (l *List) RandomWord(_ context.Context) (string, error) {
	if len(l.words) == 0 {
		return "", fmt.Errorf("word list is empty")
	}

	return l.words[rand.Intn(len(l.words))], nil
}

func fetchWordList(ctx context.Context, url string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request %w", err)
	}

	client := &http.Client{}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing request %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code on download: %d", res.StatusCode)
	}

	buf, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response %w", err)
	}

	var words []string
	for _, line := range strings.Split(string(buf), "\n") {
		word := strings.ToUpper(strings.TrimSpace(line))
		if word != "" && isAlphabetic(word) {
			words = append(words, word)
		}
	}

	if len(words) == 0 {
		return nil, fmt.Errorf("word list at %s is empty", url)
	}

	return words, nil
}

func isAlphabetic(word string) bool {
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}

	return true
}
